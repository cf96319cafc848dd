package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/mcp-go"
)

type healthOutput struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Report the health of the store, the inbox feed and other dependencies").
		Handler(func(ctx context.Context, input struct{}) (*healthOutput, error) {
			return checkHealth(ctx, app)
		})

	return nil
}

func checkHealth(ctx context.Context, app *cli.App) (*healthOutput, error) {
	if app == nil {
		return nil, errors.New("app not initialized")
	}
	if app.Health == nil {
		return &healthOutput{Status: "ok"}, nil
	}

	report := app.Health.Check(ctx)
	out := &healthOutput{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, check := range report.Checks {
		status := string(check.Status)
		if check.Message != "" {
			status += ": " + check.Message
		}
		out.Checks[name] = status
	}
	return out, nil
}
