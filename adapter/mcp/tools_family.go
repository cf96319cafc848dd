package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/allie/adapter/cli"
	familyDomain "github.com/felixgeelhaar/allie/internal/family/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type addMemberInput struct {
	Name  string `json:"name" jsonschema:"required"`
	Role  string `json:"role,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type memberOutput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

var errNoMembers = errors.New("family members require a configured store")

func registerFamilyTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("family.members").
		Description("List family members that tasks and events can be assigned to").
		Handler(func(ctx context.Context, input struct{}) ([]memberOutput, error) {
			return listMembers(ctx, app)
		})

	srv.Tool("family.add_member").
		Description("Add a family member (role: parent, child, caregiver or other)").
		Handler(func(ctx context.Context, input addMemberInput) (*memberOutput, error) {
			return addMember(ctx, app, input)
		})

	return nil
}

func listMembers(ctx context.Context, app *cli.App) ([]memberOutput, error) {
	if app == nil || app.Members == nil {
		return nil, errNoMembers
	}
	members, err := app.Members.ListByFamily(ctx, app.FamilyID)
	if err != nil {
		return nil, err
	}
	out := make([]memberOutput, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberOutput(m))
	}
	return out, nil
}

func addMember(ctx context.Context, app *cli.App, input addMemberInput) (*memberOutput, error) {
	if app == nil || app.Members == nil {
		return nil, errNoMembers
	}
	member, err := familyDomain.NewMember(app.FamilyID, input.Name, familyDomain.ParseRole(input.Role))
	if err != nil {
		return nil, err
	}
	member.Phone = input.Phone
	member.Email = input.Email
	if err := app.Members.Save(ctx, member); err != nil {
		return nil, err
	}
	out := toMemberOutput(member)
	return &out, nil
}

func toMemberOutput(m familyDomain.Member) memberOutput {
	return memberOutput{ID: m.ID, Name: m.Name, Role: string(m.Role), Phone: m.Phone, Email: m.Email}
}
