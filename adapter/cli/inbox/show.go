package inbox

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/allie/internal/inbox/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <collection/id>",
	Short: "Show an item with its analysis and suggested actions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := parseKey(args[0])
		if err != nil {
			return err
		}
		app, err := loadedApp(cmd.Context())
		if err != nil {
			return err
		}

		item, err := app.GetItemHandler.Handle(cmd.Context(), queries.GetItemQuery{Key: key})
		if err != nil {
			return err
		}
		printDetail(cmd.OutOrStdout(), item)
		return nil
	},
}

func printDetail(out io.Writer, item *queries.ItemDetailDTO) {
	fmt.Fprintf(out, "%s [%s/%s]\n", item.Key, item.Source, item.Status)
	fmt.Fprintf(out, "Title:    %s\n", item.Title)
	if item.From != "" {
		fmt.Fprintf(out, "From:     %s\n", item.From)
	}
	if item.FileName != "" {
		fmt.Fprintf(out, "File:     %s\n", item.FileName)
	}
	fmt.Fprintf(out, "Received: %s\n", item.ReceivedAt)
	if item.Category != "" {
		fmt.Fprintf(out, "Category: %s\n", item.Category)
	}
	if item.Summary != "" {
		fmt.Fprintf(out, "Summary:  %s\n", item.Summary)
	}
	if item.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", item.Error)
	}
	printList(out, "Key facts", item.KeyFacts)
	printList(out, "Dates", item.Dates)
	printList(out, "People", item.People)

	if len(item.Actions) > 0 {
		fmt.Fprintln(out, "Suggested actions:")
		for _, a := range item.Actions {
			fmt.Fprintf(out, "  [%d] %-8s %-9s %s\n", a.Index, a.Type, a.Status, a.Title)
			if a.Link != "" {
				fmt.Fprintf(out, "      -> %s\n", a.Link)
			}
			if a.Error != "" {
				fmt.Fprintf(out, "      error: %s\n", a.Error)
			}
		}
	}
	if item.Body != "" {
		fmt.Fprintln(out, strings.Repeat("-", 60))
		fmt.Fprintln(out, item.Body)
	}
}

func printList(out io.Writer, label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for _, v := range values {
		fmt.Fprintf(out, "  - %s\n", v)
	}
}
