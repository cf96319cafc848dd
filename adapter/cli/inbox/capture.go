package inbox

import (
	"fmt"

	"github.com/felixgeelhaar/allie/adapter/cli"
	"github.com/felixgeelhaar/allie/internal/inbox/application/commands"
	"github.com/felixgeelhaar/allie/internal/inbox/domain"
	"github.com/felixgeelhaar/allie/internal/shared/infrastructure/security"
	"github.com/spf13/cobra"
)

var (
	captureSource   string
	captureSubject  string
	captureBody     string
	captureFrom     string
	captureTo       string
	captureFileName string
	captureFileType string
	captureFileURL  string
	captureTextFile string
	captureCategory string
	captureMedia    []string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Add a document, email or text message to the inbox",
	Long: `Write a raw record into a source collection the way the upstream
ingesters do. The live feed picks it up like any other arrival.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CaptureItemHandler == nil {
			return errNoApp
		}

		source, ok := domain.ParseSource(captureSource)
		if !ok {
			return fmt.Errorf("unknown source %q", captureSource)
		}

		command := commands.CaptureItemCommand{
			FamilyID:  app.FamilyID,
			Source:    source,
			Subject:   captureSubject,
			Body:      captureBody,
			From:      captureFrom,
			To:        captureTo,
			FileName:  captureFileName,
			FileType:  captureFileType,
			FileURL:   captureFileURL,
			Category:  captureCategory,
			MediaURLs: captureMedia,
		}
		if captureTextFile != "" {
			data, err := security.ReadCaptureFile(captureTextFile, 0)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", captureTextFile, err)
			}
			command.ExtractedText = string(data)
		}

		result, err := app.CaptureItemHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to capture inbox item: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Captured %s\n", result.Key)
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureSource, "source", "email", "source: document, email, sms or mms")
	captureCmd.Flags().StringVar(&captureSubject, "subject", "", "email subject or document title")
	captureCmd.Flags().StringVarP(&captureBody, "body", "b", "", "message body")
	captureCmd.Flags().StringVar(&captureFrom, "from", "", "sender")
	captureCmd.Flags().StringVar(&captureTo, "to", "", "recipient")
	captureCmd.Flags().StringVar(&captureFileName, "file-name", "", "document file name")
	captureCmd.Flags().StringVar(&captureFileType, "file-type", "", "document MIME type")
	captureCmd.Flags().StringVar(&captureFileURL, "file-url", "", "where the document is stored")
	captureCmd.Flags().StringVar(&captureTextFile, "text-file", "", "read the document's extracted text from a file")
	captureCmd.Flags().StringVar(&captureCategory, "category", "", "document category")
	captureCmd.Flags().StringSliceVar(&captureMedia, "media", nil, "MMS media URL (can repeat)")
}
