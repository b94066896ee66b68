package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session's questions and answers as a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	sess, err := a.Sessions.Get(ctx, args[0])
	if err != nil {
		return userError(err)
	}
	if len(sess.Questions) == 0 {
		return fmt.Errorf("session %s has no questions to export", sess.ID)
	}

	result, err := a.API.ExportPDF(ctx, sess.Questions, sess.Answers, "", sess.JobTitle)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Exported %s (%d bytes)\n", result.Filename, result.FileSize)
	fmt.Printf("Download: %s\n", result.DownloadURL)
	return nil
}
