package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract plain text from a resume document (PDF, DOCX, TXT)",
	Long: `Upload a resume document and print the extracted plain text. Useful
for checking what the generator will actually see, or for piping into
'prepforge generate --resume'.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer file.Close()

	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	result, err := a.API.UploadFile(ctx, filepath.Base(args[0]), file)
	if err != nil {
		return userError(err)
	}
	fmt.Print(result.Content)
	return nil
}
