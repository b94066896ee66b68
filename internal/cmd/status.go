package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/prepforge/prepforge/internal/quota"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend reachability and remaining allowance",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	fmt.Printf("Backend:  %s\n", a.Config.Backend.BaseURL)
	if a.Prober.Probe(ctx) {
		fmt.Println("Status:   reachable (realtime available)")
	} else {
		fmt.Println("Status:   unreachable (working offline via fallback would also fail)")
	}

	if a.Tokens.Authenticated() {
		profile, err := a.API.GetProfile(ctx)
		if err != nil {
			return userError(err)
		}
		fmt.Printf("Account:  %s\n", profile.Email)
		fmt.Printf("Credits:  %d\n", profile.Credits)
		return nil
	}

	fmt.Println("Account:  anonymous")
	fmt.Printf("Free questions left: %d\n", a.Gate.Remaining(quota.OpGenerateQuestions))
	fmt.Printf("Free answers left:   %d\n", a.Gate.Remaining(quota.OpGenerateAnswer))
	return nil
}
