package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage interview prep sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with its questions and answers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search sessions by company, title, or content",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsSearch,
}

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats <session-id>",
	Short: "Show answer progress for a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsStats,
}

var sessionsAll bool

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsSearchCmd)
	sessionsCmd.AddCommand(sessionsStatsCmd)

	sessionsListCmd.Flags().BoolVar(&sessionsAll, "all", false, "include inactive sessions")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	sessions, err := a.Sessions.Refresh(ctx, !sessionsAll)
	if err != nil {
		return userError(err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet. Start one with 'prepforge generate'.")
		return nil
	}

	fmt.Printf("%-36s  %-20s  %-20s  %9s  %7s\n", "ID", "COMPANY", "TITLE", "QUESTIONS", "UPDATED")
	for _, s := range sessions {
		fmt.Printf("%-36s  %-20s  %-20s  %9d  %7s\n",
			s.ID,
			truncate(s.CompanyName, 20),
			truncate(s.JobTitle, 20),
			len(s.Questions),
			s.UpdatedAt.Format("Jan 02"))
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Session:  %s\n", sess.ID)
	if sess.CompanyName != "" {
		fmt.Printf("Company:  %s\n", sess.CompanyName)
	}
	if sess.JobTitle != "" {
		fmt.Printf("Title:    %s\n", sess.JobTitle)
	}
	fmt.Printf("Created:  %s\n", sess.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Printf("Questions: %d, answered: %d\n\n", len(sess.Questions), len(sess.Answers))

	for i, q := range sess.Questions {
		printQuestion(i, q)
		if answer, ok := sess.Answers[q.ID]; ok {
			fmt.Printf("    Your answer: %s\n", answer)
		}
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	if err := a.Sessions.Delete(ctx, args[0]); err != nil {
		return userError(err)
	}
	fmt.Printf("Session %s deleted\n", args[0])
	return nil
}

func runSessionsSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	sessions, err := a.API.SearchSessions(ctx, args[0])
	if err != nil {
		return userError(err)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions matched.")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s / %s  (%d questions)\n",
			s.ID, truncate(s.CompanyName, 24), truncate(s.JobTitle, 24), len(s.Questions))
	}
	return nil
}

func runSessionsStats(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	stats, err := a.API.GetSessionStats(ctx, args[0])
	if err != nil {
		return userError(err)
	}
	fmt.Printf("Questions:        %d\n", stats.TotalQuestions)
	fmt.Printf("Answered:         %d\n", stats.AnsweredQuestions)
	fmt.Printf("Completion:       %.0f%%\n", stats.CompletionPercent)
	return nil
}
