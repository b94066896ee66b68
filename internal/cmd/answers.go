package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prepforge/prepforge/internal/app"
	"github.com/prepforge/prepforge/internal/event"
)

var answersCmd = &cobra.Command{
	Use:   "answers",
	Short: "Save your answers and generate sample ones",
}

var answersSaveCmd = &cobra.Command{
	Use:   "save <session-id> <question-id> <answer>",
	Short: "Save your answer to a question",
	Long: `Save your answer to a question. The answer text may be given inline
or as a path to a file containing it.`,
	Args: cobra.ExactArgs(3),
	RunE: runAnswersSave,
}

var answersGenerateCmd = &cobra.Command{
	Use:   "generate <session-id> [question-id]",
	Short: "Generate a sample answer for one question, or --all for every unanswered one",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAnswersGenerate,
}

var answersAll bool

func init() {
	rootCmd.AddCommand(answersCmd)
	answersCmd.AddCommand(answersSaveCmd)
	answersCmd.AddCommand(answersGenerateCmd)

	answersGenerateCmd.Flags().BoolVar(&answersAll, "all", false, "generate answers for every unanswered question")
}

func runAnswersSave(cmd *cobra.Command, args []string) error {
	sessionID, questionID := args[0], args[1]
	answer, err := readInput(args[2])
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	if _, err := a.Sessions.Get(ctx, sessionID); err != nil {
		return userError(err)
	}
	a.Connect(ctx, sessionID)

	result, err := a.Generate.SaveAnswer(ctx, sessionID, questionID, answer)
	if err != nil {
		return userError(err)
	}
	if result.Dispatched {
		fmt.Println("Answer saved")
	} else {
		// The debounced autosave persists it; Close flushes on exit.
		fmt.Println("Answer saved (will sync)")
	}
	return nil
}

func runAnswersGenerate(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	if _, err := a.Sessions.Get(ctx, sessionID); err != nil {
		return userError(err)
	}

	if answersAll {
		generated, err := a.Generate.GenerateBulkAnswers(ctx, sessionID)
		if err != nil {
			return userError(err)
		}
		if len(generated) == 0 {
			fmt.Println("Every question already has a sample answer")
			return nil
		}
		fmt.Printf("Generated %d sample answers\n", len(generated))
		return printSessionQuestions(cmd, a, sessionID)
	}

	if len(args) < 2 {
		return fmt.Errorf("a question id is required unless --all is given")
	}
	questionID := args[1]
	a.Connect(ctx, sessionID)

	result, err := a.Generate.GenerateAnswer(ctx, sessionID, questionID)
	if err != nil {
		return userError(err)
	}
	if result.Dispatched {
		if err := waitForAnswer(a, sessionID, questionID); err != nil {
			return err
		}
	}

	sess, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return userError(err)
	}
	for _, q := range sess.Questions {
		if q.ID == questionID {
			fmt.Printf("Q: %s\nA: %s\n", q.Question, q.Answer)
			return nil
		}
	}
	return nil
}

// waitForAnswer blocks until the dispatched answer generation lands.
func waitForAnswer(a *app.App, sessionID, questionID string) error {
	done := make(chan struct{}, 1)
	sub := a.Bus.Subscribe("answer.generated", func(e event.Event) {
		ev := e.(event.AnswerGeneratedEvent)
		if ev.SessionID == sessionID && ev.QuestionID == questionID {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer a.Bus.Unsubscribe(sub)

	timeout := a.Config.Generate.WaitTimeout()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("answer generation did not finish within %s", timeout)
	}
}

func printSessionQuestions(cmd *cobra.Command, a *app.App, sessionID string) error {
	sess, err := a.Sessions.Get(cmd.Context(), sessionID)
	if err != nil {
		return userError(err)
	}
	for i, q := range sess.Questions {
		printQuestion(i, q)
	}
	return nil
}
