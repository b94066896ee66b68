package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/app"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/model"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate interview questions",
	Long: `Generate interview questions from a resume, a job description, or both.

Inputs may be given inline or as file paths. Without --session a new
session is created; with it, questions are added to the existing one.`,
	RunE: runGenerate,
}

var (
	generateSession     string
	generateCompany     string
	generateTitle       string
	generateResume      string
	generateJD          string
	generateCount       int
	generateTypes       []string
	generateDifficulty  []string
	generateWithAnswers bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateSession, "session", "", "add questions to an existing session")
	generateCmd.Flags().StringVar(&generateCompany, "company", "", "company name for a new session")
	generateCmd.Flags().StringVar(&generateTitle, "title", "", "job title for a new session")
	generateCmd.Flags().StringVar(&generateResume, "resume", "", "resume text or path to a resume file")
	generateCmd.Flags().StringVar(&generateJD, "jd", "", "job description text or path to a file")
	generateCmd.Flags().IntVar(&generateCount, "count", 0, "number of questions (default from config)")
	generateCmd.Flags().StringSliceVar(&generateTypes, "type", nil, "question types: technical, behavioral, experience")
	generateCmd.Flags().StringSliceVar(&generateDifficulty, "difficulty", nil, "difficulty levels: beginner, intermediate, advanced")
	generateCmd.Flags().BoolVar(&generateWithAnswers, "with-answers", false, "include sample answers")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	resume, err := readInput(generateResume)
	if err != nil {
		return err
	}
	jd, err := readInput(generateJD)
	if err != nil {
		return err
	}
	if resume == "" && jd == "" {
		return fmt.Errorf("at least one of --resume or --jd is required")
	}

	a, err := buildApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	defer a.Close(ctx)

	sessionID := generateSession
	if sessionID == "" {
		sess, err := a.Sessions.Create(ctx, api.SessionCreate{
			CompanyName:    generateCompany,
			JobTitle:       generateTitle,
			ResumeText:     resume,
			JobDescription: jd,
		})
		if err != nil {
			return userError(err)
		}
		sessionID = sess.ID
		fmt.Printf("Session %s created\n", sessionID)
	} else if _, err := a.Sessions.Get(ctx, sessionID); err != nil {
		return userError(err)
	}

	a.Connect(ctx, sessionID)

	count := generateCount
	if count <= 0 {
		count = a.Config.Generate.DefaultCount
	}
	req := model.GenerationRequest{
		SessionID:      sessionID,
		Mode:           generationMode(resume, jd),
		ResumeText:     resume,
		JobDescription: jd,
		Count:          count,
		IncludeAnswers: generateWithAnswers || a.Config.Generate.IncludeAnswers,
	}
	for _, t := range generateTypes {
		req.Types = append(req.Types, model.QuestionType(t))
	}
	for _, d := range generateDifficulty {
		req.Difficulties = append(req.Difficulties, model.Difficulty(d))
	}

	result, err := a.Generate.GenerateQuestions(ctx, req)
	if err != nil {
		return userError(err)
	}
	if result.Dispatched {
		if err := waitForGeneration(ctx, a, sessionID); err != nil {
			return err
		}
	}

	sess, err := a.Sessions.Get(ctx, sessionID)
	if err != nil {
		return userError(err)
	}
	fmt.Printf("\n%d questions in session %s:\n\n", len(sess.Questions), sessionID)
	for i, q := range sess.Questions {
		printQuestion(i, q)
	}
	return nil
}

func generationMode(resume, jd string) model.GenerationMode {
	switch {
	case resume != "" && jd != "":
		return model.ModeCombined
	case jd != "":
		return model.ModeJobDescription
	default:
		return model.ModeResume
	}
}

// waitForGeneration blocks until the dispatched generation reaches a
// terminal stage, printing progress as it arrives.
func waitForGeneration(ctx context.Context, a *app.App, sessionID string) error {
	done := make(chan struct{}, 1)
	failed := make(chan string, 1)

	subDone := a.Bus.Subscribe("questions.generated", func(e event.Event) {
		if e.(event.QuestionsGeneratedEvent).SessionID == sessionID {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer a.Bus.Unsubscribe(subDone)

	subProgress := a.Bus.Subscribe("progress.updated", func(e event.Event) {
		u := e.(event.ProgressEvent).Update
		if u.SessionID != sessionID {
			return
		}
		if u.Stage == model.StageError {
			select {
			case failed <- u.Message:
			default:
			}
			return
		}
		fmt.Printf("  %s %d%%\n", u.Stage, u.Percent)
	})
	defer a.Bus.Unsubscribe(subProgress)

	timeout := a.Config.Generate.WaitTimeout()
	select {
	case <-done:
		return nil
	case msg := <-failed:
		if msg == "" {
			msg = "generation failed"
		}
		return fmt.Errorf("%s", msg)
	case <-time.After(timeout):
		return fmt.Errorf("generation did not finish within %s; check later with 'prepforge sessions show %s'", timeout, sessionID)
	case <-ctx.Done():
		return ctx.Err()
	}
}
