package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/prepforge/prepforge/internal/app"
	"github.com/prepforge/prepforge/internal/config"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/model"
)

// buildApp loads configuration and assembles the client.
func buildApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

// buildAppRemember is buildApp with the token durability choice from the
// command line overriding the configured default.
func buildAppRemember(remember bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if remember {
		cfg.Auth.Remember = true
	}
	return app.New(cfg)
}

// userError converts an internal failure into the message shown to the
// user. Network details stay in the log.
func userError(err error) error {
	return fmt.Errorf("%s", errors.UserMessage(err))
}

// readInput returns literal text, or the file's contents when the argument
// names a readable file. Commands accept both forms for resume and job
// description inputs.
func readInput(arg string) (string, error) {
	if arg == "" {
		return "", nil
	}
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", arg, err)
	}
	return string(data), nil
}

// truncate shortens s for table display.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func printQuestion(i int, q model.Question) {
	fmt.Printf("%2d. [%s/%s] %s\n", i+1, q.Type, q.Difficulty, q.Question)
	if q.Answer != "" {
		fmt.Printf("    Sample answer: %s\n", q.Answer)
	}
}
