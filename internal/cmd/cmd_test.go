package cmd

import (
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd == nil {
		t.Fatal("rootCmd is nil")
	}
	if rootCmd.Use != "prepforge" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "prepforge")
	}

	// Check for expected subcommands (compare by Name(), not Use which includes args)
	expectedCmds := []string{"generate", "answers", "sessions", "auth", "status", "export", "extract"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, name := range expectedCmds {
		if !cmdMap[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestSessionsSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range sessionsCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"list", "show", "delete", "search", "stats"} {
		if !names[want] {
			t.Errorf("sessions is missing subcommand %q", want)
		}
	}
}

func TestGenerationModeSelection(t *testing.T) {
	tests := []struct {
		resume, jd string
		want       string
	}{
		{"resume text", "", "resume"},
		{"", "jd text", "jd"},
		{"resume text", "jd text", "combined"},
	}
	for _, tt := range tests {
		if got := string(generationMode(tt.resume, tt.jd)); got != tt.want {
			t.Errorf("generationMode(%q, %q) = %q, want %q", tt.resume, tt.jd, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 20); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a string that is far too long for the column", 10); got != "a strin..." {
		t.Errorf("truncate long = %q", got)
	}
	if got := truncate("line\nbreak", 20); got != "line break" {
		t.Errorf("truncate newline = %q", got)
	}
}
