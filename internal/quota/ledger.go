package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const ledgerFileName = "usage.json"

// ledgerState is the on-disk shape of the anonymous usage ledger.
type ledgerState struct {
	QuestionsGenerated int `json:"questions_generated"`
	AnswersGenerated   int `json:"answers_generated"`
}

// Ledger tracks cumulative anonymous usage across invocations. It is
// persisted as JSON in the data directory with an atomic rename so a crash
// mid-write never corrupts the count.
type Ledger struct {
	mu    sync.Mutex
	path  string
	state ledgerState
}

// OpenLedger loads the usage ledger from dataDir, starting fresh if no file
// exists yet. A malformed file is treated as empty rather than blocking
// the client.
func OpenLedger(dataDir string) *Ledger {
	l := &Ledger{path: filepath.Join(dataDir, ledgerFileName)}
	if data, err := os.ReadFile(l.path); err == nil {
		var state ledgerState
		if json.Unmarshal(data, &state) == nil {
			l.state = state
		}
	}
	return l
}

// Questions returns the number of questions generated anonymously so far.
func (l *Ledger) Questions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.QuestionsGenerated
}

// Answers returns the number of answers generated anonymously so far.
func (l *Ledger) Answers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.AnswersGenerated
}

// AddQuestions records n generated questions and persists the ledger.
func (l *Ledger) AddQuestions(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.QuestionsGenerated += n
	return l.save()
}

// AddAnswers records n generated answers and persists the ledger.
func (l *Ledger) AddAnswers(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.AnswersGenerated += n
	return l.save()
}

// Reset clears all recorded usage. Used when an anonymous user signs up,
// since their consumption is tracked server-side from then on.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = ledgerState{}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove usage ledger: %w", err)
	}
	return nil
}

// save must be called with the mutex held.
func (l *Ledger) save() error {
	data, err := json.MarshalIndent(l.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return atomicWriteFile(l.path, data, 0600)
}

// atomicWriteFile writes data to path via a temp file and rename, so
// readers never observe a partially written ledger.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
