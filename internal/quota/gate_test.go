package quota

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
)

type fakeAuth struct{ authed bool }

func (f *fakeAuth) Authenticated() bool { return f.authed }

type fakeCredits struct {
	mu         sync.Mutex
	balance    int
	checkErr   error
	checkCalls int
	deductErr  error
}

func (f *fakeCredits) CheckCredits(ctx context.Context, cost int) (*api.CreditCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkCalls++
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return &api.CreditCheck{
		HasCredits:      f.balance >= cost,
		CurrentCredits:  f.balance,
		RequiredCredits: cost,
	}, nil
}

func (f *fakeCredits) DeductCredits(ctx context.Context, cost int) (*api.CreditDeduction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deductErr != nil {
		return nil, f.deductErr
	}
	f.balance -= cost
	return &api.CreditDeduction{Success: true, NewCreditBalance: f.balance}, nil
}

func newTestGate(t *testing.T, authed bool, credits *fakeCredits) (*Gate, *Ledger, *event.Bus) {
	t.Helper()
	ledger := OpenLedger(t.TempDir())
	bus := event.NewBus(nil)
	gate := NewGate(ledger, credits, &fakeAuth{authed: authed}, Limits{MaxQuestions: 10, MaxAnswers: 5}, bus, nil)
	return gate, ledger, bus
}

func TestGate_AnonymousWithinCap(t *testing.T) {
	gate, _, _ := newTestGate(t, false, nil)
	if err := gate.CanPerform(context.Background(), OpGenerateQuestions, 10); err != nil {
		t.Errorf("expected 10 questions to be admitted, got %v", err)
	}
}

func TestGate_AnonymousOverCap(t *testing.T) {
	gate, _, bus := newTestGate(t, false, nil)

	var denied []event.Event
	bus.Subscribe("quota.denied", func(e event.Event) {
		denied = append(denied, e)
	})

	err := gate.CanPerform(context.Background(), OpGenerateQuestions, 11)
	if !errors.IsQuotaExceeded(err) {
		t.Fatalf("expected quota error, got %v", err)
	}

	var quotaErr *errors.QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatal("expected *errors.QuotaError")
	}
	if quotaErr.Authenticated {
		t.Error("anonymous denial should not be marked authenticated")
	}
	if quotaErr.Remaining != 10 {
		t.Errorf("Remaining = %d, want 10", quotaErr.Remaining)
	}
	if len(denied) != 1 {
		t.Errorf("expected 1 quota.denied event, got %d", len(denied))
	}
}

func TestGate_CheckDoesNotConsume(t *testing.T) {
	gate, _, _ := newTestGate(t, false, nil)

	// Repeated checks must not eat into the allowance.
	for i := 0; i < 5; i++ {
		if err := gate.CanPerform(context.Background(), OpGenerateQuestions, 10); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
	}
	if got := gate.Remaining(OpGenerateQuestions); got != 10 {
		t.Errorf("Remaining = %d, want 10", got)
	}
}

func TestGate_RecordUsageAnonymous(t *testing.T) {
	gate, ledger, _ := newTestGate(t, false, nil)

	if err := gate.RecordUsage(context.Background(), OpGenerateQuestions, 6); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if got := ledger.Questions(); got != 6 {
		t.Errorf("ledger questions = %d, want 6", got)
	}
	if got := gate.Remaining(OpGenerateQuestions); got != 4 {
		t.Errorf("Remaining = %d, want 4", got)
	}
	if err := gate.CanPerform(context.Background(), OpGenerateQuestions, 5); !errors.IsQuotaExceeded(err) {
		t.Errorf("expected quota error after usage, got %v", err)
	}

	// Answers have an independent cap.
	if err := gate.CanPerform(context.Background(), OpGenerateAnswer, 5); err != nil {
		t.Errorf("answer cap should be untouched, got %v", err)
	}
}

func TestGate_AuthenticatedWithCredits(t *testing.T) {
	credits := &fakeCredits{balance: 20}
	gate, _, _ := newTestGate(t, true, credits)

	if err := gate.CanPerform(context.Background(), OpGenerateQuestions, 10); err != nil {
		t.Errorf("expected admission with 20 credits, got %v", err)
	}
	if balance, known := gate.Balance(); !known || balance != 20 {
		t.Errorf("Balance() = %d,%v, want 20,true", balance, known)
	}
}

func TestGate_AuthenticatedInsufficientCredits(t *testing.T) {
	credits := &fakeCredits{balance: 2}
	gate, _, _ := newTestGate(t, true, credits)

	err := gate.CanPerform(context.Background(), OpGenerateQuestions, 10)
	var quotaErr *errors.QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected *errors.QuotaError, got %v", err)
	}
	if !quotaErr.Authenticated {
		t.Error("authenticated denial should be marked authenticated")
	}
	if quotaErr.Remaining != 2 {
		t.Errorf("Remaining = %d, want 2", quotaErr.Remaining)
	}
}

func TestGate_AuthenticatedCheckUnavailable(t *testing.T) {
	credits := &fakeCredits{checkErr: fmt.Errorf("connection refused")}
	gate, _, _ := newTestGate(t, true, credits)

	// The gate is advisory: an unreachable credit check admits the request
	// and leaves enforcement to the backend.
	if err := gate.CanPerform(context.Background(), OpGenerateQuestions, 10); err != nil {
		t.Errorf("expected admission when check is unavailable, got %v", err)
	}
	if _, known := gate.Balance(); known {
		t.Error("balance should remain unknown after a failed check")
	}
}

func TestGate_RecordUsageAdoptsServerBalance(t *testing.T) {
	credits := &fakeCredits{balance: 20}
	gate, ledger, _ := newTestGate(t, true, credits)

	if err := gate.RecordUsage(context.Background(), OpGenerateQuestions, 10); err != nil {
		t.Fatalf("RecordUsage failed: %v", err)
	}
	if balance, known := gate.Balance(); !known || balance != 10 {
		t.Errorf("Balance() = %d,%v, want 10,true", balance, known)
	}
	if got := ledger.Questions(); got != 0 {
		t.Errorf("authenticated usage must not touch the anonymous ledger, got %d", got)
	}
}

func TestLedger_PersistsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	first := OpenLedger(dir)
	if err := first.AddQuestions(3); err != nil {
		t.Fatalf("AddQuestions failed: %v", err)
	}
	if err := first.AddAnswers(2); err != nil {
		t.Fatalf("AddAnswers failed: %v", err)
	}

	second := OpenLedger(dir)
	if got := second.Questions(); got != 3 {
		t.Errorf("Questions() = %d, want 3", got)
	}
	if got := second.Answers(); got != 2 {
		t.Errorf("Answers() = %d, want 2", got)
	}
}

func TestLedger_MalformedFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "usage.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	ledger := OpenLedger(dir)
	if got := ledger.Questions(); got != 0 {
		t.Errorf("Questions() = %d, want 0 for malformed ledger", got)
	}
}

func TestLedger_Reset(t *testing.T) {
	dir := t.TempDir()
	ledger := OpenLedger(dir)
	if err := ledger.AddQuestions(5); err != nil {
		t.Fatal(err)
	}

	if err := ledger.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if got := ledger.Questions(); got != 0 {
		t.Errorf("Questions() = %d, want 0 after reset", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "usage.json")); !os.IsNotExist(err) {
		t.Error("ledger file should be removed by Reset")
	}
}
