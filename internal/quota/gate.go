// Package quota implements the admission controller. It applies local caps
// to anonymous usage and server-checked credit balances to authenticated
// usage. The gate is advisory: it runs before a generation request is
// dispatched, and the backend remains the final authority.
package quota

import (
	"context"
	"sync"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/logging"
)

// Operation names used for admission decisions and denial events.
const (
	OpGenerateQuestions = "generate_questions"
	OpGenerateAnswer    = "generate_answer"
)

// CreditAPI is the slice of the backend client the gate needs for
// authenticated admission.
type CreditAPI interface {
	CheckCredits(ctx context.Context, cost int) (*api.CreditCheck, error)
	DeductCredits(ctx context.Context, cost int) (*api.CreditDeduction, error)
}

// Authenticator reports whether the client currently holds an access token.
type Authenticator interface {
	Authenticated() bool
}

// Limits holds the anonymous usage caps.
type Limits struct {
	MaxQuestions int
	MaxAnswers   int
}

// Gate decides whether a generation operation may proceed. Checks are pure
// reads and can be repeated without side effects; usage is only recorded
// after the operation completes successfully.
type Gate struct {
	ledger  *Ledger
	credits CreditAPI
	auth    Authenticator
	limits  Limits
	bus     *event.Bus
	log     *logging.Logger

	mu           sync.Mutex
	balance      int
	balanceKnown bool
}

// NewGate creates an admission gate. The bus and log may be nil.
func NewGate(ledger *Ledger, credits CreditAPI, auth Authenticator, limits Limits, bus *event.Bus, log *logging.Logger) *Gate {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Gate{
		ledger:  ledger,
		credits: credits,
		auth:    auth,
		limits:  limits,
		bus:     bus,
		log:     log,
	}
}

// CanPerform reports whether the named operation may consume n units.
// Anonymous users are checked against the local ledger; authenticated users
// against the server-side credit balance. A denial is returned as a
// QuotaError and also published as a quota.denied event.
func (g *Gate) CanPerform(ctx context.Context, op string, n int) error {
	if g.auth != nil && g.auth.Authenticated() {
		return g.checkCredits(ctx, op, n)
	}
	return g.checkAnonymous(op, n)
}

// RecordUsage charges n units for a completed operation. It must only be
// called after the operation reached a terminal success; failed or aborted
// generations are never charged locally.
func (g *Gate) RecordUsage(ctx context.Context, op string, n int) error {
	if g.auth != nil && g.auth.Authenticated() {
		deduction, err := g.credits.DeductCredits(ctx, n)
		if err != nil {
			return err
		}
		// The server-reported balance is truth; never compute it locally.
		g.mu.Lock()
		g.balance = deduction.NewCreditBalance
		g.balanceKnown = true
		g.mu.Unlock()
		g.log.Debug("credits deducted", "operation", op, "cost", n, "balance", deduction.NewCreditBalance)
		return nil
	}

	switch op {
	case OpGenerateAnswer:
		return g.ledger.AddAnswers(n)
	default:
		return g.ledger.AddQuestions(n)
	}
}

// Balance returns the last credit balance reported by the server. The
// second return is false until a check or deduction has been observed.
func (g *Gate) Balance() (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance, g.balanceKnown
}

// Remaining returns the anonymous allowance left for the operation.
func (g *Gate) Remaining(op string) int {
	var remaining int
	switch op {
	case OpGenerateAnswer:
		remaining = g.limits.MaxAnswers - g.ledger.Answers()
	default:
		remaining = g.limits.MaxQuestions - g.ledger.Questions()
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (g *Gate) checkAnonymous(op string, n int) error {
	remaining := g.Remaining(op)
	if n <= remaining {
		return nil
	}
	return g.deny(op, n, remaining, false)
}

func (g *Gate) checkCredits(ctx context.Context, op string, n int) error {
	check, err := g.credits.CheckCredits(ctx, n)
	if err != nil {
		// The gate is advisory. If the balance cannot be verified the
		// request proceeds and the backend enforces.
		g.log.Warn("credit check unavailable, allowing request", "operation", op, "error", err)
		return nil
	}

	g.mu.Lock()
	g.balance = check.CurrentCredits
	g.balanceKnown = true
	g.mu.Unlock()

	if check.HasCredits {
		return nil
	}
	return g.deny(op, n, check.CurrentCredits, true)
}

func (g *Gate) deny(op string, requested, remaining int, authenticated bool) error {
	g.log.Info("operation denied by quota",
		"operation", op, "requested", requested, "remaining", remaining, "authenticated", authenticated)
	if g.bus != nil {
		g.bus.Publish(event.NewQuotaDeniedEvent(op, requested, remaining, authenticated))
	}
	return &errors.QuotaError{
		Operation:     op,
		Requested:     requested,
		Remaining:     remaining,
		Authenticated: authenticated,
	}
}
