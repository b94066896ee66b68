package session

import (
	"context"
	"sync"
	"time"

	"github.com/prepforge/prepforge/internal/logging"
)

// FlushFunc persists the named session's pending answers.
type FlushFunc func(ctx context.Context, sessionID string) error

// Autosaver coalesces rapid edits into one save per quiescence window.
// Every Schedule call resets the session's timer, so the save fires only
// after the user has stopped editing for the full debounce interval and
// carries whatever state is current at that moment.
type Autosaver struct {
	debounce time.Duration
	flush    FlushFunc
	log      *logging.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewAutosaver creates an autosaver. A non-positive debounce falls back to
// a sane default rather than saving on every keystroke.
func NewAutosaver(debounce time.Duration, flush FlushFunc, log *logging.Logger) *Autosaver {
	if debounce <= 0 {
		debounce = 800 * time.Millisecond
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Autosaver{
		debounce: debounce,
		flush:    flush,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms) the session's save timer.
func (a *Autosaver) Schedule(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	if timer, ok := a.timers[sessionID]; ok {
		timer.Reset(a.debounce)
		return
	}
	a.timers[sessionID] = time.AfterFunc(a.debounce, func() {
		a.fire(sessionID)
	})
}

// Cancel disarms any pending save for the session.
func (a *Autosaver) Cancel(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if timer, ok := a.timers[sessionID]; ok {
		timer.Stop()
		delete(a.timers, sessionID)
	}
}

// Pending returns the sessions with an armed save timer.
func (a *Autosaver) Pending() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	ids := make([]string, 0, len(a.timers))
	for id := range a.timers {
		ids = append(ids, id)
	}
	return ids
}

// Stop disarms everything. Pending edits are not flushed; callers that
// care flush first.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	for id, timer := range a.timers {
		timer.Stop()
		delete(a.timers, id)
	}
}

func (a *Autosaver) fire(sessionID string) {
	a.mu.Lock()
	delete(a.timers, sessionID)
	stopped := a.stopped
	a.mu.Unlock()
	if stopped {
		return
	}

	if err := a.flush(context.Background(), sessionID); err != nil {
		a.log.Warn("scheduled save failed", "session_id", sessionID, "error", err)
	}
}
