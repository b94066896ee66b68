// Package progress tracks generation progress per session. Updates follow a
// latest-wins policy: each inbound report replaces the previous one wholesale,
// including apparent regressions, since the backend may legitimately restart
// a stage.
package progress

import (
	"sync"

	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/logging"
	"github.com/prepforge/prepforge/internal/model"
)

// Tracker holds the most recent progress report for each session. It is
// safe for concurrent use; the connection read loop writes while the UI
// layer reads.
type Tracker struct {
	mu      sync.RWMutex
	current map[string]model.ProgressUpdate
	bus     *event.Bus
	log     *logging.Logger
}

// NewTracker creates a progress tracker. The bus and log may be nil.
func NewTracker(bus *event.Bus, log *logging.Logger) *Tracker {
	if log == nil {
		log = logging.NopLogger()
	}
	return &Tracker{
		current: make(map[string]model.ProgressUpdate),
		bus:     bus,
		log:     log,
	}
}

// Update records a progress report, replacing whatever was there before,
// and republishes it as a progress.updated event. Reports without a session
// id are dropped.
func (t *Tracker) Update(u model.ProgressUpdate) {
	if u.SessionID == "" {
		t.log.Debug("dropping progress update without session id", "stage", u.Stage)
		return
	}

	t.mu.Lock()
	t.current[u.SessionID] = u
	t.mu.Unlock()

	t.log.Debug("progress updated",
		"session_id", u.SessionID, "stage", u.Stage, "percent", u.Percent)
	if t.bus != nil {
		t.bus.Publish(event.NewProgressEvent(u))
	}
}

// Get returns the latest report for the session, if any.
func (t *Tracker) Get(sessionID string) (model.ProgressUpdate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.current[sessionID]
	return u, ok
}

// IsGenerating reports whether the session has an in-flight generation.
// Terminal stages (completed, error) leave the report visible via Get but
// no longer count as generating.
func (t *Tracker) IsGenerating(sessionID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.current[sessionID]
	return ok && !u.Stage.Terminal()
}

// Clear forgets the session's progress state. Error reports stay visible
// until cleared so the user can read what went wrong.
func (t *Tracker) Clear(sessionID string) {
	t.mu.Lock()
	delete(t.current, sessionID)
	t.mu.Unlock()
}

// Active returns the ids of all sessions with a non-terminal generation.
func (t *Tracker) Active() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ids []string
	for id, u := range t.current {
		if !u.Stage.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids
}
