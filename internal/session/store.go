// Package session holds the client-side session cache. Mutations apply
// locally first so the UI never waits on the network, then the debounced
// autosaver persists answers through the API. Whatever the server returns
// from a create or update becomes the canonical local copy.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/logging"
	"github.com/prepforge/prepforge/internal/model"
)

// API is the slice of the backend client the store persists through.
type API interface {
	CreateSession(ctx context.Context, create api.SessionCreate) (*model.Session, error)
	GetSession(ctx context.Context, sessionID string) (*model.Session, error)
	ListSessions(ctx context.Context, activeOnly bool) ([]*model.Session, error)
	UpdateSession(ctx context.Context, sessionID string, update api.SessionUpdate) (*model.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	UpdateAnswers(ctx context.Context, sessionID string, answers map[string]string) (*model.Session, error)
}

// Store caches sessions in memory, keyed by id. All methods are safe for
// concurrent use. Local mutations are optimistic; the autosaver and the
// explicit create/update paths reconcile with the server.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session

	backend   API
	bus       *event.Bus
	log       *logging.Logger
	autosaver *Autosaver
}

// NewStore creates a session store persisting through backend. The bus and
// log may be nil. debounce bounds how long after the last edit an autosave
// fires.
func NewStore(backend API, debounce time.Duration, bus *event.Bus, log *logging.Logger) *Store {
	if log == nil {
		log = logging.NopLogger()
	}
	s := &Store{
		sessions: make(map[string]*model.Session),
		backend:  backend,
		bus:      bus,
		log:      log,
	}
	s.autosaver = NewAutosaver(debounce, s.flushAnswers, log)
	return s
}

// Create asks the backend for a new session and adopts the returned object.
func (s *Store) Create(ctx context.Context, create api.SessionCreate) (*model.Session, error) {
	created, err := s.backend.CreateSession(ctx, create)
	if err != nil {
		return nil, err
	}
	s.adopt(created)
	s.log.Info("session created", "session_id", created.ID, "company", created.CompanyName)
	if s.bus != nil {
		s.bus.Publish(event.NewSessionCreatedEvent(created.Clone()))
	}
	return created.Clone(), nil
}

// Get returns a copy of the cached session, fetching from the backend on a
// cache miss.
func (s *Store) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	s.mu.RLock()
	cached, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	fetched, err := s.backend.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.adopt(fetched)
	return fetched.Clone(), nil
}

// Refresh replaces the cache with the backend's session list and returns
// copies sorted newest first.
func (s *Store) Refresh(ctx context.Context, activeOnly bool) ([]*model.Session, error) {
	listed, err := s.backend.ListSessions(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions = make(map[string]*model.Session, len(listed))
	for _, sess := range listed {
		s.sessions[sess.ID] = sess
	}
	s.mu.Unlock()

	out := make([]*model.Session, len(listed))
	for i, sess := range listed {
		out[i] = sess.Clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })

	if s.bus != nil {
		s.bus.Publish(event.NewSessionsBatchUpdatedEvent(out))
	}
	return out, nil
}

// Update pushes field changes to the backend and adopts the canonical
// result.
func (s *Store) Update(ctx context.Context, sessionID string, update api.SessionUpdate) (*model.Session, error) {
	updated, err := s.backend.UpdateSession(ctx, sessionID, update)
	if err != nil {
		return nil, err
	}
	s.adopt(updated)
	if s.bus != nil {
		s.bus.Publish(event.NewSessionUpdatedEvent(updated.Clone()))
	}
	return updated.Clone(), nil
}

// Delete removes the session remotely and locally. Pending autosaves for it
// are cancelled.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if err := s.backend.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	s.autosaver.Cancel(sessionID)

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.log.Info("session deleted", "session_id", sessionID)
	if s.bus != nil {
		s.bus.Publish(event.NewSessionDeletedEvent(sessionID))
	}
	return nil
}

// SetQuestions replaces the session's question set locally. Answers to
// questions that no longer exist are dropped so answer keys always refer to
// a known question.
func (s *Store) SetQuestions(sessionID string, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, errors.ErrSessionNotFound)
	}

	sess.Questions = questions
	for id := range sess.Answers {
		if !sess.HasQuestion(id) {
			delete(sess.Answers, id)
		}
	}
	touch(sess)
	return nil
}

// AppendQuestions adds newly generated questions to the session, skipping
// ids it already has.
func (s *Store) AppendQuestions(sessionID string, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, errors.ErrSessionNotFound)
	}
	for _, q := range questions {
		if sess.HasQuestion(q.ID) {
			continue
		}
		sess.Questions = append(sess.Questions, q)
	}
	touch(sess)
	return nil
}

// SaveAnswer records an answer locally and schedules a debounced autosave.
// The answer must refer to a question the session actually has.
func (s *Store) SaveAnswer(sessionID, questionID, answer string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session %s: %w", sessionID, errors.ErrSessionNotFound)
	}
	if !sess.HasQuestion(questionID) {
		s.mu.Unlock()
		return fmt.Errorf("question %s in session %s: %w", questionID, sessionID, errors.ErrQuestionNotFound)
	}
	if sess.Answers == nil {
		sess.Answers = make(map[string]string)
	}
	sess.Answers[questionID] = answer
	touch(sess)
	s.mu.Unlock()

	s.autosaver.Schedule(sessionID)
	if s.bus != nil {
		s.bus.Publish(event.NewAnswerSavedEvent(sessionID, questionID, answer))
	}
	return nil
}

// SetGeneratedAnswer attaches an AI-generated sample answer to a question.
// Distinct from SaveAnswer: the user's own answers live in the Answers map,
// generated samples on the question itself.
func (s *Store) SetGeneratedAnswer(sessionID, questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, errors.ErrSessionNotFound)
	}
	for i := range sess.Questions {
		if sess.Questions[i].ID == questionID {
			sess.Questions[i].Answer = answer
			touch(sess)
			return nil
		}
	}
	return fmt.Errorf("question %s in session %s: %w", questionID, sessionID, errors.ErrQuestionNotFound)
}

// Adopt replaces the cached copy with a server-canonical session. Used by
// the realtime path when the backend pushes updated state.
func (s *Store) Adopt(sess *model.Session) {
	if sess == nil || sess.ID == "" {
		return
	}
	s.adopt(sess)
	if s.bus != nil {
		s.bus.Publish(event.NewSessionUpdatedEvent(sess.Clone()))
	}
}

// Flush forces any pending autosave for the session to run now. Used at
// shutdown so the last edits are not lost to the debounce window.
func (s *Store) Flush(ctx context.Context, sessionID string) error {
	s.autosaver.Cancel(sessionID)
	return s.flushAnswers(ctx, sessionID)
}

// Close cancels all pending autosaves after flushing them.
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	for _, id := range s.autosaver.Pending() {
		if err := s.Flush(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	s.autosaver.Stop()
	return errors.Join(errs...)
}

// flushAnswers is the autosave callback: it pushes the session's current
// answers and adopts whatever the server returns.
func (s *Store) flushAnswers(ctx context.Context, sessionID string) error {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.RUnlock()
		return nil
	}
	answers := make(map[string]string, len(sess.Answers))
	for k, v := range sess.Answers {
		answers[k] = v
	}
	s.mu.RUnlock()

	updated, err := s.backend.UpdateAnswers(ctx, sessionID, answers)
	if err != nil {
		s.log.Warn("autosave failed", "session_id", sessionID, "error", err)
		return err
	}
	s.adopt(updated)
	s.log.Debug("answers autosaved", "session_id", sessionID, "count", len(answers))
	return nil
}

func (s *Store) adopt(sess *model.Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()
}

// touch advances UpdatedAt monotonically. Wall clock regressions must not
// make a later edit look older than an earlier one.
func touch(sess *model.Session) {
	now := time.Now().UTC()
	if !now.After(sess.UpdatedAt) {
		now = sess.UpdatedAt.Add(time.Nanosecond)
	}
	sess.UpdatedAt = now
}
