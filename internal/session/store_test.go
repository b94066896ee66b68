package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/model"
)

type fakeBackend struct {
	mu           sync.Mutex
	sessions     map[string]*model.Session
	answerCalls  []map[string]string
	nextID       string
	deleteCalled []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		sessions: make(map[string]*model.Session),
		nextID:   "srv-1",
	}
}

func (f *fakeBackend) CreateSession(ctx context.Context, create api.SessionCreate) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := &model.Session{
		ID:          f.nextID,
		CompanyName: create.CompanyName,
		JobTitle:    create.JobTitle,
		ResumeText:  create.ResumeText,
		Answers:     make(map[string]string),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		IsActive:    true,
	}
	f.sessions[sess.ID] = sess
	return sess.Clone(), nil
}

func (f *fakeBackend) GetSession(ctx context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (f *fakeBackend) ListSessions(ctx context.Context, activeOnly bool) ([]*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Session
	for _, sess := range f.sessions {
		if activeOnly && !sess.IsActive {
			continue
		}
		out = append(out, sess.Clone())
	}
	return out, nil
}

func (f *fakeBackend) UpdateSession(ctx context.Context, id string, update api.SessionUpdate) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	if update.CompanyName != nil {
		sess.CompanyName = *update.CompanyName
	}
	if update.JobTitle != nil {
		sess.JobTitle = *update.JobTitle
	}
	sess.UpdatedAt = time.Now().UTC()
	return sess.Clone(), nil
}

func (f *fakeBackend) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalled = append(f.deleteCalled, id)
	delete(f.sessions, id)
	return nil
}

func (f *fakeBackend) UpdateAnswers(ctx context.Context, id string, answers map[string]string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	f.answerCalls = append(f.answerCalls, copied)

	sess, ok := f.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	sess.Answers = copied
	sess.UpdatedAt = time.Now().UTC()
	return sess.Clone(), nil
}

func (f *fakeBackend) answerCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answerCalls)
}

func (f *fakeBackend) lastAnswerCall() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.answerCalls) == 0 {
		return nil
	}
	return f.answerCalls[len(f.answerCalls)-1]
}

func questions(ids ...string) []model.Question {
	out := make([]model.Question, len(ids))
	for i, id := range ids {
		out[i] = model.Question{ID: id, Question: "q " + id, Type: model.QuestionTechnical}
	}
	return out
}

func newTestStore(t *testing.T, backend *fakeBackend, debounce time.Duration) (*Store, *event.Bus) {
	t.Helper()
	bus := event.NewBus(nil)
	store := NewStore(backend, debounce, bus, nil)
	t.Cleanup(func() { store.Close(context.Background()) })
	return store, bus
}

func createWithQuestions(t *testing.T, store *Store, qs ...string) *model.Session {
	t.Helper()
	sess, err := store.Create(context.Background(), api.SessionCreate{CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.SetQuestions(sess.ID, questions(qs...)); err != nil {
		t.Fatalf("SetQuestions failed: %v", err)
	}
	return sess
}

func TestStore_CreateAdoptsServerObject(t *testing.T) {
	backend := newFakeBackend()
	store, bus := newTestStore(t, backend, time.Hour)

	var created []*model.Session
	bus.Subscribe("session.created", func(e event.Event) {
		created = append(created, e.(event.SessionCreatedEvent).Session)
	})

	sess, err := store.Create(context.Background(), api.SessionCreate{CompanyName: "Acme"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sess.ID != "srv-1" {
		t.Errorf("session id = %q, want server-assigned srv-1", sess.ID)
	}
	if len(created) != 1 {
		t.Errorf("expected 1 session.created event, got %d", len(created))
	}

	got, err := store.Get(context.Background(), "srv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CompanyName != "Acme" {
		t.Errorf("CompanyName = %q, want Acme", got.CompanyName)
	}
}

func TestStore_SaveAnswerUnknownQuestion(t *testing.T) {
	backend := newFakeBackend()
	store, _ := newTestStore(t, backend, time.Hour)
	sess := createWithQuestions(t, store, "q1")

	err := store.SaveAnswer(sess.ID, "nope", "answer")
	if !errors.Is(err, errors.ErrQuestionNotFound) {
		t.Errorf("expected ErrQuestionNotFound, got %v", err)
	}

	err = store.SaveAnswer("missing-session", "q1", "answer")
	if !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_AnswersAlwaysReferToQuestions(t *testing.T) {
	backend := newFakeBackend()
	store, _ := newTestStore(t, backend, time.Hour)
	sess := createWithQuestions(t, store, "q1", "q2", "q3")

	for _, id := range []string{"q1", "q2", "q3"} {
		if err := store.SaveAnswer(sess.ID, id, "answer for "+id); err != nil {
			t.Fatalf("SaveAnswer(%s) failed: %v", id, err)
		}
	}

	// Shrinking the question set drops answers to removed questions.
	if err := store.SetQuestions(sess.ID, questions("q1", "q3")); err != nil {
		t.Fatalf("SetQuestions failed: %v", err)
	}

	got, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Answers) != 2 {
		t.Errorf("answers = %v, want exactly q1 and q3", got.Answers)
	}
	for id := range got.Answers {
		if !got.HasQuestion(id) {
			t.Errorf("answer key %q has no matching question", id)
		}
	}
}

func TestStore_UpdatedAtMonotonic(t *testing.T) {
	backend := newFakeBackend()
	store, _ := newTestStore(t, backend, time.Hour)
	sess := createWithQuestions(t, store, "q1")

	var prev time.Time
	for i := 0; i < 5; i++ {
		if err := store.SaveAnswer(sess.ID, "q1", "rev"); err != nil {
			t.Fatal(err)
		}
		got, err := store.Get(context.Background(), sess.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !got.UpdatedAt.After(prev) {
			t.Fatalf("edit %d: UpdatedAt %v not after %v", i, got.UpdatedAt, prev)
		}
		prev = got.UpdatedAt
	}
}

func TestStore_AutosaveCoalescesEdits(t *testing.T) {
	backend := newFakeBackend()
	store, _ := newTestStore(t, backend, 50*time.Millisecond)
	sess := createWithQuestions(t, store, "q1", "q2")

	// A burst of edits inside the window produces one save with the final
	// state.
	for _, rev := range []string{"draft 1", "draft 2", "final"} {
		if err := store.SaveAnswer(sess.ID, "q1", rev); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := store.SaveAnswer(sess.ID, "q2", "other"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for backend.answerCallCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("autosave never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}
	// Allow a second window to pass to prove no extra saves arrive.
	time.Sleep(100 * time.Millisecond)

	if got := backend.answerCallCount(); got != 1 {
		t.Errorf("autosave fired %d times, want 1", got)
	}
	saved := backend.lastAnswerCall()
	if saved["q1"] != "final" || saved["q2"] != "other" {
		t.Errorf("saved answers = %v, want final state of both edits", saved)
	}
}

func TestStore_FlushSavesImmediately(t *testing.T) {
	backend := newFakeBackend()
	store, _ := newTestStore(t, backend, time.Hour)
	sess := createWithQuestions(t, store, "q1")

	if err := store.SaveAnswer(sess.ID, "q1", "answer"); err != nil {
		t.Fatal(err)
	}
	if got := backend.answerCallCount(); got != 0 {
		t.Fatalf("save fired before flush: %d calls", got)
	}

	if err := store.Flush(context.Background(), sess.ID); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := backend.answerCallCount(); got != 1 {
		t.Errorf("answer calls = %d, want 1 after Flush", got)
	}
}

func TestStore_DeleteCancelsPendingAutosave(t *testing.T) {
	backend := newFakeBackend()
	store, bus := newTestStore(t, backend, 50*time.Millisecond)
	sess := createWithQuestions(t, store, "q1")

	var deleted []string
	bus.Subscribe("session.deleted", func(e event.Event) {
		deleted = append(deleted, e.(event.SessionDeletedEvent).SessionID)
	})

	if err := store.SaveAnswer(sess.ID, "q1", "doomed"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	time.Sleep(120 * time.Millisecond)
	if got := backend.answerCallCount(); got != 0 {
		t.Errorf("autosave fired %d times after delete, want 0", got)
	}
	if len(deleted) != 1 || deleted[0] != sess.ID {
		t.Errorf("session.deleted events = %v, want [%s]", deleted, sess.ID)
	}
}

func TestStore_AdoptReplacesLocalDraft(t *testing.T) {
	backend := newFakeBackend()
	store, _ := newTestStore(t, backend, time.Hour)
	sess := createWithQuestions(t, store, "q1")

	if err := store.SaveAnswer(sess.ID, "q1", "local draft"); err != nil {
		t.Fatal(err)
	}

	canonical := sess.Clone()
	canonical.Questions = questions("q1")
	canonical.Answers = map[string]string{"q1": "server version"}
	canonical.UpdatedAt = time.Now().UTC().Add(time.Minute)
	store.Adopt(canonical)

	got, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Answers["q1"] != "server version" {
		t.Errorf("answer = %q, want the server-canonical copy", got.Answers["q1"])
	}
}

func TestStore_GetFetchesOnMiss(t *testing.T) {
	backend := newFakeBackend()
	backend.sessions["remote-1"] = &model.Session{
		ID:          "remote-1",
		CompanyName: "Elsewhere",
		IsActive:    true,
	}
	store, _ := newTestStore(t, backend, time.Hour)

	got, err := store.Get(context.Background(), "remote-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CompanyName != "Elsewhere" {
		t.Errorf("CompanyName = %q, want Elsewhere", got.CompanyName)
	}

	_, err = store.Get(context.Background(), "no-such")
	if !errors.Is(err, errors.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
