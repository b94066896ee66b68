// Package event defines the typed events that decouple the prepforge core
// from its presentation surfaces. Components publish to a Bus; subscribers
// receive concrete event structs rather than stringly-typed payloads.
package event

import (
	"time"

	"github.com/prepforge/prepforge/internal/model"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "session.created", "answer.saved")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// -----------------------------------------------------------------------------
// Generation Events
// -----------------------------------------------------------------------------

// QuestionsGeneratedEvent is emitted when a generation completes, whether it
// was serviced by the realtime channel or the fallback path.
type QuestionsGeneratedEvent struct {
	baseEvent
	SessionID string
	Questions []model.Question
}

// NewQuestionsGeneratedEvent creates a QuestionsGeneratedEvent.
func NewQuestionsGeneratedEvent(sessionID string, questions []model.Question) QuestionsGeneratedEvent {
	return QuestionsGeneratedEvent{
		baseEvent: newBaseEvent("questions.generated"),
		SessionID: sessionID,
		Questions: questions,
	}
}

// AnswerSavedEvent is emitted when an answer has been persisted, on either
// transport path.
type AnswerSavedEvent struct {
	baseEvent
	SessionID  string
	QuestionID string
	Answer     string
}

// NewAnswerSavedEvent creates an AnswerSavedEvent.
func NewAnswerSavedEvent(sessionID, questionID, answer string) AnswerSavedEvent {
	return AnswerSavedEvent{
		baseEvent:  newBaseEvent("answer.saved"),
		SessionID:  sessionID,
		QuestionID: questionID,
		Answer:     answer,
	}
}

// AnswerGeneratedEvent is emitted when an AI-generated sample answer arrives.
type AnswerGeneratedEvent struct {
	baseEvent
	SessionID  string
	QuestionID string
	Question   string
	Answer     string
}

// NewAnswerGeneratedEvent creates an AnswerGeneratedEvent.
func NewAnswerGeneratedEvent(sessionID, questionID, question, answer string) AnswerGeneratedEvent {
	return AnswerGeneratedEvent{
		baseEvent:  newBaseEvent("answer.generated"),
		SessionID:  sessionID,
		QuestionID: questionID,
		Question:   question,
		Answer:     answer,
	}
}

// ProgressEvent carries an in-flight generation progress update.
type ProgressEvent struct {
	baseEvent
	Update model.ProgressUpdate
}

// NewProgressEvent creates a ProgressEvent.
func NewProgressEvent(update model.ProgressUpdate) ProgressEvent {
	return ProgressEvent{
		baseEvent: newBaseEvent("progress.updated"),
		Update:    update,
	}
}

// -----------------------------------------------------------------------------
// Session Lifecycle Events
// -----------------------------------------------------------------------------

// SessionCreatedEvent is emitted when a session is created in the store.
type SessionCreatedEvent struct {
	baseEvent
	Session *model.Session
}

// NewSessionCreatedEvent creates a SessionCreatedEvent.
func NewSessionCreatedEvent(s *model.Session) SessionCreatedEvent {
	return SessionCreatedEvent{baseEvent: newBaseEvent("session.created"), Session: s}
}

// SessionUpdatedEvent is emitted when a session is mutated in the store.
type SessionUpdatedEvent struct {
	baseEvent
	Session *model.Session
}

// NewSessionUpdatedEvent creates a SessionUpdatedEvent.
func NewSessionUpdatedEvent(s *model.Session) SessionUpdatedEvent {
	return SessionUpdatedEvent{baseEvent: newBaseEvent("session.updated"), Session: s}
}

// SessionDeletedEvent is emitted when a session is removed from the store.
type SessionDeletedEvent struct {
	baseEvent
	SessionID string
}

// NewSessionDeletedEvent creates a SessionDeletedEvent.
func NewSessionDeletedEvent(sessionID string) SessionDeletedEvent {
	return SessionDeletedEvent{baseEvent: newBaseEvent("session.deleted"), SessionID: sessionID}
}

// SessionsBatchUpdatedEvent is emitted when the store replaces its whole
// collection, e.g. after listing sessions from the backend.
type SessionsBatchUpdatedEvent struct {
	baseEvent
	Sessions []*model.Session
}

// NewSessionsBatchUpdatedEvent creates a SessionsBatchUpdatedEvent.
func NewSessionsBatchUpdatedEvent(sessions []*model.Session) SessionsBatchUpdatedEvent {
	return SessionsBatchUpdatedEvent{baseEvent: newBaseEvent("sessions.batch_updated"), Sessions: sessions}
}

// -----------------------------------------------------------------------------
// Connection Events
// -----------------------------------------------------------------------------

// ConnectionStateEvent is emitted when the realtime channel changes state.
type ConnectionStateEvent struct {
	baseEvent
	Previous model.ConnectionState
	Current  model.ConnectionState
}

// NewConnectionStateEvent creates a ConnectionStateEvent.
func NewConnectionStateEvent(previous, current model.ConnectionState) ConnectionStateEvent {
	return ConnectionStateEvent{
		baseEvent: newBaseEvent("connection.state_changed"),
		Previous:  previous,
		Current:   current,
	}
}

// -----------------------------------------------------------------------------
// Quota Events
// -----------------------------------------------------------------------------

// QuotaDeniedEvent is emitted when the admission check blocks an operation.
// Consumers use it to drive sign-up or upgrade prompts.
type QuotaDeniedEvent struct {
	baseEvent
	Operation     string
	Requested     int
	Remaining     int
	Authenticated bool
}

// NewQuotaDeniedEvent creates a QuotaDeniedEvent.
func NewQuotaDeniedEvent(operation string, requested, remaining int, authenticated bool) QuotaDeniedEvent {
	return QuotaDeniedEvent{
		baseEvent:     newBaseEvent("quota.denied"),
		Operation:     operation,
		Requested:     requested,
		Remaining:     remaining,
		Authenticated: authenticated,
	}
}
