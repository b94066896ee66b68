// Package generate is the transport multiplexer: every generation operation
// goes over the realtime channel when it is open and falls back to the REST
// API otherwise. Both paths converge on the same completion code, so
// subscribers cannot tell which transport serviced a request.
package generate

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/logging"
	"github.com/prepforge/prepforge/internal/model"
	"github.com/prepforge/prepforge/internal/progress"
	"github.com/prepforge/prepforge/internal/quota"
	"github.com/prepforge/prepforge/internal/realtime"
)

// Transport is the realtime channel seam.
type Transport interface {
	Connected() bool
	Send(frameType, requestID string, data any) bool
	Handle(frameType string, h realtime.Handler)
}

// Fallback is the REST surface the multiplexer falls back to.
type Fallback interface {
	GenerateQuestions(ctx context.Context, req model.GenerationRequest) (*api.QuestionGenerationResult, error)
	GenerateAnswer(ctx context.Context, question, resumeText, jobDescription string) (*api.AnswerGenerationResult, error)
	GenerateBulkAnswers(ctx context.Context, questions []string, resumeText, jobDescription string) (*api.BulkAnswerResult, error)
	AddQuestions(ctx context.Context, sessionID string, questions []model.Question) (*model.Session, error)
}

// Admission gates operations before dispatch and charges them on success.
type Admission interface {
	CanPerform(ctx context.Context, op string, n int) error
	RecordUsage(ctx context.Context, op string, n int) error
}

// SessionStore is the slice of the session cache the multiplexer mutates.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	AppendQuestions(sessionID string, questions []model.Question) error
	SaveAnswer(sessionID, questionID, answer string) error
	SetGeneratedAnswer(sessionID, questionID, answer string) error
	Adopt(sess *model.Session)
	Flush(ctx context.Context, sessionID string) error
}

// Client multiplexes generation operations across transports.
type Client struct {
	conn     Transport
	fallback Fallback
	gate     Admission
	store    SessionStore
	tracker  *progress.Tracker
	bus      *event.Bus
	log      *logging.Logger
}

// NewClient wires the multiplexer and registers its inbound frame handlers
// on the transport.
func NewClient(conn Transport, fallback Fallback, gate Admission, store SessionStore, tracker *progress.Tracker, bus *event.Bus, log *logging.Logger) *Client {
	if log == nil {
		log = logging.NopLogger()
	}
	c := &Client{
		conn:     conn,
		fallback: fallback,
		gate:     gate,
		store:    store,
		tracker:  tracker,
		bus:      bus,
		log:      log,
	}
	if conn != nil {
		conn.Handle(realtime.FrameProgressUpdate, c.onProgress)
		conn.Handle(realtime.FrameQuestionsGenerated, c.onQuestionsGenerated)
		conn.Handle(realtime.FrameAnswerSaved, c.onAnswerSaved)
		conn.Handle(realtime.FrameAnswerGenerated, c.onAnswerGenerated)
		conn.Handle(realtime.FrameError, c.onError)
	}
	return c
}

// Result reports how an operation was serviced. Dispatched operations
// complete later through inbound events; synchronous ones are done when the
// call returns.
type Result struct {
	Dispatched bool
	RequestID  string
}

// GenerateQuestions requests req.Count new questions for the session. The
// admission gate runs first; a denial leaves the backend untouched.
func (c *Client) GenerateQuestions(ctx context.Context, req model.GenerationRequest) (*Result, error) {
	if err := c.gate.CanPerform(ctx, quota.OpGenerateQuestions, req.Count); err != nil {
		return nil, err
	}

	c.tracker.Update(model.ProgressUpdate{
		SessionID: req.SessionID,
		Stage:     model.StageQueued,
		Message:   "queued",
	})

	if c.conn != nil && c.conn.Connected() {
		requestID := uuid.NewString()
		payload := map[string]any{
			"mode":              req.Mode,
			"resume_text":       req.ResumeText,
			"job_description":   req.JobDescription,
			"question_count":    req.Count,
			"include_answers":   req.IncludeAnswers,
			"question_types":    req.Types,
			"difficulty_levels": req.Difficulties,
		}
		if c.conn.Send(realtime.FrameGenerateQuestions, requestID, payload) {
			c.log.Debug("generation dispatched", "session_id", req.SessionID, "request_id", requestID)
			return &Result{Dispatched: true, RequestID: requestID}, nil
		}
	}

	result, err := c.fallback.GenerateQuestions(ctx, req)
	if err != nil {
		c.failProgress(req.SessionID, err)
		return nil, err
	}
	// The fallback endpoint only generates; the session record is updated
	// in a second call, then the canonical copy is adopted.
	if updated, err := c.fallback.AddQuestions(ctx, req.SessionID, result.Questions); err != nil {
		c.log.Warn("generated questions not persisted", "session_id", req.SessionID, "error", err)
	} else {
		c.store.Adopt(updated)
	}
	c.completeQuestions(ctx, req.SessionID, result.Questions)
	return &Result{Dispatched: false}, nil
}

// SaveAnswer records the user's answer. The local mutation and answer.saved
// event happen first on either path; an open channel then notifies the
// backend with a frame, otherwise the answers endpoint is called
// synchronously so the answer is persisted before the call returns.
func (c *Client) SaveAnswer(ctx context.Context, sessionID, questionID, answer string) (*Result, error) {
	if err := c.store.SaveAnswer(sessionID, questionID, answer); err != nil {
		return nil, err
	}
	if c.conn != nil && c.conn.Connected() {
		requestID := uuid.NewString()
		payload := map[string]any{"question_id": questionID, "answer": answer}
		if c.conn.Send(realtime.FrameSaveAnswer, requestID, payload) {
			return &Result{Dispatched: true, RequestID: requestID}, nil
		}
	}
	if err := c.store.Flush(ctx, sessionID); err != nil {
		return nil, err
	}
	return &Result{Dispatched: false}, nil
}

// GenerateAnswer requests an AI-generated sample answer for one question.
func (c *Client) GenerateAnswer(ctx context.Context, sessionID, questionID string) (*Result, error) {
	if err := c.gate.CanPerform(ctx, quota.OpGenerateAnswer, 1); err != nil {
		return nil, err
	}

	sess, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var question string
	for _, q := range sess.Questions {
		if q.ID == questionID {
			question = q.Question
			break
		}
	}
	if question == "" {
		return nil, errors.ErrQuestionNotFound
	}

	if c.conn != nil && c.conn.Connected() {
		requestID := uuid.NewString()
		payload := map[string]any{"question_id": questionID, "question": question}
		if c.conn.Send(realtime.FrameGenerateAnswer, requestID, payload) {
			return &Result{Dispatched: true, RequestID: requestID}, nil
		}
	}

	result, err := c.fallback.GenerateAnswer(ctx, question, sess.ResumeText, sess.JobDescription)
	if err != nil {
		return nil, err
	}
	c.completeAnswer(ctx, sessionID, questionID, question, result.Answer)
	return &Result{Dispatched: false}, nil
}

// GenerateBulkAnswers generates sample answers for every unanswered
// question. The original backend exposes this on REST only, so it never
// touches the realtime channel.
func (c *Client) GenerateBulkAnswers(ctx context.Context, sessionID string) (map[string]string, error) {
	sess, err := c.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var pending []model.Question
	for _, q := range sess.Questions {
		if q.Answer == "" {
			pending = append(pending, q)
		}
	}
	if len(pending) == 0 {
		return map[string]string{}, nil
	}
	if err := c.gate.CanPerform(ctx, quota.OpGenerateAnswer, len(pending)); err != nil {
		return nil, err
	}

	texts := make([]string, len(pending))
	for i, q := range pending {
		texts[i] = q.Question
	}
	result, err := c.fallback.GenerateBulkAnswers(ctx, texts, sess.ResumeText, sess.JobDescription)
	if err != nil {
		return nil, err
	}

	generated := make(map[string]string, len(result.Answers))
	for _, q := range pending {
		answer, ok := result.Answers[q.Question]
		if !ok {
			continue
		}
		generated[q.ID] = answer
		c.completeAnswer(ctx, sessionID, q.ID, q.Question, answer)
	}
	return generated, nil
}

// completeQuestions is the single downstream path for a finished question
// generation, shared by the realtime handler and the fallback.
func (c *Client) completeQuestions(ctx context.Context, sessionID string, questions []model.Question) {
	if err := c.store.AppendQuestions(sessionID, questions); err != nil {
		c.log.Warn("could not attach generated questions", "session_id", sessionID, "error", err)
	}
	c.tracker.Update(model.ProgressUpdate{
		SessionID: sessionID,
		Stage:     model.StageCompleted,
		Percent:   100,
		Message:   "completed",
	})
	if c.bus != nil {
		c.bus.Publish(event.NewQuestionsGeneratedEvent(sessionID, questions))
	}
	if err := c.gate.RecordUsage(ctx, quota.OpGenerateQuestions, len(questions)); err != nil {
		c.log.Warn("usage not recorded", "session_id", sessionID, "error", err)
	}
}

// completeAnswer is the single downstream path for a finished answer
// generation.
func (c *Client) completeAnswer(ctx context.Context, sessionID, questionID, question, answer string) {
	if err := c.store.SetGeneratedAnswer(sessionID, questionID, answer); err != nil {
		c.log.Warn("could not attach generated answer", "session_id", sessionID, "error", err)
	}
	if c.bus != nil {
		c.bus.Publish(event.NewAnswerGeneratedEvent(sessionID, questionID, question, answer))
	}
	if err := c.gate.RecordUsage(ctx, quota.OpGenerateAnswer, 1); err != nil {
		c.log.Warn("usage not recorded", "session_id", sessionID, "error", err)
	}
}

func (c *Client) failProgress(sessionID string, err error) {
	c.tracker.Update(model.ProgressUpdate{
		SessionID: sessionID,
		Stage:     model.StageError,
		Message:   errors.UserMessage(err),
	})
}

// -----------------------------------------------------------------------------
// Inbound frame handlers
// -----------------------------------------------------------------------------

func (c *Client) onProgress(f realtime.Frame) {
	var data struct {
		Stage    model.Stage `json:"stage"`
		Progress int         `json:"progress"`
		Message  string      `json:"message"`
	}
	if err := json.Unmarshal(f.Data, &data); err != nil {
		c.log.Debug("ignoring malformed progress frame", "error", err)
		return
	}
	c.tracker.Update(model.ProgressUpdate{
		SessionID: f.SessionID,
		Stage:     data.Stage,
		Percent:   data.Progress,
		Message:   data.Message,
	})
}

func (c *Client) onQuestionsGenerated(f realtime.Frame) {
	var data struct {
		Questions []model.Question `json:"questions"`
	}
	if err := json.Unmarshal(f.Data, &data); err != nil {
		c.log.Debug("ignoring malformed questions frame", "error", err)
		return
	}
	c.completeQuestions(context.Background(), f.SessionID, data.Questions)
}

func (c *Client) onAnswerSaved(f realtime.Frame) {
	var data struct {
		QuestionID string `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := json.Unmarshal(f.Data, &data); err != nil {
		c.log.Debug("ignoring malformed answer-saved frame", "error", err)
		return
	}
	// The local mutation and event already happened optimistically at save
	// time; the backend's confirmation is only logged.
	c.log.Debug("answer persisted by backend", "session_id", f.SessionID, "question_id", data.QuestionID)
}

func (c *Client) onAnswerGenerated(f realtime.Frame) {
	var data struct {
		QuestionID string `json:"question_id"`
		Question   string `json:"question"`
		Answer     string `json:"answer"`
	}
	if err := json.Unmarshal(f.Data, &data); err != nil {
		c.log.Debug("ignoring malformed answer frame", "error", err)
		return
	}
	c.completeAnswer(context.Background(), f.SessionID, data.QuestionID, data.Question, data.Answer)
}

func (c *Client) onError(f realtime.Frame) {
	var data struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(f.Data, &data); err != nil {
		c.log.Debug("ignoring malformed error frame", "error", err)
		return
	}
	detail := data.Detail
	if detail == "" {
		detail = data.Message
	}
	c.log.Warn("backend reported generation error", "session_id", f.SessionID, "detail", detail)
	c.tracker.Update(model.ProgressUpdate{
		SessionID: f.SessionID,
		Stage:     model.StageError,
		Message:   detail,
	})
}
