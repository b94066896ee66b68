package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/prepforge/prepforge/internal/model"
)

// sessionEnvelope wraps a single session in backend responses.
type sessionEnvelope struct {
	Session *model.Session `json:"session"`
}

// sessionListEnvelope wraps a session collection in backend responses.
type sessionListEnvelope struct {
	Sessions      []*model.Session `json:"sessions"`
	TotalSessions int              `json:"total_sessions"`
}

// SessionCreate is the payload for creating a session.
type SessionCreate struct {
	CompanyName    string `json:"company_name"`
	JobTitle       string `json:"job_title"`
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
}

// SessionUpdate is the payload for updating session metadata. Nil fields
// are left unchanged by the backend.
type SessionUpdate struct {
	CompanyName    *string `json:"company_name,omitempty"`
	JobTitle       *string `json:"job_title,omitempty"`
	ResumeText     *string `json:"resume_text,omitempty"`
	JobDescription *string `json:"job_description,omitempty"`
	IsActive       *bool   `json:"is_active,omitempty"`
}

// CreateSession creates a session remotely and returns the canonical object
// with server-assigned id and timestamps.
func (c *Client) CreateSession(ctx context.Context, create SessionCreate) (*model.Session, error) {
	var envelope sessionEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions/", create, &envelope); err != nil {
		return nil, err
	}
	return envelope.Session, nil
}

// GetSession fetches one session by id.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var envelope sessionEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+sessionID, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Session, nil
}

// ListSessions fetches the user's sessions. When activeOnly is true,
// soft-deleted sessions are excluded.
func (c *Client) ListSessions(ctx context.Context, activeOnly bool) ([]*model.Session, error) {
	path := "/api/sessions/?active_only=false"
	if activeOnly {
		path = "/api/sessions/?active_only=true"
	}
	var envelope sessionListEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Sessions, nil
}

// UpdateSession applies a metadata update and returns the canonical object.
func (c *Client) UpdateSession(ctx context.Context, sessionID string, update SessionUpdate) (*model.Session, error) {
	var envelope sessionEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/api/sessions/"+sessionID, update, &envelope); err != nil {
		return nil, err
	}
	return envelope.Session, nil
}

// DeleteSession soft-deletes a session (marks it inactive).
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/sessions/"+sessionID, nil, nil)
}

// AddQuestions appends generated questions to a session and returns the
// canonical object.
func (c *Client) AddQuestions(ctx context.Context, sessionID string, questions []model.Question) (*model.Session, error) {
	var envelope sessionEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/questions", questions, &envelope); err != nil {
		return nil, err
	}
	return envelope.Session, nil
}

// UpdateAnswers replaces the session's answer map and returns the canonical
// object. This is the autosave persistence call.
func (c *Client) UpdateAnswers(ctx context.Context, sessionID string, answers map[string]string) (*model.Session, error) {
	var envelope sessionEnvelope
	if err := c.doJSON(ctx, http.MethodPut, "/api/sessions/"+sessionID+"/answers", answers, &envelope); err != nil {
		return nil, err
	}
	return envelope.Session, nil
}

// SearchSessions searches sessions by company name or job title.
func (c *Client) SearchSessions(ctx context.Context, query string) ([]*model.Session, error) {
	path := "/api/sessions/search/?q=" + url.QueryEscape(query)
	var envelope sessionListEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Sessions, nil
}

// SessionStats summarizes answering progress for one session.
type SessionStats struct {
	TotalQuestions    int     `json:"total_questions"`
	AnsweredQuestions int     `json:"answered_questions"`
	CompletionPercent float64 `json:"completion_percent"`
}

// GetSessionStats fetches answering statistics for a session.
func (c *Client) GetSessionStats(ctx context.Context, sessionID string) (*SessionStats, error) {
	var stats SessionStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+sessionID+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
