// Package model defines the domain types shared across the prepforge
// client: sessions, questions, progress updates, and generation requests.
// Wire shapes (JSON tags) follow the generation backend's contract.
package model

import "time"

// QuestionType categorizes a generated interview question.
type QuestionType string

const (
	QuestionTechnical  QuestionType = "technical"
	QuestionBehavioral QuestionType = "behavioral"
	QuestionExperience QuestionType = "experience"
)

// Difficulty grades a generated question.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// GenerationMode selects which inputs drive question generation.
type GenerationMode string

const (
	ModeResume         GenerationMode = "resume"
	ModeJobDescription GenerationMode = "jd"
	ModeCombined       GenerationMode = "combined"
)

// Question is a single generated interview question.
type Question struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Type           QuestionType `json:"type"`
	Difficulty     Difficulty   `json:"difficulty"`
	RelevanceScore float64      `json:"relevance_score"`
	Answer         string       `json:"answer,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Session is one interview-prep session: the inputs, the generated
// questions, and the user's answers keyed by question id.
//
// Invariants maintained by the session store:
//   - Answers keys are always a subset of the question ids.
//   - UpdatedAt is monotonically non-decreasing across mutations.
type Session struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id,omitempty"`
	CompanyName    string            `json:"company_name"`
	JobTitle       string            `json:"job_title"`
	ResumeText     string            `json:"resume_text"`
	JobDescription string            `json:"job_description"`
	Questions      []Question        `json:"questions"`
	Answers        map[string]string `json:"answers"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	IsActive       bool              `json:"is_active"`
}

// HasQuestion reports whether the session contains a question with the id.
func (s *Session) HasQuestion(questionID string) bool {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session so callers can hand it out
// without exposing internal state to mutation.
func (s *Session) Clone() *Session {
	c := *s
	c.Questions = make([]Question, len(s.Questions))
	copy(c.Questions, s.Questions)
	c.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	return &c
}

// Stage identifies a phase of an in-flight generation.
type Stage string

const (
	StageQueued     Stage = "queued"
	StageAnalyzing  Stage = "analyzing"
	StageGenerating Stage = "generating"
	StageFinalizing Stage = "finalizing"
	StageCompleted  Stage = "completed"
	StageError      Stage = "error"
)

// Terminal reports whether the stage ends a generation.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageError
}

// ProgressUpdate is an in-flight generation notification. At most one is
// retained per session; newer updates overwrite older ones.
type ProgressUpdate struct {
	SessionID string `json:"session_id"`
	Stage     Stage  `json:"stage"`
	Percent   int    `json:"progress"`
	Message   string `json:"message"`
}

// GenerationRequest describes one question-generation call.
type GenerationRequest struct {
	SessionID      string         `json:"session_id"`
	Mode           GenerationMode `json:"mode"`
	ResumeText     string         `json:"resume_text,omitempty"`
	JobDescription string         `json:"job_description,omitempty"`
	Count          int            `json:"question_count"`
	IncludeAnswers bool           `json:"include_answers"`
	Types          []QuestionType `json:"question_types,omitempty"`
	Difficulties   []Difficulty   `json:"difficulty_levels,omitempty"`
}

// ConnectionState is the realtime channel's lifecycle state.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateReconnecting ConnectionState = "reconnecting"
	StateError        ConnectionState = "error"
)
