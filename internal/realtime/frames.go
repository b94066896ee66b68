package realtime

import "encoding/json"

// Outbound frame types.
const (
	FrameGenerateQuestions = "generate_questions"
	FrameSaveAnswer        = "save_answer"
	FrameGenerateAnswer    = "generate_answer"
	FramePing              = "ping"
)

// Inbound frame types. Anything outside this set is ignored.
const (
	FrameProgressUpdate     = "progress_update"
	FrameQuestionsGenerated = "questions_generated"
	FrameAnswerSaved        = "answer_saved"
	FrameAnswerGenerated    = "answer_generated"
	FrameError              = "error"
	FramePong               = "pong"
)

// outboundFrame is the wire shape of a client-to-backend message.
type outboundFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// Frame is a decoded backend-to-client message. Data is left raw so each
// handler unmarshals only the payload it understands.
type Frame struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}
