package api

import (
	"context"
	"net/http"

	"github.com/prepforge/prepforge/internal/model"
)

// questionGenerationRequest is the backend's generate-questions body.
type questionGenerationRequest struct {
	ResumeText       string               `json:"resume_text,omitempty"`
	JobDescription   string               `json:"job_description,omitempty"`
	Mode             model.GenerationMode `json:"mode"`
	QuestionCount    int                  `json:"question_count"`
	IncludeAnswers   bool                 `json:"include_answers"`
	QuestionTypes    []model.QuestionType `json:"question_types,omitempty"`
	DifficultyLevels []model.Difficulty   `json:"difficulty_levels,omitempty"`
}

// QuestionGenerationResult is the backend's generate-questions response.
type QuestionGenerationResult struct {
	Questions      []model.Question `json:"questions"`
	GenerationTime float64          `json:"generation_time"`
	TotalQuestions int              `json:"total_questions"`
}

// GenerateQuestions runs question generation synchronously over REST.
func (c *Client) GenerateQuestions(ctx context.Context, req model.GenerationRequest) (*QuestionGenerationResult, error) {
	body := questionGenerationRequest{
		ResumeText:       req.ResumeText,
		JobDescription:   req.JobDescription,
		Mode:             req.Mode,
		QuestionCount:    req.Count,
		IncludeAnswers:   req.IncludeAnswers,
		QuestionTypes:    req.Types,
		DifficultyLevels: req.Difficulties,
	}
	var result QuestionGenerationResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/interview/generate-questions", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// answerGenerationRequest is the backend's generate-answer body.
type answerGenerationRequest struct {
	Question       string `json:"question"`
	ResumeText     string `json:"resume_text,omitempty"`
	JobDescription string `json:"job_description,omitempty"`
}

// AnswerGenerationResult is the backend's generate-answer response.
type AnswerGenerationResult struct {
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	GenerationTime float64 `json:"generation_time"`
}

// GenerateAnswer generates a sample answer for one question over REST.
func (c *Client) GenerateAnswer(ctx context.Context, question, resumeText, jobDescription string) (*AnswerGenerationResult, error) {
	body := answerGenerationRequest{
		Question:       question,
		ResumeText:     resumeText,
		JobDescription: jobDescription,
	}
	var result AnswerGenerationResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/interview/generate-answer", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// bulkAnswerRequest is the backend's generate-bulk-answers body.
type bulkAnswerRequest struct {
	Questions      []string `json:"questions"`
	ResumeText     string   `json:"resume_text,omitempty"`
	JobDescription string   `json:"job_description,omitempty"`
	AnswerStyle    string   `json:"answer_style,omitempty"`
}

// BulkAnswerResult is the backend's generate-bulk-answers response.
type BulkAnswerResult struct {
	Answers        map[string]string `json:"answers"`
	GenerationTime float64           `json:"generation_time"`
	TotalAnswers   int               `json:"total_answers"`
}

// GenerateBulkAnswers generates sample answers for several questions at
// once. The backend exposes this on REST only; there is no realtime frame.
func (c *Client) GenerateBulkAnswers(ctx context.Context, questions []string, resumeText, jobDescription string) (*BulkAnswerResult, error) {
	body := bulkAnswerRequest{
		Questions:      questions,
		ResumeText:     resumeText,
		JobDescription: jobDescription,
	}
	var result BulkAnswerResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/interview/generate-bulk-answers", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// pdfExportRequest is the backend's export-pdf body.
type pdfExportRequest struct {
	Questions      []model.Question  `json:"questions"`
	Answers        map[string]string `json:"answers"`
	ResumeFilename string            `json:"resume_filename,omitempty"`
	JobTitle       string            `json:"job_title,omitempty"`
}

// PDFExportResult is the backend's export-pdf response.
type PDFExportResult struct {
	Filename       string  `json:"filename"`
	DownloadURL    string  `json:"download_url"`
	FileSize       int64   `json:"file_size"`
	GenerationTime float64 `json:"generation_time"`
}

// ExportPDF asks the backend to render a session's questions and answers to
// a PDF and returns where to fetch it.
func (c *Client) ExportPDF(ctx context.Context, questions []model.Question, answers map[string]string, resumeFilename, jobTitle string) (*PDFExportResult, error) {
	body := pdfExportRequest{
		Questions:      questions,
		Answers:        answers,
		ResumeFilename: resumeFilename,
		JobTitle:       jobTitle,
	}
	var result PDFExportResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/interview/export-pdf", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
