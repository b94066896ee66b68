// Package api implements the REST client for the generation backend. It
// serves as the synchronous fallback transport when the realtime channel is
// unavailable, and as the only transport for session persistence, auth, and
// credit operations.
//
// The backend owns all JSON shapes; this package mirrors them. Failures are
// converted to the client error taxonomy: a non-success response becomes a
// RemoteError carrying the server's detail message verbatim.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/logging"
)

// TokenSource supplies the current bearer token, or "" when anonymous.
type TokenSource func() string

// Client is the REST client for the generation backend.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
	log     *logging.Logger
}

// NewClient creates a Client for the backend at baseURL. A nil token source
// makes all requests anonymously; a nil logger discards diagnostics.
func NewClient(baseURL string, token TokenSource, log *logging.Logger) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	if log == nil {
		log = logging.NopLogger()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		token:   token,
		log:     log,
	}
}

// errorEnvelope is the backend's error response shape.
type errorEnvelope struct {
	Detail string `json:"detail"`
}

// doJSON issues a request with a JSON body (nil for none) and decodes the
// response into out (nil to discard). Non-2xx responses are returned as
// RemoteError with the server detail verbatim.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// remoteError drains the response body into a RemoteError. When the body is
// not the expected envelope the raw status is used instead of a message.
func (c *Client) remoteError(path string, resp *http.Response) error {
	var envelope errorEnvelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Detail == "" {
		c.log.Debug("non-envelope error response", "path", path, "status", resp.StatusCode)
		return errors.NewRemoteError(path, resp.StatusCode, "")
	}
	return errors.NewRemoteError(path, resp.StatusCode, envelope.Detail)
}

// Health checks the backend health endpoint. Used by the availability
// prober; the context carries the probe's deadline.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/interview/health", nil, nil)
}

// FileUploadResult is the backend's response to a document upload.
type FileUploadResult struct {
	Filename       string  `json:"filename"`
	FileSize       int64   `json:"file_size"`
	Content        string  `json:"content"`
	WordCount      int     `json:"word_count"`
	CharacterCount int     `json:"character_count"`
	ProcessingTime float64 `json:"processing_time"`
}

// UploadFile sends a document (PDF, DOCX, or TXT) for text extraction.
func (c *Client) UploadFile(ctx context.Context, filename string, content io.Reader) (*FileUploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	path := "/api/interview/upload-file"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.remoteError(path, resp)
	}

	var result FileUploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return &result, nil
}
