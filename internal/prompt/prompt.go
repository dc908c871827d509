// Package prompt builds outbound payloads from user text and editing
// context. Everything here is pure: no state, no side effects.
package prompt

import (
	"encoding/json"
	"strings"

	"github.com/youruser/aide/internal/config"
)

// Context is the editing-context snapshot the host supplies at send time.
// Absent fields are simply omitted from the assembled prompt.
type Context struct {
	FileContent string `json:"file_content,omitempty"`
	Selection   string `json:"selection,omitempty"`
	ErrorText   string `json:"error_text,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Request is one assembled exchange awaiting transport-specific encoding.
type Request struct {
	System  string
	Text    string // trimmed user input
	Context Context
}

// Body folds the context blocks and the user text into a single prompt
// body, in fixed order: file content, selection, error text, user text.
func Body(req Request) string {
	var b strings.Builder

	if req.Context.FileContent != "" {
		b.WriteString("Current file")
		if req.Context.Language != "" {
			b.WriteString(" (")
			b.WriteString(req.Context.Language)
			b.WriteString(")")
		}
		b.WriteString(":\n```")
		b.WriteString(req.Context.Language)
		b.WriteString("\n")
		b.WriteString(req.Context.FileContent)
		if !strings.HasSuffix(req.Context.FileContent, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if req.Context.Selection != "" {
		b.WriteString("Selected text:\n```\n")
		b.WriteString(req.Context.Selection)
		if !strings.HasSuffix(req.Context.Selection, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}

	if req.Context.ErrorText != "" {
		b.WriteString("Error:\n")
		b.WriteString(req.Context.ErrorText)
		b.WriteString("\n\n")
	}

	b.WriteString(req.Text)
	return b.String()
}

// Text renders the complete single-blob prompt for the CLI transport,
// system preamble included.
func Text(req Request) string {
	body := Body(req)
	if req.System == "" {
		return body
	}
	return req.System + "\n\n" + body
}

// Message is one entry of the API request's messages array.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIRequest is the fixed wire shape of the messages endpoint.
type APIRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
}

// APIBody renders the structured JSON payload for the API transport.
func APIBody(cfg *config.Config, req Request) ([]byte, error) {
	return json.Marshal(APIRequest{
		Model:       cfg.Model,
		MaxTokens:   *cfg.MaxTokens,
		Temperature: *cfg.Temperature,
		System:      req.System,
		Messages:    []Message{{Role: "user", Content: Body(req)}},
	})
}
