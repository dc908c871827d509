package transport

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/youruser/aide/internal/config"
	"github.com/youruser/aide/internal/prompt"
)

const anthropicVersion = "2023-06-01"

// apiTransport reaches the HTTP messages endpoint through a curl
// subprocess. curl is invoked without --fail so that HTTP-level errors
// still exit 0 and surface as an error object in the response body.
type apiTransport struct{}

func (apiTransport) Kind() Kind { return KindAPI }

func (apiTransport) Command(cfg *config.Config) []string {
	return []string{
		cfg.CurlPath,
		"-s",
		"--max-time", strconv.Itoa(*cfg.TimeoutSeconds),
		"-X", "POST",
		cfg.BaseURL + "/v1/messages",
		"-H", "content-type: application/json",
		"-H", "x-api-key: " + cfg.APIKey,
		"-H", "anthropic-version: " + anthropicVersion,
		"--data-binary", "@-",
	}
}

func (apiTransport) Payload(cfg *config.Config, req prompt.Request) ([]byte, error) {
	return prompt.APIBody(cfg, req)
}

// apiResponse is the fixed wire shape of the messages endpoint response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (apiTransport) Interpret(exitCode int, stdout, stderr []byte) (string, error) {
	if exitCode != 0 {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", exitCode)
		}
		return "", fmt.Errorf("%w: %s", ErrExitFailure, msg)
	}

	body := strings.TrimSpace(string(stdout))
	if body == "" {
		return "", ErrEmptyResponse
	}

	var resp apiResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadJSON, err)
	}

	if resp.Error != nil {
		msg := resp.Error.Message
		if msg == "" {
			msg = resp.Error.Type
		}
		return "", fmt.Errorf("%w: %s", ErrAPI, msg)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" || block.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(block.Text)
	}

	response := strings.TrimSpace(b.String())
	if response == "" {
		return "", ErrEmptyResponse
	}
	return response, nil
}
