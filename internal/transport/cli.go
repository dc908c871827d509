package transport

import (
	"fmt"
	"strings"

	"github.com/youruser/aide/internal/config"
	"github.com/youruser/aide/internal/prompt"
)

// cliTransport runs the local assistant CLI in one-shot print mode with
// the prompt on stdin.
type cliTransport struct{}

func (cliTransport) Kind() Kind { return KindCLI }

func (cliTransport) Command(cfg *config.Config) []string {
	argv := []string{cfg.CommandPath, "-p", "--output-format", "text"}
	if cfg.Model != "" {
		argv = append(argv, "--model", cfg.Model)
	}
	return argv
}

func (cliTransport) Payload(cfg *config.Config, req prompt.Request) ([]byte, error) {
	return []byte(prompt.Text(req)), nil
}

func (cliTransport) Interpret(exitCode int, stdout, stderr []byte) (string, error) {
	if exitCode != 0 {
		msg := strings.TrimSpace(string(stderr))
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", exitCode)
		}
		return "", fmt.Errorf("%w: %s", ErrExitFailure, msg)
	}

	response := strings.TrimSpace(string(stdout))
	if response == "" {
		return "", ErrEmptyResponse
	}
	return response, nil
}
