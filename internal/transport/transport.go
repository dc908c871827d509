// Package transport runs prompts through one of two delivery mechanisms:
// a one-shot invocation of the local CLI assistant, or the HTTP API
// reached through a curl subprocess. Both are subprocesses; the package
// supervises them and interprets their outcomes.
package transport

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/youruser/aide/internal/config"
	"github.com/youruser/aide/internal/prompt"
)

var (
	ErrSpawnFailed   = errors.New("failed to start process")
	ErrNoTransport   = errors.New("no transport available")
	ErrExitFailure   = errors.New("process exited with failure")
	ErrEmptyResponse = errors.New("empty response")
	ErrBadJSON       = errors.New("malformed API response")
	ErrAPI           = errors.New("API error")
)

// Kind identifies one of the two transport variants.
type Kind string

const (
	KindCLI Kind = "cli"
	KindAPI Kind = "api"
)

// Transport is one concrete mechanism for delivering a prompt and
// receiving a response. There are exactly two implementations.
type Transport interface {
	Kind() Kind
	// Command returns the argv for one request's subprocess.
	Command(cfg *config.Config) []string
	// Payload renders the assembled prompt into this transport's stdin shape.
	Payload(cfg *config.Config, req prompt.Request) ([]byte, error)
	// Interpret converts a finished run into a response or a failure.
	Interpret(exitCode int, stdout, stderr []byte) (string, error)
}

// ForKind returns the transport implementation for k.
func ForKind(k Kind) Transport {
	if k == KindAPI {
		return apiTransport{}
	}
	return cliTransport{}
}

// Resolve picks the transport kind for a request. An explicit setting
// wins; otherwise the CLI is preferred when its executable is on PATH and
// no credential is configured, else the API. Resolution fails when the
// chosen transport cannot possibly work, so no process is spawned for a
// doomed request.
func Resolve(cfg *config.Config) (Kind, error) {
	switch cfg.Transport {
	case config.TransportCLI:
		return KindCLI, nil
	case config.TransportAPI:
		if cfg.APIKey == "" {
			return KindAPI, fmt.Errorf("%w: transport \"api\" requires api_key or $ANTHROPIC_API_KEY", ErrNoTransport)
		}
		return KindAPI, nil
	}

	cliFound := false
	if _, err := exec.LookPath(cfg.CommandPath); err == nil {
		cliFound = true
	}

	if cfg.APIKey == "" {
		if cliFound {
			return KindCLI, nil
		}
		return KindAPI, fmt.Errorf("%w: %q not found in PATH and no api_key configured", ErrNoTransport, cfg.CommandPath)
	}
	return KindAPI, nil
}
