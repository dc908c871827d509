package transport

import (
	"errors"
	"strings"
	"testing"

	"github.com/youruser/aide/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	return config.Default()
}

func TestResolve(t *testing.T) {
	t.Run("explicit cli", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Transport = config.TransportCLI
		kind, err := Resolve(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if kind != KindCLI {
			t.Errorf("kind = %q, want cli", kind)
		}
	})

	t.Run("explicit api with key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Transport = config.TransportAPI
		cfg.APIKey = "sk-test"
		kind, err := Resolve(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if kind != KindAPI {
			t.Errorf("kind = %q, want api", kind)
		}
	})

	t.Run("explicit api without key", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Transport = config.TransportAPI
		if _, err := Resolve(cfg); !errors.Is(err, ErrNoTransport) {
			t.Errorf("expected ErrNoTransport, got %v", err)
		}
	})

	t.Run("auto prefers cli when found and no credential", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.CommandPath = "sh" // always on PATH
		kind, err := Resolve(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if kind != KindCLI {
			t.Errorf("kind = %q, want cli", kind)
		}
	})

	t.Run("auto picks api when credential configured", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.CommandPath = "sh"
		cfg.APIKey = "sk-test"
		kind, err := Resolve(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if kind != KindAPI {
			t.Errorf("kind = %q, want api", kind)
		}
	})

	t.Run("auto with nothing available", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.CommandPath = "definitely-not-an-executable-aide"
		if _, err := Resolve(cfg); !errors.Is(err, ErrNoTransport) {
			t.Errorf("expected ErrNoTransport, got %v", err)
		}
	})
}

func TestCLICommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.CommandPath = "/usr/local/bin/claude"
	cfg.Model = "claude-opus-4-20250514"

	argv := cliTransport{}.Command(cfg)
	if argv[0] != "/usr/local/bin/claude" {
		t.Errorf("argv[0] = %q", argv[0])
	}
	joined := strings.Join(argv, " ")
	if !strings.Contains(joined, "-p") || !strings.Contains(joined, "--output-format text") {
		t.Errorf("argv missing one-shot flags: %v", argv)
	}
	if !strings.Contains(joined, "--model claude-opus-4-20250514") {
		t.Errorf("argv missing model: %v", argv)
	}
}

func TestCLIInterpret(t *testing.T) {
	tr := cliTransport{}

	t.Run("trims stdout on success", func(t *testing.T) {
		resp, err := tr.Interpret(0, []byte("  the answer\n\n"), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp != "the answer" {
			t.Errorf("response = %q", resp)
		}
	})

	t.Run("empty stdout", func(t *testing.T) {
		if _, err := tr.Interpret(0, []byte("   \n"), nil); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("non-zero exit carries stderr", func(t *testing.T) {
		_, err := tr.Interpret(1, nil, []byte("not logged in\n"))
		if !errors.Is(err, ErrExitFailure) {
			t.Fatalf("expected ErrExitFailure, got %v", err)
		}
		if !strings.Contains(err.Error(), "not logged in") {
			t.Errorf("error should carry stderr, got %v", err)
		}
	})

	t.Run("non-zero exit with empty stderr", func(t *testing.T) {
		_, err := tr.Interpret(7, nil, nil)
		if !strings.Contains(err.Error(), "exit code 7") {
			t.Errorf("error should mention the exit code, got %v", err)
		}
	})
}

func TestAPICommand(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = "sk-test"

	argv := apiTransport{}.Command(cfg)
	joined := strings.Join(argv, " ")
	if argv[0] != "curl" {
		t.Errorf("argv[0] = %q, want curl", argv[0])
	}
	if !strings.Contains(joined, "https://api.anthropic.com/v1/messages") {
		t.Errorf("argv missing endpoint: %v", argv)
	}
	if !strings.Contains(joined, "x-api-key: sk-test") {
		t.Errorf("argv missing api key header: %v", argv)
	}
	if !strings.Contains(joined, "anthropic-version: "+anthropicVersion) {
		t.Errorf("argv missing version header: %v", argv)
	}
	if !strings.Contains(joined, "--max-time 120") {
		t.Errorf("argv missing timeout: %v", argv)
	}
	if !strings.Contains(joined, "--data-binary @-") {
		t.Errorf("argv should read the body from stdin: %v", argv)
	}
}

func TestAPIInterpret(t *testing.T) {
	tr := apiTransport{}

	t.Run("joins text blocks", func(t *testing.T) {
		body := `{"content":[{"type":"text","text":"first"},{"type":"tool_use"},{"type":"text","text":"second"}]}`
		resp, err := tr.Interpret(0, []byte(body), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp != "first\nsecond" {
			t.Errorf("response = %q", resp)
		}
	})

	t.Run("api error object", func(t *testing.T) {
		body := `{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`
		_, err := tr.Interpret(0, []byte(body), nil)
		if !errors.Is(err, ErrAPI) {
			t.Fatalf("expected ErrAPI, got %v", err)
		}
		if !strings.Contains(err.Error(), "invalid x-api-key") {
			t.Errorf("error should carry the API message, got %v", err)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		if _, err := tr.Interpret(0, []byte("<html>502</html>"), nil); !errors.Is(err, ErrBadJSON) {
			t.Errorf("expected ErrBadJSON, got %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		if _, err := tr.Interpret(0, []byte(""), nil); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("no text content", func(t *testing.T) {
		body := `{"content":[{"type":"tool_use"}]}`
		if _, err := tr.Interpret(0, []byte(body), nil); !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("expected ErrEmptyResponse, got %v", err)
		}
	})

	t.Run("curl failure", func(t *testing.T) {
		_, err := tr.Interpret(6, nil, []byte("curl: (6) Could not resolve host"))
		if !errors.Is(err, ErrExitFailure) {
			t.Fatalf("expected ErrExitFailure, got %v", err)
		}
		if !strings.Contains(err.Error(), "Could not resolve host") {
			t.Errorf("error should carry stderr, got %v", err)
		}
	})
}

func TestForKind(t *testing.T) {
	if ForKind(KindCLI).Kind() != KindCLI {
		t.Error("ForKind(cli) returned wrong transport")
	}
	if ForKind(KindAPI).Kind() != KindAPI {
		t.Error("ForKind(api) returned wrong transport")
	}
}
