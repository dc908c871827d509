package main

import (
	"bufio"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/youruser/aide/internal/config"
	"github.com/youruser/aide/internal/dispatch"
	"github.com/youruser/aide/internal/logging"
	"github.com/youruser/aide/internal/prompt"
	"github.com/youruser/aide/internal/runloop"
	"github.com/youruser/aide/internal/session"
	"github.com/youruser/aide/internal/transport"
)

//go:embed system_prompt.txt
var defaultSystemPrompt string

//go:embed version.txt
var version string

var log = logging.Get()

// app wires one config, dispatcher, and session together, driven by the
// editor host over newline-delimited JSON on stdio. All handlers run on
// the run loop; the stdin reader only posts work onto it.
type app struct {
	loop       *runloop.Loop
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	session    *session.Session
	context    prompt.Context // last editing context pushed by the host
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v":
			fmt.Printf("aide %s\n", strings.TrimSpace(version))
			return
		}
	}

	a := &app{loop: runloop.New()}
	go a.readStdin()
	a.loop.Run()
	log.Close()
}

func (a *app) readStdin() {
	defer a.loop.Stop()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		a.loop.Post(func() { a.handleRequest(line) })
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			a.loop.Post(func() {
				respond("", map[string]any{
					"type":    "error",
					"message": "Request too large (max 1MB). Reduce context size or split the request.",
				})
			})
			return
		}
		fmt.Fprintf(os.Stderr, "stdin error: %v\n", err)
	}
}

// ensureReady loads config lazily on first use and builds the session.
func (a *app) ensureReady() error {
	if a.session != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a.cfg = cfg
	if a.cfg.SystemPrompt == "" {
		a.cfg.SystemPrompt = strings.TrimSpace(defaultSystemPrompt)
	}

	a.dispatcher = dispatch.New(a.cfg, a.loop.Post)
	a.session = session.New(a.dispatcher, func() prompt.Context {
		return a.context
	}, *a.cfg.MaxHistory)
	a.session.OnChange(a.notifyState)
	return nil
}

// notifyState is the render hook: it pushes the full entry list to the
// host after every state mutation.
func (a *app) notifyState() {
	respond("", map[string]any{
		"type":    "state",
		"entries": a.session.History(),
	})
}

// requestID extracts the host's correlation id. Hosts may send either a
// string or a number.
func requestID(req map[string]any) string {
	switch v := req["request_id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func errorResponse(err error) map[string]any {
	return map[string]any{"type": "error", "message": err.Error()}
}

func respond(reqID string, resp map[string]any) {
	if reqID != "" {
		resp["request_id"] = reqID
	}
	data, err := json.Marshal(resp)
	if err != nil {
		log.Error("Failed to marshal response: %v", err)
		return
	}
	msgType, _ := resp["type"].(string)
	log.Response(msgType, string(data))
	fmt.Println(string(data))
}

func (a *app) handleRequest(line string) {
	var req map[string]any
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		log.Error("Invalid JSON request: %s", line)
		respond("", map[string]any{"type": "error", "message": "Invalid JSON"})
		return
	}

	action, _ := req["action"].(string)
	log.Request(action, line)
	reqID := requestID(req)

	switch action {
	case "ping":
		respond(reqID, map[string]any{"type": "ok"})

	case "version":
		respond(reqID, map[string]any{"type": "version", "version": strings.TrimSpace(version)})

	case "config_check":
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		kind, err := transport.Resolve(a.cfg)
		resp := map[string]any{"type": "config", "transport": string(kind), "model": a.cfg.Model}
		if err != nil {
			resp["transport_error"] = err.Error()
		}
		respond(reqID, resp)

	case "context_set":
		fileContent, _ := req["file_content"].(string)
		selection, _ := req["selection"].(string)
		errorText, _ := req["error_text"].(string)
		language, _ := req["language"].(string)
		a.context = prompt.Context{
			FileContent: fileContent,
			Selection:   selection,
			ErrorText:   errorText,
			Language:    language,
		}
		respond(reqID, map[string]any{"type": "ok"})

	case "send":
		text, _ := req["text"].(string)
		if strings.TrimSpace(text) == "" {
			respond(reqID, map[string]any{"type": "error", "message": "Missing required field: text"})
			return
		}
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		a.session.Send(text)
		respond(reqID, map[string]any{"type": "ok"})

	case "history":
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		respond(reqID, map[string]any{"type": "history", "entries": a.session.History()})

	case "recall":
		dirVal, ok := req["direction"].(float64)
		if !ok || (dirVal != -1 && dirVal != 1) {
			respond(reqID, map[string]any{"type": "error", "message": "direction must be -1 or 1"})
			return
		}
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		text := a.session.NavigateHistory(int(dirVal))
		respond(reqID, map[string]any{"type": "recall", "text": text})

	case "clear":
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		a.session.Clear()
		respond(reqID, map[string]any{"type": "ok"})

	case "cancel":
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		n := a.session.CancelActive()
		respond(reqID, map[string]any{"type": "ok", "cancelled": n})

	case "status":
		active := 0
		if a.dispatcher != nil {
			active = a.dispatcher.ActiveCount()
		}
		respond(reqID, map[string]any{"type": "status", "active": active})

	case "estimate_tokens":
		text, _ := req["text"].(string)
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		blob := prompt.Text(prompt.Request{
			System:  a.cfg.SystemPrompt,
			Text:    strings.TrimSpace(text),
			Context: a.context,
		})
		respond(reqID, map[string]any{
			"type":   "token_estimate",
			"tokens": prompt.EstimateTokensSimple(blob),
		})

	case "snapshot":
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		data, err := a.session.Snapshot()
		if err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		respond(reqID, map[string]any{"type": "snapshot", "data": json.RawMessage(data)})

	case "restore":
		if err := a.ensureReady(); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		data, err := json.Marshal(req["data"])
		if err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		if err := a.session.Restore(data); err != nil {
			respond(reqID, errorResponse(err))
			return
		}
		respond(reqID, map[string]any{"type": "ok"})

	case "shutdown":
		if a.session != nil {
			a.session.CancelActive()
		}
		respond(reqID, map[string]any{"type": "ok"})
		a.loop.Stop()

	default:
		respond(reqID, map[string]any{"type": "error", "message": fmt.Sprintf("Unknown action: %s", action)})
	}
}
