package main

import (
	"errors"
	"testing"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name string
		req  map[string]any
		want string
	}{
		{name: "string", req: map[string]any{"request_id": "abc"}, want: "abc"},
		{name: "number", req: map[string]any{"request_id": 42.0}, want: "42"},
		{name: "fractional number", req: map[string]any{"request_id": 4.5}, want: "4.5"},
		{name: "none", req: map[string]any{}, want: ""},
		{name: "unsupported type", req: map[string]any{"request_id": true}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := requestID(tt.req); got != tt.want {
				t.Fatalf("requestID(%v) = %q, want %q", tt.req, got, tt.want)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	resp := errorResponse(errors.New("config is broken"))
	if resp["type"] != "error" {
		t.Fatalf("type = %v, want error", resp["type"])
	}
	if resp["message"] != "config is broken" {
		t.Fatalf("message = %v", resp["message"])
	}
}
