package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	err := InvalidInput("TestOp", nil, "bad request")
	if err.Error() != "bad request" {
		t.Errorf("expected 'bad request', got %q", err.Error())
	}

	wrapped := Internal("TestOp", fmt.Errorf("disk full"), "save failed")
	expected := "save failed: disk full"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Internal("TestOp", cause, "wrapper")

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected int
	}{
		{"invalid input", InvalidInput("op", nil, "msg"), http.StatusBadRequest},
		{"not found", NotFound("op", nil, "msg"), http.StatusNotFound},
		{"internal", Internal("op", nil, "msg"), http.StatusInternalServerError},
		{"unavailable", Unavailable("op", nil, "msg"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.expected {
				t.Errorf("expected code %d, got %d", tt.expected, tt.err.Code)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"not found error", NotFound("op", nil, "missing"), true},
		{"other app error", InvalidInput("op", nil, "bad"), false},
		{"plain error", fmt.Errorf("standard error"), false},
		{"wrapped not found", fmt.Errorf("outer: %w", NotFound("op", nil, "missing")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.expected {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.expected)
			}
		})
	}
}
