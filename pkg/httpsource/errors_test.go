package httpsource

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		contains []string
	}{
		{
			name:     "without wrapped error",
			err:      &APIError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "503 Service Unavailable"},
			contains: []string{"server", "503", "Service Unavailable"},
		},
		{
			name: "with wrapped error",
			err: &APIError{
				StatusCode: 200,
				ErrorClass: ErrorClassDecode,
				Message:    "bad body",
				Err:        errors.New("unexpected EOF"),
			},
			contains: []string{"decode", "bad body", "unexpected EOF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &APIError{ErrorClass: ErrorClassDecode, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var apiErr *APIError
	if !errors.As(errors.Join(errors.New("outer"), err), &apiErr) {
		t.Error("errors.As should find the APIError")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{200, ""},
		{304, ""},
		{400, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassDecode, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		if got := shouldRetry(tt.class); got != tt.want {
			t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestErrorClassOf(t *testing.T) {
	if got := errorClassOf(errors.New("connection refused")); got != ErrorClassNetwork {
		t.Errorf("plain error class = %q, want network", got)
	}
	if got := errorClassOf(&APIError{ErrorClass: ErrorClassClient}); got != ErrorClassClient {
		t.Errorf("APIError class = %q, want client", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("empty = %v, want 0", got)
	}
	if got := parseRetryAfter("3"); got != 3*time.Second {
		t.Errorf("seconds = %v, want 3s", got)
	}
	if got := parseRetryAfter("-3"); got != 0 {
		t.Errorf("negative = %v, want 0", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("garbage = %v, want 0", got)
	}

	date := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	if got := parseRetryAfter(date); got <= 50*time.Second || got > time.Minute {
		t.Errorf("http date = %v, want about 1m", got)
	}
}
