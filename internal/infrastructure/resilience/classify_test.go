package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyHTTPError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"canceled", context.Canceled, false, false},
		{"open breaker", gobreaker.ErrOpenState, true, true},
		{"503", &HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, true, true},
		{"wrapped 429", fmt.Errorf("call: %w", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}), true, true},
		{"400", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
		{"network", timeoutErr{}, true, true},
		{"other", errors.New("boom"), false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyHTTPError(tc.err)
			if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestWrapTemporary(t *testing.T) {
	err := WrapTemporary("qdrant search", &HTTPStatusError{Service: "qdrant", StatusCode: 502, Status: "502 Bad Gateway"}, nil)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}

	plain := errors.New("bad request")
	if got := WrapTemporary("op", plain, nil); got != plain {
		t.Fatalf("non-retryable errors must pass through, got %v", got)
	}
	if WrapTemporary("op", nil, nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestHTTPStatusErrorMessage(t *testing.T) {
	err := &HTTPStatusError{Service: "ollama", Operation: "embed", Status: "500 Internal Server Error", Body: " model missing \n"}
	if err.Error() != "ollama embed status: 500 Internal Server Error: model missing" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
