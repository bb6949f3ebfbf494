package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func TestClassifyStatus(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusGatewayTimeout} {
		if got := ClassifyStatus(code); !got.Retryable || !got.RecordFailure {
			t.Fatalf("status %d: expected retryable failure, got %+v", code, got)
		}
	}
	for _, code := range []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusNotImplemented} {
		if got := ClassifyStatus(code); got != (ErrorClassification{}) {
			t.Fatalf("status %d: expected ignored failure, got %+v", code, got)
		}
	}
}

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClassification
	}{
		{name: "network", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "open circuit", err: gobreaker.ErrOpenState, want: ErrorClassification{Retryable: true, RecordFailure: true}},
		{name: "deadline", err: context.DeadlineExceeded, want: ErrorClassification{RecordFailure: true}},
		{name: "canceled", err: context.Canceled, want: ErrorClassification{}},
		{name: "other", err: errors.New("decode"), want: ErrorClassification{RecordFailure: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyTransport(tc.err); got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestWrapTemporary(t *testing.T) {
	retryable := func(error) ErrorClassification { return ErrorClassification{Retryable: true} }
	permanent := func(error) ErrorClassification { return ErrorClassification{} }

	if err := WrapTemporary("op", errors.New("503"), retryable); !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
	if err := WrapTemporary("op", gobreaker.ErrOpenState, permanent); !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("open circuit must be temporary, got %v", err)
	}
	plain := errors.New("400")
	if err := WrapTemporary("op", plain, permanent); err != plain {
		t.Fatalf("expected pass-through, got %v", err)
	}
	if WrapTemporary("op", nil, retryable) != nil {
		t.Fatal("nil must stay nil")
	}
}
