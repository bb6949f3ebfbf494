package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// ClassifyRemote treats errors of kind domain.ErrTemporary as retryable.
// Caller cancellation and rejected input do not count against the breaker.
func ClassifyRemote(err error) ErrorClassification {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrInvalidInput):
		return ErrorClassification{Retryable: false, RecordFailure: false}
	case errors.Is(err, domain.ErrTemporary), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassification{Retryable: !errors.Is(err, context.DeadlineExceeded), RecordFailure: true}
	default:
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}
}

// ClassifyStatus classifies an HTTP response status of a remote API. Other
// 4xx responses are request or credential problems, not outages.
func ClassifyStatus(code int) ErrorClassification {
	if RetryableStatus(code) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return ErrorClassification{}
}

func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// ClassifyTransport classifies failures that carry no response status.
func ClassifyTransport(err error) ErrorClassification {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassifyRemote(err)
	}
	if IsCircuitOpen(err) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return ClassifyRemote(err)
}

// WrapTemporary marks err as domain.ErrTemporary when classify deems it
// retryable or the breaker is open.
func WrapTemporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if IsCircuitOpen(err) || classify(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}

// Unavailable marks an open circuit as a temporary failure so callers can
// map it without importing the breaker package.
func Unavailable(operation string, err error) error {
	if IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
