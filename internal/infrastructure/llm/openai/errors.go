package openai

import (
	"errors"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

func classifyAPIError(err error) resilience.ErrorClassification {
	if status, ok := statusCode(err); ok {
		return resilience.ClassifyStatus(status)
	}
	return resilience.ClassifyTransport(err)
}

func statusCode(err error) (int, bool) {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}
