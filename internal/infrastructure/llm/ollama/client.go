// Package ollama answers questions through a local Ollama chat model. It is
// an alternative backend for the plain answering tier.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig().SingleAttempt())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func (c *Client) Answer(ctx context.Context, req domain.DelegateRequest) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.Plain(req.Context, req.Question)},
			{Role: "user", Content: req.Question},
		},
		Stream:  false,
		Options: map[string]any{"temperature": 0.1},
	}

	var response chatResponse
	err := c.executor.Execute(ctx, "ollama.chat", func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/chat", payload, &response, "chat")
	}, classifyOllamaError)
	if err != nil {
		return "", resilience.WrapTemporary("ollama.chat", err, classifyOllamaError)
	}
	return strings.TrimSpace(response.Message.Content), nil
}
