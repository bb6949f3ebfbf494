// Package gemini answers questions through Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

const DefaultModel = "gemini-1.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	client   *genai.Client
	newModel func(systemPrompt string) contentGenerator
	executor *resilience.Executor
}

func New(ctx context.Context, apiKey, model string, executor *resilience.Executor) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "gemini.new", errors.New("api key is empty"))
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig().SingleAttempt())
	}
	return &Client{
		client: client,
		newModel: func(systemPrompt string) contentGenerator {
			m := client.GenerativeModel(model)
			m.SetTemperature(0.1)
			m.SetMaxOutputTokens(1000)
			m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
			return m
		},
		executor: executor,
	}, nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) Answer(ctx context.Context, req domain.DelegateRequest) (string, error) {
	model := c.newModel(prompts.Plain(req.Context, req.Question))
	answer, err := resilience.Call(ctx, c.executor, "gemini.generate", func(callCtx context.Context) (string, error) {
		resp, err := model.GenerateContent(callCtx, genai.Text(req.Question))
		if err != nil {
			return "", fmt.Errorf("gemini generate: %w", err)
		}
		return responseText(resp), nil
	}, classifyGeminiError)
	if err != nil {
		return "", resilience.WrapTemporary("gemini.generate", err, classifyGeminiError)
	}
	return answer, nil
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

type httpCoder interface {
	HTTPCode() int
}

func classifyGeminiError(err error) resilience.ErrorClassification {
	code := 0
	var apiErr *googleapi.Error
	var coder httpCoder
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &coder):
		code = coder.HTTPCode()
	}
	if code == 0 {
		return resilience.ClassifyRemote(err)
	}
	return resilience.ClassifyStatus(code)
}
