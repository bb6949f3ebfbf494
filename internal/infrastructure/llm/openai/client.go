// Package openai talks to OpenAI-compatible chat completion APIs. The same
// client serves the tools tier against OpenAI and the plain tier against
// Groq, which exposes the same wire format.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/llm/prompts"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultModel     = goopenai.GPT4oMini
	DefaultGroqModel = "llama-3.1-8b-instant"

	temperature   = 0.1
	maxTokens     = 1000
	clientTimeout = 60 * time.Second
)

type Config struct {
	// Name prefixes breaker operations and error messages, e.g. "openai" or "groq".
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	name     string
	model    string
	api      *goopenai.Client
	executor *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	conf := goopenai.DefaultConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	conf.HTTPClient = &http.Client{Timeout: clientTimeout}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "openai"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig().SingleAttempt())
	}
	return &Client{
		name:     name,
		model:    model,
		api:      goopenai.NewClientWithConfig(conf),
		executor: executor,
	}
}

// Answer asks the model with the text digest as context.
func (c *Client) Answer(ctx context.Context, req domain.DelegateRequest) (string, error) {
	resp, err := c.complete(ctx, "chat", goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompts.Plain(req.Context, req.Question)},
			{Role: goopenai.ChatMessageRoleUser, Content: req.Question},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// AnswerWithAnalysis offers the analysis function to the model, runs every
// call it makes locally and asks for a final synthesis of the results. A
// reply without a function call is returned as is.
func (c *Client) AnswerWithAnalysis(ctx context.Context, req domain.DelegateRequest, analyze domain.Analyzer) (string, error) {
	messages := []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: prompts.FunctionCalling(req.Context)},
		{Role: goopenai.ChatMessageRoleUser, Content: req.Question},
	}

	first, err := c.complete(ctx, "tools", goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       []goopenai.Tool{analyzeTool()},
		ToolChoice:  "auto",
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(first.ToolCalls) == 0 {
		return strings.TrimSpace(first.Content), nil
	}

	messages = append(messages, first)
	for _, call := range first.ToolCalls {
		result, err := runToolCall(call, analyze)
		if err != nil {
			return "", fmt.Errorf("%s tool call %s: %w", c.name, call.Function.Name, err)
		}
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:       goopenai.ChatMessageRoleTool,
			Content:    result,
			Name:       call.Function.Name,
			ToolCallID: call.ID,
		})
	}

	final, err := c.complete(ctx, "tools_followup", goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(final.Content), nil
}

func (c *Client) complete(ctx context.Context, operation string, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionMessage, error) {
	op := c.name + "." + operation
	msg, err := resilience.Call(ctx, c.executor, op, func(callCtx context.Context) (goopenai.ChatCompletionMessage, error) {
		resp, err := c.api.CreateChatCompletion(callCtx, req)
		if err != nil {
			return goopenai.ChatCompletionMessage{}, fmt.Errorf("%s %s request: %w", c.name, operation, err)
		}
		if len(resp.Choices) == 0 {
			return goopenai.ChatCompletionMessage{}, fmt.Errorf("%s %s: response has no choices", c.name, operation)
		}
		return resp.Choices[0].Message, nil
	}, classifyAPIError)
	if err != nil {
		return goopenai.ChatCompletionMessage{}, resilience.WrapTemporary(op, err, classifyAPIError)
	}
	return msg, nil
}

func analyzeTool() goopenai.Tool {
	return goopenai.Tool{
		Type: goopenai.ToolTypeFunction,
		Function: &goopenai.FunctionDefinition{
			Name:        prompts.AnalyzeFunctionName,
			Description: prompts.AnalyzeFunctionDescription,
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"query": {
						Type:        jsonschema.String,
						Description: prompts.AnalyzeQueryDescription,
					},
					"analysis_type": {
						Type:        jsonschema.String,
						Description: prompts.AnalyzeTypeDescription,
						Enum:        domain.AnalysisTypes,
					},
				},
				Required: []string{"query", "analysis_type"},
			},
		},
	}
}

func runToolCall(call goopenai.ToolCall, analyze domain.Analyzer) (string, error) {
	if call.Function.Name != prompts.AnalyzeFunctionName {
		return `{"error":"Unknown function"}`, nil
	}
	var args domain.AnalysisRequest
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	raw, err := json.Marshal(analyze(args))
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}
	return string(raw), nil
}
