package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
)

const (
	ServerName    = "invoice-mcp"
	ServerVersion = "1.0.0"
)

type Server struct {
	invoices ports.InvoiceService
	answers  ports.QuestionAnswerer
}

func New(invoices ports.InvoiceService, answers ports.QuestionAnswerer) *Server {
	return &Server{invoices: invoices, answers: answers}
}

// MCPServer registers the invoice tools on a new mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(ServerName, ServerVersion, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool("load_sample_invoices",
		mcp.WithDescription("Replace the invoice collection with the built-in sample invoices."),
	), s.loadSample)

	srv.AddTool(mcp.NewTool("add_invoice_text",
		mcp.WithDescription("Extract an invoice from plain text and add it to the collection."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Invoice text as it appears on the document")),
		mcp.WithString("filename", mcp.Description("Optional source filename used as a vendor hint")),
	), s.addText)

	srv.AddTool(mcp.NewTool("list_invoices",
		mcp.WithDescription("List every invoice in the collection with due-date status."),
	), s.list)

	srv.AddTool(mcp.NewTool("ask_invoices",
		mcp.WithDescription("Ask a question about the invoice collection."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question in natural language")),
	), s.ask)

	return srv
}

// ServeStdio blocks serving the tools over stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.MCPServer())
}

func (s *Server) loadSample(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	views, err := s.invoices.LoadSample(ctx)
	if err != nil {
		return toolError("load sample invoices", err), nil
	}
	return jsonResult(map[string]any{
		"message":  fmt.Sprintf("%d sample invoices loaded", len(views)),
		"invoices": views,
	})
}

func (s *Server) addText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}
	view, err := s.invoices.AddText(ctx, text, req.GetString("filename", ""))
	if err != nil {
		return toolError("add invoice", err), nil
	}
	return jsonResult(view)
}

func (s *Server) list(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.invoices.List(ctx))
}

func (s *Server) ask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := req.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("Question is required"), nil
	}
	answer, err := s.answers.Ask(ctx, question)
	if err != nil {
		return toolError("ask", err), nil
	}
	return mcp.NewToolResultText(answer.Text), nil
}

func toolError(op string, err error) *mcp.CallToolResult {
	msg := fmt.Sprintf("%s: %v", op, err)
	if domain.IsKind(err, domain.ErrTemporary) {
		msg += " (temporary, retry later)"
	}
	return mcp.NewToolResultError(msg)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}
