package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

type invoiceServiceFake struct {
	views      []domain.InvoiceView
	err        error
	uploaded   string
	uploadBody string
	importURL  string
	text       string
	deleted    string
}

func (f *invoiceServiceFake) Upload(_ context.Context, filename, _ string, body io.Reader) (*domain.InvoiceView, error) {
	data, _ := io.ReadAll(body)
	f.uploaded, f.uploadBody = filename, string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.InvoiceView{ID: "id-1", Vendor: "Tesla Inc", FormattedTotal: "$1500.00"}, nil
}

func (f *invoiceServiceFake) ImportURL(_ context.Context, rawURL string) (*domain.InvoiceView, error) {
	f.importURL = rawURL
	if f.err != nil {
		return nil, f.err
	}
	return &domain.InvoiceView{ID: "id-2", Vendor: "Acme"}, nil
}

func (f *invoiceServiceFake) AddText(_ context.Context, text, _ string) (*domain.InvoiceView, error) {
	f.text = text
	return &domain.InvoiceView{ID: "id-3"}, f.err
}

func (f *invoiceServiceFake) List(context.Context) []domain.InvoiceView {
	if f.views == nil {
		return []domain.InvoiceView{}
	}
	return f.views
}

func (f *invoiceServiceFake) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.err
}

func (f *invoiceServiceFake) LoadSample(context.Context) ([]domain.InvoiceView, error) {
	return make([]domain.InvoiceView, 5), f.err
}

func (f *invoiceServiceFake) Export(_ context.Context, w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("PK\x03\x04"))
	return err
}

type answererFake struct {
	question string
	err      error
}

func (f *answererFake) Ask(_ context.Context, question string) (*domain.Answer, error) {
	f.question = question
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Answer{Question: question, Text: "Total value of all invoices: $13100.00", Tier: domain.TierRules}, nil
}

func newTestHandler(cfg config.Config, invoices *invoiceServiceFake, answers *answererFake) http.Handler {
	return NewRouter(cfg, invoices, answers, nil).Handler()
}

func decodeEnvelope(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", res.Body.String(), err)
	}
	return body
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte(content))
	_ = writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestListInvoicesReturnsArray(t *testing.T) {
	handler := newTestHandler(config.Config{}, &invoiceServiceFake{views: []domain.InvoiceView{{ID: "a"}, {ID: "b"}}}, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var views []domain.InvoiceView
	if err := json.Unmarshal(res.Body.Bytes(), &views); err != nil || len(views) != 2 {
		t.Fatalf("expected a bare array of 2 invoices, got %s (%v)", res.Body.String(), err)
	}
}

func TestUploadMultipartFile(t *testing.T) {
	invoices := &invoiceServiceFake{}
	handler := newTestHandler(config.Config{APIRequestValidation: true}, invoices, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "invoice", "Tesla_Invoice.pdf", "%PDF-1.4"))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if invoices.uploaded != "Tesla_Invoice.pdf" || invoices.uploadBody != "%PDF-1.4" {
		t.Fatalf("unexpected upload %q %q", invoices.uploaded, invoices.uploadBody)
	}
	body := decodeEnvelope(t, res)
	if body["success"] != true || body["message"] != "Invoice processed successfully" {
		t.Fatalf("unexpected envelope %v", body)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	invoices := &invoiceServiceFake{}
	handler := newTestHandler(config.Config{}, invoices, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, multipartRequest(t, "invoice", "notes.docx", "x"))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if invoices.uploaded != "" {
		t.Fatal("rejected files must not reach the service")
	}
}

func TestUploadJSONURL(t *testing.T) {
	invoices := &invoiceServiceFake{}
	handler := newTestHandler(config.Config{APIRequestValidation: true}, invoices, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest(http.MethodPost, "/api/invoices/upload", `{"url":"https://example.com/inv.pdf"}`))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if invoices.importURL != "https://example.com/inv.pdf" {
		t.Fatalf("unexpected url %q", invoices.importURL)
	}
}

func TestUploadWithoutFileOrURL(t *testing.T) {
	handler := newTestHandler(config.Config{}, &invoiceServiceFake{}, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest(http.MethodPost, "/api/invoices/upload", `{}`))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if body := decodeEnvelope(t, res); body["error"] != "No file or URL provided" {
		t.Fatalf("unexpected envelope %v", body)
	}
}

func TestDeleteInvoiceReturns404ForUnknownID(t *testing.T) {
	invoices := &invoiceServiceFake{err: domain.WrapError(domain.ErrInvoiceNotFound, "delete", errors.New("id=missing"))}
	handler := newTestHandler(config.Config{}, invoices, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/api/invoices/missing", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if invoices.deleted != "missing" {
		t.Fatalf("unexpected id %q", invoices.deleted)
	}
}

func TestLoadSampleReportsCount(t *testing.T) {
	handler := newTestHandler(config.Config{}, &invoiceServiceFake{}, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/api/invoices/sample", nil))
	body := decodeEnvelope(t, res)
	if body["message"] != "5 sample invoices loaded" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 5 {
		t.Fatalf("expected 5 invoices in data, got %v", body["data"])
	}
}

func TestExportReturnsWorkbook(t *testing.T) {
	handler := newTestHandler(config.Config{}, &invoiceServiceFake{}, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/invoices/export.xlsx", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "invoices.xlsx") {
		t.Fatalf("expected attachment name, got %q", res.Header().Get("Content-Disposition"))
	}
}

func TestChatReturnsAnswerWithTier(t *testing.T) {
	answers := &answererFake{}
	handler := newTestHandler(config.Config{APIRequestValidation: true}, &invoiceServiceFake{}, answers)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest(http.MethodPost, "/api/chat", `{"question":"What is the total?"}`))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	data, _ := decodeEnvelope(t, res)["data"].(map[string]any)
	if data["question"] != "What is the total?" || data["tier"] != "rules" || data["response"] != "Total value of all invoices: $13100.00" {
		t.Fatalf("unexpected data %v", data)
	}
}

func TestChatValidationRejectsMissingQuestion(t *testing.T) {
	answers := &answererFake{}
	handler := newTestHandler(config.Config{APIRequestValidation: true}, &invoiceServiceFake{}, answers)

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, jsonRequest(http.MethodPost, "/api/chat", `{"prompt":"hi"}`))
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if answers.question != "" {
		t.Fatal("invalid requests must not reach the use case")
	}
}

func TestChatMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid input", err: domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("blank")), want: http.StatusBadRequest},
		{name: "temporary", err: domain.WrapError(domain.ErrTemporary, "ask", errors.New("busy")), want: http.StatusServiceUnavailable},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(config.Config{}, &invoiceServiceFake{}, &answererFake{err: tc.err})
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, jsonRequest(http.MethodPost, "/api/chat", `{"question":"q"}`))
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func signedToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "tester",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestBearerAuth(t *testing.T) {
	const secret = "s3cret"
	handler := newTestHandler(config.Config{APIJWTSecret: secret}, &invoiceServiceFake{}, &answererFake{})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing token", path: "/api/invoices", want: http.StatusUnauthorized},
		{name: "wrong secret", path: "/api/invoices", header: "Bearer " + signedToken(t, "other", time.Now().Add(time.Hour)), want: http.StatusUnauthorized},
		{name: "expired", path: "/api/invoices", header: "Bearer " + signedToken(t, secret, time.Now().Add(-time.Hour)), want: http.StatusUnauthorized},
		{name: "valid", path: "/api/invoices", header: "Bearer " + signedToken(t, secret, time.Now().Add(time.Hour)), want: http.StatusOK},
		{name: "health is public", path: "/health", want: http.StatusOK},
		{name: "openapi is public", path: "/api/openapi.json", want: http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, res.Code)
			}
		})
	}
}

func TestUnknownRouteReturnsEnvelope404(t *testing.T) {
	handler := newTestHandler(config.Config{APIRequestValidation: true}, &invoiceServiceFake{}, &answererFake{})

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if body := decodeEnvelope(t, res); body["success"] != false {
		t.Fatalf("unexpected envelope %v", body)
	}
}

func TestEmbeddedOpenAPIDocumentIsValid(t *testing.T) {
	if _, err := newRequestValidator(context.Background()); err != nil {
		t.Fatalf("openapi document: %v", err)
	}
}
