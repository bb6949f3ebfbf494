package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kirillkom/invoice-assistant/internal/adapters/http/openapi"
	"github.com/kirillkom/invoice-assistant/internal/config"
	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
	"github.com/kirillkom/invoice-assistant/internal/observability/metrics"
)

const (
	uploadField       = "invoice"
	multipartOverhead = 1 << 20
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Router struct {
	cfg      config.Config
	invoices ports.InvoiceService
	answers  ports.QuestionAnswerer
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	invoices ports.InvoiceService,
	answers ports.QuestionAnswerer,
	httpMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		invoices: invoices,
		answers:  answers,
		metrics:  httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", rt.health).Methods(http.MethodGet)
	if rt.metrics != nil {
		r.Handle("/metrics", rt.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/openapi.json", rt.openAPIDocument).Methods(http.MethodGet)
	api.HandleFunc("/invoices", rt.listInvoices).Methods(http.MethodGet)
	api.HandleFunc("/invoices/upload", rt.uploadInvoice).Methods(http.MethodPost)
	api.HandleFunc("/invoices/sample", rt.loadSample).Methods(http.MethodPost)
	api.HandleFunc("/invoices/export.xlsx", rt.exportInvoices).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}", rt.deleteInvoice).Methods(http.MethodDelete)
	api.HandleFunc("/chat", rt.chat).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var handler http.Handler = r
	if rt.cfg.APIRequestValidation {
		validator, err := newRequestValidator(context.Background())
		if err != nil {
			slog.Error("openapi_validator_disabled", "error", err)
		} else {
			handler = validator.middleware(handler)
		}
	}
	handler = bearerAuthMiddleware(rt.cfg.APIJWTSecret, handler)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIBackpressureWaitMillis)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	handler = accessLogMiddleware(recoverMiddleware(handler))
	return requestIDMiddleware(handler)
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Document)
}

func (rt *Router) listInvoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.invoices.List(r.Context()))
}

type uploadRequest struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

func (rt *Router) uploadInvoice(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		rt.uploadFile(w, r)
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No file or URL provided")
		return
	}

	var (
		view *domain.InvoiceView
		err  error
	)
	switch {
	case strings.TrimSpace(req.URL) != "":
		view, err = rt.invoices.ImportURL(r.Context(), req.URL)
	case strings.TrimSpace(req.Text) != "":
		view, err = rt.invoices.AddText(r.Context(), req.Text, req.Filename)
	default:
		writeError(w, http.StatusBadRequest, "No file or URL provided")
		return
	}
	if err != nil {
		rt.writeDomainError(w, r, "Failed to process invoice", err)
		return
	}
	writeSuccess(w, "Invoice processed successfully", view)
}

func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file or URL provided")
		return
	}
	defer file.Close()

	if !domain.AllowedUploadExtension(header.Filename) {
		writeError(w, http.StatusBadRequest, "Only images and PDFs allowed")
		return
	}

	view, err := rt.invoices.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		rt.writeDomainError(w, r, "Failed to process invoice", err)
		return
	}
	writeSuccess(w, "Invoice processed successfully", view)
}

func (rt *Router) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		writeError(w, http.StatusBadRequest, "Invoice ID is required")
		return
	}
	if err := rt.invoices.Delete(r.Context(), id); err != nil {
		if domain.IsKind(err, domain.ErrInvoiceNotFound) {
			writeError(w, http.StatusNotFound, "Invoice not found")
			return
		}
		rt.writeDomainError(w, r, "Failed to delete invoice", err)
		return
	}
	writeSuccess(w, "Invoice deleted successfully", nil)
}

func (rt *Router) loadSample(w http.ResponseWriter, r *http.Request) {
	views, err := rt.invoices.LoadSample(r.Context())
	if err != nil {
		rt.writeDomainError(w, r, "Failed to load sample data", err)
		return
	}
	writeSuccess(w, fmt.Sprintf("%d sample invoices loaded", len(views)), views)
}

func (rt *Router) exportInvoices(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := rt.invoices.Export(r.Context(), &buf); err != nil {
		rt.writeDomainError(w, r, "Failed to export invoices", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type chatRequest struct {
	Question string `json:"question"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	answer, err := rt.answers.Ask(r.Context(), req.Question)
	if err != nil {
		rt.writeDomainError(w, r, "Failed to process question", err)
		return
	}
	writeSuccess(w, "Question processed", answer)
}

func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "request_id", requestIDFromContext(r.Context()), "error", err)
	}
	writeError(w, status, fmt.Sprintf("%s: %s", message, err.Error()))
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
