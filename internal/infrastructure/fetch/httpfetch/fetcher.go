// Package httpfetch downloads invoice documents from http(s) URLs.
package httpfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/infrastructure/resilience"
)

const (
	UserAgent      = "Invoice-Assistant/1.0"
	DefaultTimeout = 15 * time.Second
	maxRedirects   = 5
)

type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	executor   *resilience.Executor
}

func New(timeout time.Duration, executor *resilience.Executor) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig().SingleAttempt())
	}
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		maxBytes: domain.MaxUploadBytes,
		executor: executor,
	}
}

type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %s", e.URL, e.Status)
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*domain.SourceDocument, error) {
	doc, err := resilience.Call(ctx, f.executor, "fetch.download", func(callCtx context.Context) (*domain.SourceDocument, error) {
		return f.download(callCtx, rawURL)
	}, classifyFetchError)
	if err != nil {
		return nil, resilience.WrapTemporary("fetch.download", err, classifyFetchError)
	}
	return doc, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (*domain.SourceDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "fetch.download", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, domain.WrapError(domain.ErrPayloadTooLarge, "fetch.download", fmt.Errorf("%s exceeds %d bytes", rawURL, f.maxBytes))
	}

	return &domain.SourceDocument{
		Filename:    filename(resp),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
		Origin:      domain.OriginURL,
	}, nil
}

// filename prefers Content-Disposition, then the final URL path after
// redirects.
func filename(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := strings.TrimSpace(params["filename"]); name != "" {
				return path.Base(name)
			}
		}
	}
	u := resp.Request.URL
	if u == nil {
		return "invoice.pdf"
	}
	return urlBase(u)
}

func urlBase(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "invoice.pdf"
	}
	return name
}

func classifyFetchError(err error) resilience.ErrorClassification {
	if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrPayloadTooLarge) {
		return resilience.ErrorClassification{}
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return resilience.ClassifyStatus(statusErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	return resilience.ClassifyRemote(err)
}
