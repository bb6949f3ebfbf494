// Package extraction turns decoded document text into invoice fields using
// ordered pattern rules. Every field has a default, so extraction never fails.
package extraction

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

const (
	placeholderItem      = "Professional Services"
	placeholderTotalBase = 100
	placeholderTotalSpan = 1000
)

// Entropy supplies the only non-deterministic inputs of extraction: the
// placeholder total and the clock behind synthetic invoice numbers.
type Entropy interface {
	Intn(n int) int
	Now() time.Time
}

type systemEntropy struct{}

func (systemEntropy) Intn(n int) int { return rand.IntN(n) }

func (systemEntropy) Now() time.Time { return time.Now() }

func SystemEntropy() Entropy {
	return systemEntropy{}
}

type Options struct {
	Calendar normalize.Calendar
	Entropy  Entropy
	// KnownVendors is appended to the built-in brand list.
	KnownVendors []string
}

type Engine struct {
	calendar normalize.Calendar
	entropy  Entropy
	vendors  vendorRules

	mu         sync.Mutex
	lastSerial int64
}

func NewEngine(opts Options) *Engine {
	entropy := opts.Entropy
	if entropy == nil {
		entropy = SystemEntropy()
	}
	return &Engine{
		calendar: opts.Calendar,
		entropy:  entropy,
		vendors:  newVendorRules(opts.KnownVendors),
	}
}

// Extract reads every field from text. When text is blank the filename is
// used in its place, which is what callers get when decoding was not
// possible.
func (e *Engine) Extract(text, filename string) domain.InvoiceFields {
	if strings.TrimSpace(text) == "" {
		text = filename
	}

	invoiceDate, ok := e.invoiceDate(text)
	if !ok {
		invoiceDate = e.calendar.ReferenceISO()
	}
	dueDate, ok := e.dueDate(text)
	if !ok {
		dueDate = domain.DueCompleted
	}
	number, ok := invoiceNumber(text)
	if !ok {
		number = e.syntheticNumber()
	}
	total, ok := maxAmount(text)
	if !ok {
		total = placeholderTotal(e.entropy)
	}

	return domain.InvoiceFields{
		Vendor:        e.vendors.match(text),
		InvoiceNumber: number,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Total:         total,
		Items:         items(text),
	}
}

// syntheticNumber derives INV-<millis> from the entropy clock and bumps the
// value when the clock has not advanced since the previous call.
func (e *Engine) syntheticNumber() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	serial := e.entropy.Now().UnixMilli()
	if serial <= e.lastSerial {
		serial = e.lastSerial + 1
	}
	e.lastSerial = serial
	return "INV-" + strconv.FormatInt(serial, 10)
}
