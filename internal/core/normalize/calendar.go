// Package normalize holds the date and currency helpers shared by the
// extraction and query engines. All "today" arithmetic runs against a pinned
// reference date so results are reproducible.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

// TwoDigitYearRule selects how a two-digit year in a document is expanded.
type TwoDigitYearRule string

const (
	// YearsCentury2000 always expands to 20xx.
	YearsCentury2000 TwoDigitYearRule = "century2000"
	// YearsPivot50 expands years above 50 to 19xx and the rest to 20xx.
	YearsPivot50 TwoDigitYearRule = "pivot50"
)

var DefaultReference = time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func ParseYearRule(raw string) (TwoDigitYearRule, error) {
	switch TwoDigitYearRule(strings.ToLower(strings.TrimSpace(raw))) {
	case "", YearsCentury2000:
		return YearsCentury2000, nil
	case YearsPivot50:
		return YearsPivot50, nil
	default:
		return "", fmt.Errorf("unknown two-digit year rule %q", raw)
	}
}

type Calendar struct {
	reference time.Time
	years     TwoDigitYearRule
}

func NewCalendar(reference time.Time, years TwoDigitYearRule) Calendar {
	if reference.IsZero() {
		reference = DefaultReference
	}
	if years != YearsPivot50 {
		years = YearsCentury2000
	}
	y, m, d := reference.Date()
	return Calendar{
		reference: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		years:     years,
	}
}

func DefaultCalendar() Calendar {
	return NewCalendar(DefaultReference, YearsCentury2000)
}

func (c Calendar) Reference() time.Time {
	if c.reference.IsZero() {
		return DefaultReference
	}
	return c.reference
}

func (c Calendar) ReferenceISO() string {
	return FormatDate(c.Reference())
}

func (c Calendar) YearRule() TwoDigitYearRule {
	if c.years == "" {
		return YearsCentury2000
	}
	return c.years
}

// ParseDate reads a YYYY-MM-DD value. Empty or malformed input yields the
// reference date.
func (c Calendar) ParseDate(raw string) time.Time {
	parsed, err := time.Parse(domain.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return c.Reference()
	}
	return parsed
}

// DaysUntilDue returns the ceiling of the day difference between the due
// date and the reference date. ok is false for the settled sentinel, whose
// value must not take part in any overdue arithmetic.
func (c Calendar) DaysUntilDue(due string) (days int, ok bool) {
	if due == domain.DueCompleted {
		return 0, false
	}
	diff := c.ParseDate(due).Sub(c.Reference())
	return int(math.Ceil(float64(diff) / float64(day))), true
}

func (c Calendar) IsOverdue(due string) bool {
	days, ok := c.DaysUntilDue(due)
	return ok && days < 0
}

// ExpandYear turns a two-digit year into four digits using the configured
// rule; longer values are returned unchanged.
func (c Calendar) ExpandYear(year string) string {
	if len(year) != 2 {
		return year
	}
	if c.YearRule() == YearsPivot50 {
		if n, err := strconv.Atoi(year); err == nil && n > 50 {
			return "19" + year
		}
	}
	return "20" + year
}

func FormatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// View computes the derived display fields of a record.
func (c Calendar) View(inv domain.Invoice) domain.InvoiceView {
	view := domain.InvoiceView{
		ID:             inv.ID,
		Vendor:         inv.Vendor,
		InvoiceNumber:  inv.InvoiceNumber,
		InvoiceDate:    inv.InvoiceDate,
		DueDate:        inv.DueDate,
		Total:          inv.Total.InexactFloat64(),
		Items:          append([]string(nil), inv.Items...),
		ProcessedDate:  inv.ProcessedDate,
		IsOverdue:      c.IsOverdue(inv.DueDate),
		FormattedTotal: FormatCurrency(inv.Total),
	}
	if days, ok := c.DaysUntilDue(inv.DueDate); ok {
		view.DaysUntilDue = &days
	}
	return view
}

func (c Calendar) Views(invoices []domain.Invoice) []domain.InvoiceView {
	out := make([]domain.InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, c.View(inv))
	}
	return out
}
