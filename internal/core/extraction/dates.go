package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
)

const (
	dayFirstDate  = `[0-9]{1,2}[-/][0-9]{1,2}[-/][0-9]{2,4}`
	yearFirstDate = `[0-9]{4}[-/][0-9]{1,2}[-/][0-9]{1,2}`
	labeledDate   = `[:\s]*(` + yearFirstDate + `|` + dayFirstDate + `)\b`
)

var invoiceDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Invoice\s*Date` + labeledDate),
	regexp.MustCompile(`(?i)Date` + labeledDate),
	regexp.MustCompile(`\b(` + dayFirstDate + `)\b`),
	regexp.MustCompile(`\b(` + yearFirstDate + `)\b`),
}

var dueDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Due\s*Date` + labeledDate),
	regexp.MustCompile(`(?i)Payment\s*Due` + labeledDate),
	regexp.MustCompile(`(?i)Due` + labeledDate),
}

var dateSeparator = regexp.MustCompile(`[-/]`)

func (e *Engine) invoiceDate(text string) (string, bool) {
	return e.firstDate(text, invoiceDatePatterns)
}

func (e *Engine) dueDate(text string) (string, bool) {
	return e.firstDate(text, dueDatePatterns)
}

// firstDate returns the first match, in pattern order, that forms a real
// calendar date.
func (e *Engine) firstDate(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, pattern := range patterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if iso, ok := e.isoDate(m[1]); ok {
				return iso, true
			}
		}
	}
	return "", false
}

// isoDate orders the components by whichever one carries four digits and
// rejects values that are not calendar dates.
func (e *Engine) isoDate(raw string) (string, bool) {
	parts := dateSeparator.Split(raw, -1)
	if len(parts) != 3 {
		return "", false
	}

	var year, month, day string
	if len(parts[0]) == 4 {
		year, month, day = parts[0], parts[1], parts[2]
	} else {
		day, month, year = parts[0], parts[1], parts[2]
	}
	year = e.calendar.ExpandYear(year)
	if len(year) != 4 {
		return "", false
	}

	m, err := strconv.Atoi(month)
	if err != nil {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	iso := fmt.Sprintf("%s-%02d-%02d", year, m, d)
	if _, err := time.Parse(domain.DateLayout, iso); err != nil {
		return "", false
	}
	return iso, true
}
