// Package query answers natural-language questions about an invoice set with
// an ordered battery of keyword rules. The first matching rule wins and
// every question gets an answer.
package query

import (
	"strings"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/normalize"
)

const (
	NoInvoicesMessage = "No invoices loaded. Please upload invoices or load sample data first."
	OffTopicMessage   = "I can only help with invoice-related questions. Please ask about invoice totals, due dates, vendors, amounts, or specific invoice details."
	FallbackMessage   = "I cannot find that specific information in the current invoices. Please ask about invoice totals, vendors, due dates, amounts, or statistics."
)

// IntentNoInvoices is reported for every question asked against an empty set.
const IntentNoInvoices = "no_invoices"

type Engine struct {
	calendar normalize.Calendar
	rules    []rule
}

func NewEngine(calendar normalize.Calendar) *Engine {
	return &Engine{calendar: calendar, rules: defaultRules()}
}

func (e *Engine) Calendar() normalize.Calendar {
	return e.calendar
}

// Answer returns the answer of the first rule that matches question.
func (e *Engine) Answer(question string, invoices []domain.Invoice) string {
	_, text := e.answer(question, invoices)
	return text
}

// Intent names the rule that answers question.
func (e *Engine) Intent(question string, invoices []domain.Invoice) string {
	name, _ := e.answer(question, invoices)
	return name
}

func (e *Engine) answer(question string, invoices []domain.Invoice) (string, string) {
	if len(invoices) == 0 {
		return IntentNoInvoices, NoInvoicesMessage
	}
	q := newQuestion(question)
	set := invoiceSet{calendar: e.calendar, invoices: invoices}
	for _, r := range e.rules {
		if r.match(q, invoices) {
			return r.name, r.answer(q, set)
		}
	}
	return ruleFallback, FallbackMessage
}

type question struct {
	raw   string
	lower string
}

func newQuestion(raw string) question {
	return question{raw: raw, lower: strings.ToLower(raw)}
}

func (q question) has(words ...string) bool {
	for _, w := range words {
		if strings.Contains(q.lower, w) {
			return true
		}
	}
	return false
}
