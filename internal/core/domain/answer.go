package domain

import "time"

type AnswerTier string

const (
	TierNoInvoices      AnswerTier = "no_invoices"
	TierFunctionCalling AnswerTier = "function_calling"
	TierPlain           AnswerTier = "plain"
	TierRules           AnswerTier = "rules"
)

// TierFailure records why a tier did not produce the answer.
type TierFailure struct {
	Tier   AnswerTier `json:"tier"`
	Reason string     `json:"reason"`
}

type Answer struct {
	Question  string        `json:"question"`
	Text      string        `json:"response"`
	Tier      AnswerTier    `json:"tier"`
	Fallbacks []TierFailure `json:"fallbacks,omitempty"`
	Duration  time.Duration `json:"-"`
}

// DelegateRequest is what a remote answering tier receives. Context is
// already serialized for the tier (JSON invoice data or a text digest).
type DelegateRequest struct {
	Question string
	Context  string
}

// AnalysisRequest mirrors the arguments of the analyzeInvoices function the
// function-calling tier exposes to the model.
type AnalysisRequest struct {
	Query        string `json:"query"`
	AnalysisType string `json:"analysis_type"`
}

// Analyzer runs the invoice analysis locally against a fixed snapshot.
type Analyzer func(req AnalysisRequest) AnalysisReport
