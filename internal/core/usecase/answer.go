package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/invoice-assistant/internal/core/domain"
	"github.com/kirillkom/invoice-assistant/internal/core/ports"
	"github.com/kirillkom/invoice-assistant/internal/core/query"
)

const defaultDelegateTimeout = 20 * time.Second

const (
	fallbackTimeout     = "timeout"
	fallbackUnavailable = "unavailable"
	fallbackEmpty       = "empty_answer"
	fallbackError       = "error"
)

var errEmptyAnswer = errors.New("delegate returned an empty answer")

type AnswerOptions struct {
	// FunctionCalling and Plain are optional; a nil delegate skips its tier.
	FunctionCalling ports.FunctionCallingDelegate
	Plain           ports.PlainDelegate
	Recorder        ports.AnswerRecorder
	DelegateTimeout time.Duration
}

// answerStrategy is one tier of the cascade. Only the rules tier is
// guaranteed to succeed.
type answerStrategy struct {
	tier   domain.AnswerTier
	remote bool
	run    func(ctx context.Context, question string, invoices []domain.Invoice) (string, error)
}

type AnswerUseCase struct {
	store      ports.InvoiceStore
	rules      *query.Engine
	recorder   ports.AnswerRecorder
	timeout    time.Duration
	strategies []answerStrategy
}

func NewAnswerUseCase(store ports.InvoiceStore, rules *query.Engine, opts AnswerOptions) *AnswerUseCase {
	if opts.DelegateTimeout <= 0 {
		opts.DelegateTimeout = defaultDelegateTimeout
	}
	uc := &AnswerUseCase{
		store:    store,
		rules:    rules,
		recorder: opts.Recorder,
		timeout:  opts.DelegateTimeout,
	}

	if opts.FunctionCalling != nil {
		delegate := opts.FunctionCalling
		uc.strategies = append(uc.strategies, answerStrategy{
			tier:   domain.TierFunctionCalling,
			remote: true,
			run: func(ctx context.Context, question string, invoices []domain.Invoice) (string, error) {
				data, err := rules.InvoiceDataJSON(invoices)
				if err != nil {
					return "", err
				}
				analyze := func(req domain.AnalysisRequest) domain.AnalysisReport {
					return rules.Analyze(req, invoices)
				}
				return delegate.AnswerWithAnalysis(ctx, domain.DelegateRequest{Question: question, Context: data}, analyze)
			},
		})
	}
	if opts.Plain != nil {
		delegate := opts.Plain
		uc.strategies = append(uc.strategies, answerStrategy{
			tier:   domain.TierPlain,
			remote: true,
			run: func(ctx context.Context, question string, invoices []domain.Invoice) (string, error) {
				return delegate.Answer(ctx, domain.DelegateRequest{Question: question, Context: rules.DetailedContext(invoices)})
			},
		})
	}
	uc.strategies = append(uc.strategies, answerStrategy{
		tier: domain.TierRules,
		run: func(_ context.Context, question string, invoices []domain.Invoice) (string, error) {
			return rules.Answer(question, invoices), nil
		},
	})

	return uc
}

// Tiers lists the configured tiers in cascade order.
func (uc *AnswerUseCase) Tiers() []domain.AnswerTier {
	out := make([]domain.AnswerTier, 0, len(uc.strategies))
	for _, s := range uc.strategies {
		out = append(out, s.tier)
	}
	return out
}

// Ask answers question against a snapshot of the collection. Delegate
// failures are logged and recorded on the answer, never returned.
func (uc *AnswerUseCase) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	started := time.Now()
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", fmt.Errorf("question is required"))
	}

	invoices := uc.store.Snapshot()
	if len(invoices) == 0 {
		return uc.finish(&domain.Answer{
			Question: question,
			Text:     query.NoInvoicesMessage,
			Tier:     domain.TierNoInvoices,
		}, started), nil
	}

	answer := &domain.Answer{Question: question}
	for _, strategy := range uc.strategies {
		text, err := uc.attempt(ctx, strategy, question, invoices)
		if err == nil {
			answer.Text = text
			answer.Tier = strategy.tier
			if strategy.tier == domain.TierRules {
				slog.Debug("answered_by_rules", "intent", uc.rules.Intent(question, invoices))
			}
			return uc.finish(answer, started), nil
		}

		reason := fallbackReason(err)
		slog.Warn("answer_tier_failed",
			"tier", strategy.tier,
			"reason", reason,
			"error", err,
		)
		answer.Fallbacks = append(answer.Fallbacks, domain.TierFailure{Tier: strategy.tier, Reason: reason})
		if uc.recorder != nil {
			uc.recorder.RecordFallback(strategy.tier, reason)
		}
	}

	answer.Text = uc.rules.Answer(question, invoices)
	answer.Tier = domain.TierRules
	return uc.finish(answer, started), nil
}

func (uc *AnswerUseCase) attempt(ctx context.Context, strategy answerStrategy, question string, invoices []domain.Invoice) (string, error) {
	if strategy.remote {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	text, err := strategy.run(ctx, question, invoices)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyAnswer
	}
	return text, nil
}

func (uc *AnswerUseCase) finish(answer *domain.Answer, started time.Time) *domain.Answer {
	answer.Duration = time.Since(started)
	if uc.recorder != nil {
		uc.recorder.RecordAnswer(answer.Tier)
	}
	return answer
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fallbackTimeout
	case errors.Is(err, errEmptyAnswer):
		return fallbackEmpty
	case errors.Is(err, domain.ErrTemporary), errors.Is(err, domain.ErrDelegateDisabled):
		return fallbackUnavailable
	default:
		return fallbackError
	}
}
