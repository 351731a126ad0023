package conversation

import (
	"context"
	"strings"

	"Paggo/backend/go/internal/metrics"
	"Paggo/backend/go/pkg/logger"
)

// Provider generates the next assistant message for an ordered conversation.
type Provider interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}

// Answerer asks the provider about a document and classifies the result.
// Provider failures never come back as errors; they are folded into the
// Outcome so the caller can pick the user-facing reply. Retrying is left to
// the caller.
type Answerer struct {
	provider Provider
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewAnswerer(p Provider, m *metrics.Metrics, log *logger.Logger) *Answerer {
	if log == nil {
		log = logger.Discard()
	}
	return &Answerer{provider: p, metrics: m, log: log}
}

// Answer returns an error only when the question is empty.
func (a *Answerer) Answer(ctx context.Context, documentText string, history []Turn, question string) (Outcome, error) {
	if strings.TrimSpace(question) == "" {
		return Outcome{}, ErrEmptyQuestion
	}

	text, err := a.provider.Generate(ctx, BuildMessages(documentText, history, question))
	out := Classify(text, err)
	a.metrics.ChatOutcome(out.Kind.String())
	if out.Kind != Answer {
		a.log.WithErr(out.Err).WithPayload(map[string]interface{}{
			"outcome":      out.Kind.String(),
			"history_len":  len(history),
			"question_len": len(question),
		}).Warn("language model did not answer")
	}
	return out, nil
}
