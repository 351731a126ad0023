package conversation

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyResponse is returned by a provider that produced no text.
	ErrEmptyResponse = errors.New("no response generated by the language model")
	// ErrSafetyBlocked marks a refusal on safety grounds.
	ErrSafetyBlocked = errors.New("response blocked by safety filters")
	// ErrThrottled marks a quota or rate limit refusal.
	ErrThrottled = errors.New("language model is rate limited")
	// ErrEmptyQuestion is a caller error: there is nothing to ask.
	ErrEmptyQuestion = errors.New("question must not be empty")
)

// Kind tags a classified provider outcome.
type Kind int

const (
	Answer Kind = iota
	SafetyRefusal
	ThrottleRefusal
	ProviderFailure
)

func (k Kind) String() string {
	switch k {
	case Answer:
		return "answer"
	case SafetyRefusal:
		return "safety"
	case ThrottleRefusal:
		return "throttle"
	default:
		return "provider_error"
	}
}

// Outcome is the result of one provider call. Text is set only for Answer;
// Err carries the provider failure for the other kinds.
type Outcome struct {
	Kind Kind
	Text string
	Err  error
}

var (
	safetyMarkers   = []string{"SAFETY"}
	throttleMarkers = []string{"resource_exhausted", "rate limit"}
)

// Classify maps a provider result onto an Outcome. Providers are expected to
// wrap ErrSafetyBlocked and ErrThrottled where they can tell; otherwise the
// error text is searched for the markers the API uses.
func Classify(text string, err error) Outcome {
	if err == nil {
		if strings.TrimSpace(text) == "" {
			return Outcome{Kind: ProviderFailure, Err: ErrEmptyResponse}
		}
		return Outcome{Kind: Answer, Text: text}
	}

	switch {
	case errors.Is(err, ErrSafetyBlocked), containsAny(err.Error(), safetyMarkers):
		return Outcome{Kind: SafetyRefusal, Err: err}
	case errors.Is(err, ErrThrottled), containsAny(strings.ToLower(err.Error()), throttleMarkers):
		return Outcome{Kind: ThrottleRefusal, Err: err}
	}
	return Outcome{Kind: ProviderFailure, Err: err}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
