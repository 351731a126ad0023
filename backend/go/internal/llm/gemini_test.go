package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/pkg/circuitbreaker"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func textResponse(s string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(s)}},
		}},
	}
}

func TestGenerate_SendsHistoryAndLastTurn(t *testing.T) {
	var gotHistory []*genai.Content
	var gotLast string
	g := &Gemini{send: func(_ context.Context, h []*genai.Content, last string) (*genai.GenerateContentResponse, error) {
		gotHistory, gotLast = h, last
		return textResponse("forty two"), nil
	}}

	turns := conversation.BuildMessages("doc", []conversation.Turn{
		{Role: conversation.RoleUser, Text: "a"},
		{Role: conversation.RoleAssistant, Text: "b"},
	}, "c")
	text, err := g.Generate(context.Background(), turns)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "forty two" {
		t.Errorf("text = %q", text)
	}
	if gotLast != "c" {
		t.Errorf("last turn = %q", gotLast)
	}
	wantRoles := []string{"user", "user", "model"}
	if len(gotHistory) != len(wantRoles) {
		t.Fatalf("history length = %d", len(gotHistory))
	}
	for i, role := range wantRoles {
		if gotHistory[i].Role != role {
			t.Errorf("history[%d].Role = %s, want %s", i, gotHistory[i].Role, role)
		}
	}
}

func TestGenerate_RejectsTrailingAssistantTurn(t *testing.T) {
	g := &Gemini{send: func(context.Context, []*genai.Content, string) (*genai.GenerateContentResponse, error) {
		t.Fatal("send must not be called")
		return nil, nil
	}}
	_, err := g.Generate(context.Background(), []conversation.Turn{{Role: conversation.RoleAssistant, Text: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	g := &Gemini{send: func(context.Context, []*genai.Content, string) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}}
	_, err := g.Generate(context.Background(), []conversation.Turn{{Role: conversation.RoleUser, Text: "q"}})
	if !errors.Is(err, conversation.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"blocked", &genai.BlockedError{}, conversation.ErrSafetyBlocked},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), conversation.ErrThrottled},
		{"http 429", &googleapi.Error{Code: http.StatusTooManyRequests}, conversation.ErrThrottled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapError() = %v, want wrapping %v", got, tt.want)
			}
		})
	}

	plain := errors.New("dial tcp: connection refused")
	if got := mapError(plain); got != plain {
		t.Errorf("unrelated errors must pass through, got %v", got)
	}
}

func TestGenerate_BreakerOpensOnOutages(t *testing.T) {
	calls := 0
	g := &Gemini{
		breaker: circuitbreaker.New(2, 1, time.Minute, circuitbreaker.WithFailurePredicate(CountsAsOutage)),
		send: func(context.Context, []*genai.Content, string) (*genai.GenerateContentResponse, error) {
			calls++
			return nil, errors.New("unavailable")
		},
	}
	turns := []conversation.Turn{{Role: conversation.RoleUser, Text: "q"}}
	for i := 0; i < 2; i++ {
		_, _ = g.Generate(context.Background(), turns)
	}
	_, err := g.Generate(context.Background(), turns)
	if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 backend calls, got %d", calls)
	}
	if out := conversation.Classify("", err); out.Kind != conversation.ProviderFailure {
		t.Errorf("open circuit should classify as provider failure, got %v", out.Kind)
	}
}

func TestCountsAsOutage(t *testing.T) {
	if CountsAsOutage(conversation.ErrSafetyBlocked) {
		t.Error("safety refusals are not outages")
	}
	if CountsAsOutage(fmt.Errorf("%w: quota", conversation.ErrThrottled)) {
		t.Error("throttling is not an outage")
	}
	if CountsAsOutage(conversation.ErrEmptyResponse) {
		t.Error("empty responses are not outages")
	}
	if !CountsAsOutage(errors.New("unavailable")) {
		t.Error("other provider errors are outages")
	}
	if CountsAsOutage(nil) {
		t.Error("nil is not an outage")
	}
}

func TestGenerate_SustainedThrottlingKeepsThrottleOutcome(t *testing.T) {
	calls := 0
	g := &Gemini{
		breaker: circuitbreaker.New(5, 1, time.Minute, circuitbreaker.WithFailurePredicate(CountsAsOutage)),
		send: func(context.Context, []*genai.Content, string) (*genai.GenerateContentResponse, error) {
			calls++
			return nil, status.Error(codes.ResourceExhausted, "quota exceeded")
		},
	}
	turns := []conversation.Turn{{Role: conversation.RoleUser, Text: "q"}}
	for i := 1; i <= 7; i++ {
		_, err := g.Generate(context.Background(), turns)
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			t.Fatalf("call %d: breaker opened on throttling", i)
		}
		if out := conversation.Classify("", err); out.Kind != conversation.ThrottleRefusal {
			t.Fatalf("call %d: expected throttle outcome, got %v (%v)", i, out.Kind, err)
		}
	}
	if calls != 7 {
		t.Errorf("expected every call to reach the backend, got %d", calls)
	}
}
