package llm

import (
	"context"
	"fmt"
	"io"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/pkg/circuitbreaker"
)

// Provider 是可关闭的对话模型客户端。
type Provider interface {
	conversation.Provider
	io.Closer
}

// NewProvider 是一个工厂函数，根据配置创建对话模型客户端。
// 启用熔断时，安全拦截和空回答不计入失败次数。
func NewProvider(ctx context.Context, cfg config.LLMConfig, cb config.CircuitBreakerConfig) (Provider, error) {
	var breaker *circuitbreaker.Breaker
	if cb.Enabled {
		timeout, err := parseTimeout(cb.Timeout)
		if err != nil {
			return nil, err
		}
		breaker = circuitbreaker.New(cb.FailureThreshold, cb.SuccessThreshold, timeout,
			circuitbreaker.WithFailurePredicate(CountsAsOutage))
	}

	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Gemini, breaker)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
