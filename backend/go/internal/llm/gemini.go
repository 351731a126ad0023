package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/pkg/circuitbreaker"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// sendFunc 发送一轮对话: history 为之前的消息, last 为最后一条用户消息。
type sendFunc func(ctx context.Context, history []*genai.Content, last string) (*genai.GenerateContentResponse, error)

// Gemini 实现了 conversation.Provider 接口，用于与 Gemini API 交互。
type Gemini struct {
	client  *genai.Client
	send    sendFunc
	breaker *circuitbreaker.Breaker // 可以为 nil
}

var _ conversation.Provider = (*Gemini)(nil)

// NewGemini 创建一个新的 Gemini 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	cfg: Gemini 模型配置 (模型名称、采样参数、API 密钥)。
//	breaker: 熔断器，为 nil 时不启用。
//
// 返回值:
//
//	*Gemini: 新创建的 Gemini 客户端实例。
//	error: 如果无法创建 GenAI 客户端，则返回错误。
func NewGemini(ctx context.Context, cfg config.GeminiConfig, breaker *circuitbreaker.Breaker) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is not configured")
	}
	// 使用 API 密钥创建 GenAI 客户端。
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetTopK(cfg.TopK)
	model.SetTopP(cfg.TopP)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)

	send := func(ctx context.Context, history []*genai.Content, last string) (*genai.GenerateContentResponse, error) {
		// 每次请求使用独立的聊天会话，历史由调用方完整提供。
		cs := model.StartChat()
		cs.History = history
		return cs.SendMessage(ctx, genai.Text(last))
	}
	return &Gemini{client: client, send: send, breaker: breaker}, nil
}

// Generate 把有序的对话发送给 Gemini 并返回回答文本。
//
// 参数:
//
//	ctx: 上下文，用于控制请求的生命周期。
//	turns: 完整的对话，最后一条必须是用户消息。
//
// 返回值:
//
//	string: 模型的回答。
//	error: 安全拦截包装 conversation.ErrSafetyBlocked，限流包装 conversation.ErrThrottled，
//	       空回答返回 conversation.ErrEmptyResponse。
func (g *Gemini) Generate(ctx context.Context, turns []conversation.Turn) (string, error) {
	if len(turns) == 0 || turns[len(turns)-1].Role != conversation.RoleUser {
		return "", errors.New("conversation must end with a user turn")
	}
	history := toGenaiHistory(turns[:len(turns)-1])
	last := turns[len(turns)-1].Text

	var text string
	call := func() error {
		resp, err := g.send(ctx, history, last)
		if err != nil {
			return mapError(err)
		}
		text = responseText(resp)
		if strings.TrimSpace(text) == "" {
			return conversation.ErrEmptyResponse
		}
		return nil
	}

	var err error
	if g.breaker == nil {
		err = call()
	} else {
		err = g.breaker.Execute(call)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// Close 释放底层的 GenAI 客户端。
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// CountsAsOutage 判断一个错误是否应该计入熔断器。
// 安全拦截、限流和空回答说明服务本身可用，不计入；
// 限流必须原样返回给调用方，才能得到 "稍后再试" 的提示。
func CountsAsOutage(err error) bool {
	return err != nil &&
		!errors.Is(err, conversation.ErrSafetyBlocked) &&
		!errors.Is(err, conversation.ErrThrottled) &&
		!errors.Is(err, conversation.ErrEmptyResponse)
}

// toGenaiHistory 将内部的对话轮次转换为 GenAI Content，assistant 对应 Gemini 的 "model" 角色。
func toGenaiHistory(turns []conversation.Turn) []*genai.Content {
	history := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == conversation.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(t.Text)},
		})
	}
	return history
}

// responseText 拼接第一个候选回答中的所有文本部分。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// mapError 将 Gemini 返回的错误映射为 conversation 包中的哨兵错误。
func mapError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", conversation.ErrSafetyBlocked, err)
	}
	if status.Code(err) == codes.ResourceExhausted {
		return fmt.Errorf("%w: %v", conversation.ErrThrottled, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", conversation.ErrThrottled, err)
	}
	return err
}

func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid circuit breaker timeout duration: %w", err)
	}
	return d, nil
}
