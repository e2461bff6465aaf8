package service

import (
	"context"
	"fmt"
	"invest_edu_backend/internal/config"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/logger"
	"invest_edu_backend/pkg/monitoring"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const defaultSystemPrompt = "You are a patient investment-education tutor. You explain financial concepts clearly and neutrally. You never recommend specific securities or transactions and never predict returns."

// AIService talks to an OpenAI-compatible /chat/completions endpoint.
type AIService struct {
	config config.AIConfig
	client *resty.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout()).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		})

	return &AIService{config: cfg, client: client}
}

// SetRetryWait adjusts the backoff bounds between retries.
func (s *AIService) SetRetryWait(min, max time.Duration) *AIService {
	s.client.SetRetryWaitTime(min).SetRetryMaxWaitTime(max)
	return s
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []AIChatMessage   `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

func (s *AIService) Complete(ctx context.Context, prompt string, opts CompletionOptions) (text string, err error) {
	start := time.Now()
	purpose := opts.Purpose
	if purpose == "" {
		purpose = "completion"
	}
	defer func() {
		monitoring.ObserveAIRequest(purpose, err, start)
	}()

	system := opts.System
	if system == "" {
		system = defaultSystemPrompt
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.config.MaxTokens
	}

	reqBody := chatCompletionRequest{
		Model: s.config.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
	}
	if opts.ResponseFormat == FormatJSON {
		reqBody.ResponseFormat = map[string]string{"type": "json_object"}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(reqBody).
		Post("/chat/completions")
	if err != nil {
		logger.Log.Warn("AI request failed", zap.String("purpose", purpose), zap.Error(err))
		return "", fmt.Errorf("%w: %v", util.ErrGenerationUnavailable, err)
	}

	if resp.IsError() {
		logger.Log.Warn("AI API returned error status",
			zap.String("purpose", purpose),
			zap.Int("status", resp.StatusCode()),
			zap.Int("attempts", resp.Request.Attempt),
		)
		return "", fmt.Errorf("%w: AI API error (status %d): %s", util.ErrGenerationUnavailable, resp.StatusCode(), truncate(resp.String(), 300))
	}

	if msg := gjson.GetBytes(resp.Body(), "error.message"); msg.Exists() {
		return "", fmt.Errorf("%w: AI API error: %s", util.ErrGenerationUnavailable, msg.String())
	}

	content := gjson.GetBytes(resp.Body(), "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("%w: AI returned no choices", util.ErrGenerationUnavailable)
	}

	return content.String(), nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
