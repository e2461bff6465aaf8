package service

import (
	"context"
	"fmt"
	"invest_edu_backend/internal/compliance"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/logger"
	"invest_edu_backend/pkg/tracing"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	rateScopeChat       = "chat"
	chatContextMessages = 6
	maxQuestionLength   = 2000
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type ChatReply struct {
	Answer    string                 `json:"answer"`
	Compliant bool                   `json:"compliant"`
	Issues    []compliance.IssueKind `json:"issues"`
}

// ChatService is the advisor chat. Every answer goes through the compliance filter
// before it is returned or stored.
type ChatService struct {
	Store   ChatStore
	AI      GenerativeTextClient
	Limiter RateLimiter
	now     func() time.Time
}

func NewChatService(store ChatStore, ai GenerativeTextClient, limiter RateLimiter) *ChatService {
	return &ChatService{Store: store, AI: ai, Limiter: limiter, now: time.Now}
}

func (s *ChatService) Ask(ctx context.Context, userID uint, question string) (reply *ChatReply, err error) {
	ctx, span := tracing.StartSpan(ctx, "AdvisorChat.Ask")
	defer func() { tracing.EndSpan(span, err) }()

	if userID == 0 {
		return nil, util.ErrAuthenticationRequired
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", util.ErrInvalidInput)
	}
	if utf8.RuneCountInString(question) > maxQuestionLength {
		return nil, fmt.Errorf("%w: question exceeds %d characters", util.ErrInvalidInput, maxQuestionLength)
	}

	if err := enforceRateLimit(ctx, s.Limiter, rateScopeChat, userID); err != nil {
		return nil, err
	}

	history, err := s.Store.ListRecent(ctx, userID, chatContextMessages)
	if err != nil {
		logger.Log.Warn("Failed to load chat history, answering without context",
			zap.Uint("user_id", userID), zap.Error(err))
		history = nil
	}

	asked := s.now()
	raw, err := s.AI.Complete(ctx, advisorPrompt(question, history), CompletionOptions{
		System:         advisorSystemPrompt,
		ResponseFormat: FormatText,
		Purpose:        "advisor_chat",
	})
	if err != nil {
		return nil, asGenerationUnavailable(err)
	}

	screened := compliance.Validate(strings.TrimSpace(raw), s.now())
	if !screened.Compliant {
		recordRejection(screened)
		logger.Log.Warn("Advisor answer replaced by compliance fallback",
			zap.Uint("user_id", userID),
			zap.String("policy_version", screened.PolicyVersion),
			zap.Any("matches", screened.Matches),
		)
	}

	userMsg := &model.ChatMessage{UserID: userID, Role: model.ChatRoleUser, Content: question, Compliant: true}
	userMsg.CreatedAt = asked
	answerMsg := &model.ChatMessage{
		UserID:    userID,
		Role:      model.ChatRoleAssistant,
		Content:   screened.EmittedText,
		Compliant: screened.Compliant,
		Issues:    joinIssues(screened.Issues),
	}
	// keep the answer strictly after the question when both land in the same clock tick
	answerMsg.CreatedAt = asked.Add(time.Millisecond)
	if t := s.now(); t.After(answerMsg.CreatedAt) {
		answerMsg.CreatedAt = t
	}
	if err := s.Store.SaveMessages(ctx, userMsg, answerMsg); err != nil {
		logger.Log.Error("Failed to persist chat exchange", zap.Uint("user_id", userID), zap.Error(err))
	}

	return &ChatReply{
		Answer:    screened.EmittedText,
		Compliant: screened.Compliant,
		Issues:    screened.Issues,
	}, nil
}

func (s *ChatService) History(ctx context.Context, userID uint, limit int) ([]model.ChatMessage, error) {
	if userID == 0 {
		return nil, util.ErrAuthenticationRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return s.Store.ListRecent(ctx, userID, limit)
}

func joinIssues(issues []compliance.IssueKind) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = string(issue)
	}
	return strings.Join(parts, ",")
}
