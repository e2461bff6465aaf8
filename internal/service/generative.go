package service

import (
	"context"
	"errors"
	"fmt"
	"invest_edu_backend/internal/util"
)

type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

type CompletionOptions struct {
	// System overrides the default system prompt.
	System         string
	ResponseFormat ResponseFormat
	MaxTokens      int
	// Purpose labels metrics and logs, e.g. "course_outline".
	Purpose string
}

// GenerativeTextClient is the only boundary to the AI provider.
type GenerativeTextClient interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// asGenerationUnavailable keeps the taxonomy intact for clients that return raw transport errors.
func asGenerationUnavailable(err error) error {
	if errors.Is(err, util.ErrGenerationUnavailable) || errors.Is(err, util.ErrMalformedGenerationOutput) {
		return err
	}
	return fmt.Errorf("%w: %v", util.ErrGenerationUnavailable, err)
}
