package service

import (
	"context"
	"fmt"
	"invest_edu_backend/internal/compliance"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/logger"
	"invest_edu_backend/pkg/monitoring"
	"invest_edu_backend/pkg/tracing"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type LessonContentService struct {
	Store CourseStore
	AI    GenerativeTextClient
	now   func() time.Time
}

func NewLessonContentService(store CourseStore, ai GenerativeTextClient) *LessonContentService {
	return &LessonContentService{Store: store, AI: ai, now: time.Now}
}

// Resolve returns lesson content, generating and caching it on first access.
// Once a lesson is cached it is served from the store and never regenerated.
func (s *LessonContentService) Resolve(ctx context.Context, lessonID string) (view *model.LessonView, err error) {
	ctx, span := tracing.StartSpan(ctx, "LessonContent.Resolve", attribute.String("lesson_id", lessonID))
	defer func() { tracing.EndSpan(span, err) }()

	lesson, err := s.Store.GetLessonWithContext(ctx, lessonID)
	if err != nil {
		return nil, err
	}

	if lesson.IsGenerated {
		if lesson.ContentMarkdown != nil {
			monitoring.LessonCacheCounter.WithLabelValues("hit").Inc()
			return buildLessonView(lesson, *lesson.ContentMarkdown, true), nil
		}
		logger.Log.Warn("Lesson marked generated without content, regenerating", zap.String("lesson_id", lessonID))
	}
	monitoring.LessonCacheCounter.WithLabelValues("miss").Inc()

	course, moduleTitle := lessonParents(lesson)
	raw, err := s.AI.Complete(ctx, lessonContentPrompt(lesson.Title, course, moduleTitle), CompletionOptions{
		System:         lessonSystemPrompt,
		ResponseFormat: FormatText,
		Purpose:        "lesson_content",
	})
	if err != nil {
		return nil, asGenerationUnavailable(err)
	}

	text := stripCodeFence(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty lesson content", util.ErrMalformedGenerationOutput)
	}

	screened := compliance.Validate(text, s.now())
	if !screened.Compliant {
		recordRejection(screened)
		logger.Log.Warn("Generated lesson failed compliance, serving fallback uncached",
			zap.String("lesson_id", lessonID),
			zap.Any("matches", screened.Matches),
		)
		return buildLessonView(lesson, screened.EmittedText, false), nil
	}

	if err := s.Store.UpdateLessonContent(ctx, lessonID, screened.EmittedText); err != nil {
		logger.Log.Error("Failed to cache lesson content",
			zap.String("lesson_id", lessonID),
			zap.Error(err),
		)
	}

	return buildLessonView(lesson, screened.EmittedText, false), nil
}

func lessonParents(lesson *model.Lesson) (*model.Course, string) {
	course := &model.Course{}
	moduleTitle := ""
	if lesson.Module != nil {
		moduleTitle = lesson.Module.Title
		if lesson.Module.Course != nil {
			course = lesson.Module.Course
		}
	}
	return course, moduleTitle
}

func buildLessonView(lesson *model.Lesson, content string, cached bool) *model.LessonView {
	course, moduleTitle := lessonParents(lesson)
	return &model.LessonView{
		LessonID:        lesson.ID,
		CourseID:        course.ID,
		Title:           lesson.Title,
		Content:         content,
		ContentType:     lesson.ContentType,
		DurationMinutes: lesson.DurationMinutes,
		ModuleTitle:     moduleTitle,
		CourseTitle:     course.Title,
		Cached:          cached,
	}
}

func recordRejection(r compliance.Result) {
	for _, issue := range r.Issues {
		monitoring.ComplianceRejections.WithLabelValues(string(issue)).Inc()
	}
}
