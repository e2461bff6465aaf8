package service

import (
	"context"
	"fmt"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/logger"
	"invest_edu_backend/pkg/monitoring"
	"invest_edu_backend/pkg/tracing"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const rateScopeGeneration = "generation"

type CourseGeneratorService struct {
	Store       CourseStore
	AI          GenerativeTextClient
	Limiter     RateLimiter
	concurrency int
}

func NewCourseGeneratorService(store CourseStore, ai GenerativeTextClient, limiter RateLimiter, insertConcurrency int) *CourseGeneratorService {
	if insertConcurrency <= 0 {
		insertConcurrency = 1
	}
	return &CourseGeneratorService{
		Store:       store,
		AI:          ai,
		Limiter:     limiter,
		concurrency: insertConcurrency,
	}
}

// Generate turns a topic into a persisted course. Inserts after the course row are best-effort:
// failed modules and lessons are logged and counted in SkippedItems.
func (s *CourseGeneratorService) Generate(ctx context.Context, userID uint, topic string, level model.Level) (result *model.GenerationResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "CourseGenerator.Generate",
		attribute.String("topic", topic),
		attribute.String("level", string(level)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	if userID == 0 {
		return nil, util.ErrAuthenticationRequired
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", util.ErrInvalidInput)
	}
	if !level.Valid() {
		return nil, fmt.Errorf("%w: unknown level %q", util.ErrInvalidInput, level)
	}

	if err := enforceRateLimit(ctx, s.Limiter, rateScopeGeneration, userID); err != nil {
		return nil, err
	}

	raw, err := s.AI.Complete(ctx, courseOutlinePrompt(topic, level), CompletionOptions{
		System:         outlineSystemPrompt,
		ResponseFormat: FormatJSON,
		Purpose:        "course_outline",
	})
	if err != nil {
		return nil, asGenerationUnavailable(err)
	}

	outline, err := parseCourseOutline(raw)
	if err != nil {
		logger.Log.Warn("Discarding malformed course outline",
			zap.String("topic", topic),
			zap.String("raw", truncate(raw, 500)),
			zap.Error(err),
		)
		return nil, err
	}
	if !outline.withinRequestedShape() {
		logger.Log.Info("Course outline outside requested shape, accepting",
			zap.String("topic", topic),
			zap.Int("modules", len(outline.Modules)),
			zap.Int("lessons", outline.lessonCount()),
		)
	}

	course := &model.Course{
		Title:             outline.Title,
		Description:       outline.Description,
		Topic:             topic,
		Level:             level,
		EstimatedDuration: string(outline.EstimatedDuration),
		IsPublished:       true,
		CreatedBy:         userID,
	}
	if err := s.Store.InsertCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("%w: insert course: %v", util.ErrStoreWriteFailed, err)
	}

	skipped := s.insertModules(ctx, course.ID, outline.Modules)
	if skipped > 0 {
		monitoring.GenerationSkippedItems.Add(float64(skipped))
	}

	logger.Log.Info("Course generated",
		zap.String("course_id", course.ID),
		zap.Uint("user_id", userID),
		zap.Int("modules", len(outline.Modules)),
		zap.Int("lessons", outline.lessonCount()),
		zap.Int("skipped", skipped),
	)

	return &model.GenerationResult{CourseID: course.ID, SkippedItems: skipped}, nil
}

func (s *CourseGeneratorService) insertModules(ctx context.Context, courseID string, modules []moduleOutline) int {
	skipped := 0
	for i, m := range modules {
		module := &model.Module{
			CourseID:    courseID,
			Title:       m.Title,
			Description: m.Description,
			OrderIndex:  i,
		}
		if err := s.Store.InsertModule(ctx, module); err != nil {
			logger.Log.Error("Failed to insert module, skipping its lessons",
				zap.String("course_id", courseID),
				zap.Int("order_index", i),
				zap.Int("lessons_skipped", len(m.Lessons)),
				zap.Error(err),
			)
			skipped += 1 + len(m.Lessons)
			continue
		}
		skipped += s.insertLessons(ctx, module.ID, m.Lessons)
	}
	return skipped
}

func (s *CourseGeneratorService) insertLessons(ctx context.Context, moduleID string, lessons []lessonOutline) int {
	var skipped atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, l := range lessons {
		lesson := &model.Lesson{
			ModuleID:        moduleID,
			Title:           l.Title,
			ContentType:     model.ContentType(l.ContentType),
			DurationMinutes: int(l.DurationMinutes),
			OrderIndex:      i,
		}
		g.Go(func() error {
			if err := s.Store.InsertLesson(gctx, lesson); err != nil {
				logger.Log.Error("Failed to insert lesson",
					zap.String("module_id", moduleID),
					zap.Int("order_index", lesson.OrderIndex),
					zap.Error(err),
				)
				skipped.Add(1)
			}
			// siblings keep going
			return nil
		})
	}
	_ = g.Wait()
	return int(skipped.Load())
}
