package service

import (
	"context"
	"fmt"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/logger"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	intermediateTierAt = 5
	advancedTierAt     = 15
	fiveLessonsBadgeAt = 5
)

type ProgressService struct {
	Store ContentStore
	Cache ProgressCache
	now   func() time.Time
}

func NewProgressService(store ContentStore, cache ProgressCache) *ProgressService {
	if cache == nil {
		cache = NoopProgressCache{}
	}
	return &ProgressService{Store: store, Cache: cache, now: time.Now}
}

// completedSet reads through the cache to the store.
func (s *ProgressService) completedSet(ctx context.Context, userID uint) (map[string]struct{}, error) {
	ids, ok := s.Cache.Get(ctx, userID)
	if !ok {
		gen := s.Cache.Generation(ctx, userID)
		var err error
		ids, err = s.Store.ListCompletedLessonIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.Cache.Set(ctx, userID, gen, ids)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// PercentComplete returns 0..100 for the user's completion of one course.
func (s *ProgressService) PercentComplete(ctx context.Context, courseID string, userID uint) (int, error) {
	if userID == 0 {
		return 0, util.ErrAuthenticationRequired
	}
	done, total, err := s.courseCounts(ctx, courseID, userID)
	if err != nil {
		return 0, err
	}
	return percentComplete(done, total), nil
}

func (s *ProgressService) courseCounts(ctx context.Context, courseID string, userID uint) (done, total int, err error) {
	lessonIDs, err := s.Store.ListCourseLessonIDs(ctx, courseID)
	if err != nil {
		return 0, 0, err
	}
	completed, err := s.completedSet(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	for _, id := range lessonIDs {
		if _, ok := completed[id]; ok {
			done++
		}
	}
	return done, len(lessonIDs), nil
}

// percentComplete rounds half up but never reports 100 before every lesson is done.
func percentComplete(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	p := int(math.Round(100 * float64(done) / float64(total)))
	if p >= 100 {
		p = 99
	}
	return p
}

func (s *ProgressService) IsComplete(ctx context.Context, lessonID string, userID uint) (bool, error) {
	if userID == 0 {
		return false, util.ErrAuthenticationRequired
	}
	completed, err := s.completedSet(ctx, userID)
	if err != nil {
		return false, err
	}
	_, ok := completed[lessonID]
	return ok, nil
}

// CompleteLesson records the lesson as done for the user. Repeat calls refresh completedAt.
func (s *ProgressService) CompleteLesson(ctx context.Context, userID uint, lessonID string) error {
	if userID == 0 {
		return util.ErrAuthenticationRequired
	}
	courseID, err := s.Store.LessonCourseID(ctx, lessonID)
	if err != nil {
		return err
	}
	if err := s.Store.UpsertProgress(ctx, userID, lessonID, courseID, s.now().UTC()); err != nil {
		return fmt.Errorf("%w: upsert progress: %v", util.ErrStoreWriteFailed, err)
	}
	s.Cache.Invalidate(ctx, userID)

	logger.Log.Info("Lesson completed",
		zap.Uint("user_id", userID),
		zap.String("lesson_id", lessonID),
		zap.String("course_id", courseID),
	)
	return nil
}

func (s *ProgressService) Summary(ctx context.Context, courseID string, userID uint) (*model.ProgressSummary, error) {
	if userID == 0 {
		return nil, util.ErrAuthenticationRequired
	}
	done, total, err := s.courseCounts(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.Store.ListCompletedLessons(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	percent := percentComplete(done, total)
	return &model.ProgressSummary{
		CourseID:         courseID,
		PercentComplete:  percent,
		CompletedLessons: done,
		TotalLessons:     total,
		TotalCompleted:   len(history),
		Tier:             TierFor(len(history)),
		StreakDays:       StreakDays(history, now),
		Badges:           badgesFor(len(history), percent == 100),
		GeneratedAt:      now.UTC(),
	}, nil
}

// TierFor is a monotone step function of total completed lessons.
func TierFor(completed int) model.LearnerTier {
	switch {
	case completed >= advancedTierAt:
		return model.TierAdvanced
	case completed >= intermediateTierAt:
		return model.TierIntermediate
	default:
		return model.TierBeginner
	}
}

// StreakDays counts consecutive UTC days with at least one completion, ending today or yesterday.
func StreakDays(history []model.CompletedLesson, now time.Time) int {
	if len(history) == 0 {
		return 0
	}
	days := make(map[string]struct{}, len(history))
	for _, h := range history {
		days[h.CompletedAt.UTC().Format(util.DateFormat)] = struct{}{}
	}

	day := now.UTC()
	if _, ok := days[day.Format(util.DateFormat)]; !ok {
		day = day.AddDate(0, 0, -1)
		if _, ok := days[day.Format(util.DateFormat)]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := days[day.Format(util.DateFormat)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func badgesFor(totalCompleted int, courseComplete bool) []model.Badge {
	badges := []model.Badge{}
	if totalCompleted >= 1 {
		badges = append(badges, model.BadgeFirstLesson)
	}
	if totalCompleted >= fiveLessonsBadgeAt {
		badges = append(badges, model.BadgeFiveLessons)
	}
	if courseComplete {
		badges = append(badges, model.BadgeCourseComplete)
	}
	return badges
}
