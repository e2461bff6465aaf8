package repository

import (
	"context"
	"invest_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// UpsertProgress marks the lesson complete; a repeat completion overwrites the (user, lesson) row.
func (r *ProgressRepository) UpsertProgress(ctx context.Context, userID uint, lessonID, courseID string, completedAt time.Time) error {
	record := model.ProgressRecord{
		UserID:          userID,
		LessonID:        lessonID,
		CourseID:        courseID,
		CompletedAt:     &completedAt,
		ProgressPercent: 100,
	}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"course_id", "completed_at", "progress_percent", "updated_at"}),
		}).
		Create(&record).Error
}

func (r *ProgressRepository) ListCompletedLessonIDs(ctx context.Context, userID uint) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.ProgressRecord{}).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Pluck("lesson_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) ListCompletedLessons(ctx context.Context, userID uint) ([]model.CompletedLesson, error) {
	var rows []model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND completed_at IS NOT NULL", userID).
		Order("completed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]model.CompletedLesson, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.CompletedLesson{
			LessonID:    row.LessonID,
			CourseID:    row.CourseID,
			CompletedAt: *row.CompletedAt,
		})
	}
	return out, nil
}

func (r *ProgressRepository) GetRecord(ctx context.Context, userID uint, lessonID string) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
