package repository

import (
	"context"
	"errors"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) InsertCourse(ctx context.Context, course *model.Course) error {
	return r.DB.WithContext(ctx).Omit("Modules").Create(course).Error
}

func (r *CourseRepository) InsertModule(ctx context.Context, module *model.Module) error {
	return r.DB.WithContext(ctx).Omit("Lessons", "Course").Create(module).Error
}

func (r *CourseRepository) InsertLesson(ctx context.Context, lesson *model.Lesson) error {
	return r.DB.WithContext(ctx).Omit("Module").Create(lesson).Error
}

// GetLessonWithContext loads the lesson with its module and course.
func (r *CourseRepository) GetLessonWithContext(ctx context.Context, lessonID string) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.WithContext(ctx).
		Preload("Module.Course").
		Where("id = ?", lessonID).
		First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	if err != nil {
		return nil, err
	}
	if lesson.Module == nil || lesson.Module.Course == nil {
		return nil, util.ErrLessonNotFound
	}
	return &lesson, nil
}

// UpdateLessonContent stores the markdown and flips isGenerated in a single statement.
func (r *CourseRepository) UpdateLessonContent(ctx context.Context, lessonID string, markdown string) error {
	res := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Where("id = ?", lessonID).
		Updates(map[string]interface{}{
			"content_markdown": markdown,
			"is_generated":     true,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return util.ErrLessonNotFound
	}
	return nil
}

func (r *CourseRepository) ListCourseWithHierarchy(ctx context.Context, courseID string) (*model.Course, error) {
	var course model.Course
	err := r.DB.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("id = ?", courseID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) CourseExists(ctx context.Context, courseID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.Course{}).Where("id = ?", courseID).Count(&count).Error
	return count > 0, err
}

func (r *CourseRepository) ListCourseLessonIDs(ctx context.Context, courseID string) ([]string, error) {
	exists, err := r.CourseExists(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, util.ErrCourseNotFound
	}

	var ids []string
	err = r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Pluck("lessons.id", &ids).Error
	return ids, err
}

// LessonCourseID resolves which course a lesson belongs to.
func (r *CourseRepository) LessonCourseID(ctx context.Context, lessonID string) (string, error) {
	var courseIDs []string
	err := r.DB.WithContext(ctx).
		Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lessons.id = ?", lessonID).
		Limit(1).
		Pluck("course_modules.course_id", &courseIDs).Error
	if err != nil {
		return "", err
	}
	if len(courseIDs) == 0 {
		return "", util.ErrLessonNotFound
	}
	return courseIDs[0], nil
}

func (r *CourseRepository) ListCoursesByCreator(ctx context.Context, userID uint, limit int) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.WithContext(ctx).
		Where("created_by = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&courses).Error
	return courses, err
}
