package service

import (
	"context"
	"invest_edu_backend/internal/model"
	"time"
)

// CourseStore is the part of the content store the generation and resolution paths use.
type CourseStore interface {
	InsertCourse(ctx context.Context, course *model.Course) error
	InsertModule(ctx context.Context, module *model.Module) error
	InsertLesson(ctx context.Context, lesson *model.Lesson) error
	GetLessonWithContext(ctx context.Context, lessonID string) (*model.Lesson, error)
	UpdateLessonContent(ctx context.Context, lessonID string, markdown string) error
	ListCourseWithHierarchy(ctx context.Context, courseID string) (*model.Course, error)
	ListCourseLessonIDs(ctx context.Context, courseID string) ([]string, error)
	LessonCourseID(ctx context.Context, lessonID string) (string, error)
	ListCoursesByCreator(ctx context.Context, userID uint, limit int) ([]model.Course, error)
}

type ProgressStore interface {
	UpsertProgress(ctx context.Context, userID uint, lessonID, courseID string, completedAt time.Time) error
	ListCompletedLessonIDs(ctx context.Context, userID uint) ([]string, error)
	ListCompletedLessons(ctx context.Context, userID uint) ([]model.CompletedLesson, error)
}

// ContentStore is the full store contract over courses, modules, lessons and progress.
type ContentStore interface {
	CourseStore
	ProgressStore
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type ChatStore interface {
	SaveMessages(ctx context.Context, msgs ...*model.ChatMessage) error
	ListRecent(ctx context.Context, userID uint, limit int) ([]model.ChatMessage, error)
}
