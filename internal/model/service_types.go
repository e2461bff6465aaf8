package model

import "time"

// LessonView is what a reader of one lesson gets back.
type LessonView struct {
	LessonID        string      `json:"lessonId"`
	CourseID        string      `json:"courseId"`
	Title           string      `json:"title"`
	Content         string      `json:"content"`
	ContentType     ContentType `json:"contentType"`
	DurationMinutes int         `json:"durationMinutes"`
	ModuleTitle     string      `json:"moduleTitle"`
	CourseTitle     string      `json:"courseTitle"`
	Cached          bool        `json:"cached"`
}

type GenerationResult struct {
	CourseID     string `json:"courseId"`
	SkippedItems int    `json:"skippedItems"`
}

type LearnerTier string

const (
	TierBeginner     LearnerTier = "beginner"
	TierIntermediate LearnerTier = "intermediate"
	TierAdvanced     LearnerTier = "advanced"
)

type Badge string

const (
	BadgeFirstLesson    Badge = "first_lesson"
	BadgeFiveLessons    Badge = "five_lessons"
	BadgeCourseComplete Badge = "course_complete"
)

type ProgressSummary struct {
	CourseID         string      `json:"courseId"`
	PercentComplete  int         `json:"percentComplete"`
	CompletedLessons int         `json:"completedLessons"`
	TotalLessons     int         `json:"totalLessons"`
	TotalCompleted   int         `json:"totalCompleted"`
	Tier             LearnerTier `json:"tier"`
	StreakDays       int         `json:"streakDays"`
	Badges           []Badge     `json:"badges"`
	GeneratedAt      time.Time   `json:"generatedAt"`
}

// CompletedLesson is the subset of a ProgressRecord the tracker derives from.
type CompletedLesson struct {
	LessonID    string    `json:"lessonId"`
	CourseID    string    `json:"courseId"`
	CompletedAt time.Time `json:"completedAt"`
}
