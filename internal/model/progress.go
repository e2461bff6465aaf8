package model

import "time"

type ProgressRecord struct {
	ID              uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"userId"`
	LessonID        string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_progress_user_lesson" json:"lessonId"`
	CourseID        string     `gorm:"type:varchar(36);not null;index" json:"courseId"`
	CompletedAt     *time.Time `json:"completedAt"`
	ProgressPercent int        `gorm:"not null;default:0" json:"progressPercent"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (ProgressRecord) TableName() string {
	return "progress_records"
}
