package repository

import "gorm.io/gorm"

// ContentRepository is the single store over the course hierarchy and learner progress.
type ContentRepository struct {
	*CourseRepository
	*ProgressRepository
}

func NewContentRepository(db *gorm.DB) *ContentRepository {
	return &ContentRepository{
		CourseRepository:   NewCourseRepository(db),
		ProgressRepository: NewProgressRepository(db),
	}
}
