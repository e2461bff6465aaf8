package service

import (
	"context"
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/util"
)

const maxCoursesPerPage = 50

// CourseService serves read access to generated courses.
type CourseService struct {
	Store CourseStore
}

func NewCourseService(store CourseStore) *CourseService {
	return &CourseService{Store: store}
}

func (s *CourseService) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	return s.Store.ListCourseWithHierarchy(ctx, courseID)
}

func (s *CourseService) ListMine(ctx context.Context, userID uint, limit int) ([]model.Course, error) {
	if userID == 0 {
		return nil, util.ErrAuthenticationRequired
	}
	if limit <= 0 || limit > maxCoursesPerPage {
		limit = maxCoursesPerPage
	}
	return s.Store.ListCoursesByCreator(ctx, userID, limit)
}
