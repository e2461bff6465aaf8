package controller

import (
	"invest_edu_backend/internal/model"
	"invest_edu_backend/internal/service"
	"invest_edu_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	Generator *service.CourseGeneratorService
	Courses   *service.CourseService
	Progress  *service.ProgressService
}

func NewCourseController(generator *service.CourseGeneratorService, courses *service.CourseService, progress *service.ProgressService) *CourseController {
	return &CourseController{
		Generator: generator,
		Courses:   courses,
		Progress:  progress,
	}
}

type GenerateCourseRequest struct {
	Topic string      `json:"topic" binding:"required,max=200"`
	Level model.Level `json:"level" binding:"required,oneof=beginner intermediate advanced"`
}

// GenerateCourse godoc
// @Summary Generate a course from a topic
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body GenerateCourseRequest true "topic and level"
// @Success 201 {object} util.Response{data=model.GenerationResult}
// @Failure 429 {object} util.Response
// @Failure 502 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/courses/generate [post]
func (c *CourseController) GenerateCourse(ctx *gin.Context) {
	var req GenerateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Generator.Generate(ctx.Request.Context(), util.CallerID(ctx), req.Topic, req.Level)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Created(ctx, result)
}

// @Summary Course with ordered modules and lessons
// @Tags courses
// @Produce json
// @Param id path string true "course id"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	courseID := ctx.Param("id")
	if !util.IsUUID(courseID) {
		util.HandleServiceError(ctx, util.ErrCourseNotFound)
		return
	}
	course, err := c.Courses.GetCourse(ctx.Request.Context(), courseID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// @Summary Courses generated by the caller
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "max items"
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) ListMyCourses(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	courses, err := c.Courses.ListMine(ctx.Request.Context(), util.CallerID(ctx), limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// @Summary Caller's progress summary for a course
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "course id"
// @Success 200 {object} util.Response{data=model.ProgressSummary}
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) GetProgress(ctx *gin.Context) {
	courseID := ctx.Param("id")
	if !util.IsUUID(courseID) {
		util.HandleServiceError(ctx, util.ErrCourseNotFound)
		return
	}
	summary, err := c.Progress.Summary(ctx.Request.Context(), courseID, util.CallerID(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
