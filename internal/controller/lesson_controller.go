package controller

import (
	"invest_edu_backend/internal/service"
	"invest_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	Content  *service.LessonContentService
	Progress *service.ProgressService
}

func NewLessonController(content *service.LessonContentService, progress *service.ProgressService) *LessonController {
	return &LessonController{Content: content, Progress: progress}
}

// GetLesson godoc
// @Summary Lesson content, generated on first read
// @Tags lessons
// @Produce json
// @Param id path string true "lesson id"
// @Success 200 {object} util.Response{data=model.LessonView}
// @Failure 404 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/lessons/{id} [get]
func (c *LessonController) GetLesson(ctx *gin.Context) {
	lessonID := ctx.Param("id")
	if !util.IsUUID(lessonID) {
		util.HandleServiceError(ctx, util.ErrLessonNotFound)
		return
	}
	view, err := c.Content.Resolve(ctx.Request.Context(), lessonID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary Mark a lesson complete
// @Tags lessons
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "lesson id"
// @Success 200 {object} util.Response
// @Router /api/lessons/{id}/complete [post]
func (c *LessonController) CompleteLesson(ctx *gin.Context) {
	lessonID := ctx.Param("id")
	if err := c.Progress.CompleteLesson(ctx.Request.Context(), util.CallerID(ctx), lessonID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"lessonId": lessonID, "completed": true})
}

// @Summary Whether the caller completed a lesson
// @Tags lessons
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "lesson id"
// @Success 200 {object} util.Response
// @Router /api/lessons/{id}/status [get]
func (c *LessonController) GetStatus(ctx *gin.Context) {
	lessonID := ctx.Param("id")
	done, err := c.Progress.IsComplete(ctx.Request.Context(), lessonID, util.CallerID(ctx))
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"lessonId": lessonID, "completed": done})
}
