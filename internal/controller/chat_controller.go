package controller

import (
	"invest_edu_backend/internal/service"
	"invest_edu_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ChatController struct {
	ChatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{ChatService: chatService}
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask godoc
// @Summary Ask the education assistant
// @Description Answers are screened for advice and return projections before they are returned.
// @Tags chat
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body AskRequest true "question"
// @Success 200 {object} util.Response{data=service.ChatReply}
// @Failure 429 {object} util.Response
// @Router /api/chat/ask [post]
func (c *ChatController) Ask(ctx *gin.Context) {
	var req AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.ChatService.Ask(ctx.Request.Context(), util.CallerID(ctx), req.Question)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, reply)
}

// @Summary Chat transcript, oldest first
// @Tags chat
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "max messages"
// @Success 200 {object} util.Response{data=[]model.ChatMessage}
// @Router /api/chat/history [get]
func (c *ChatController) History(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	msgs, err := c.ChatService.History(ctx.Request.Context(), util.CallerID(ctx), limit)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	util.Success(ctx, msgs)
}
