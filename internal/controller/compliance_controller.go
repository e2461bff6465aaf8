package controller

import (
	"invest_edu_backend/internal/compliance"
	"invest_edu_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

type ComplianceController struct{}

func NewComplianceController() *ComplianceController {
	return &ComplianceController{}
}

// @Summary Active compliance policy and rule tags
// @Tags admin
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/compliance/policy [get]
func (c *ComplianceController) Policy(ctx *gin.Context) {
	rules := compliance.Rules()
	out := make([]gin.H, 0, len(rules))
	for _, r := range rules {
		out = append(out, gin.H{"tag": r.Tag, "kind": r.Kind})
	}
	util.Success(ctx, gin.H{
		"policyVersion": compliance.PolicyVersion,
		"rules":         out,
	})
}

type ScreenRequest struct {
	Text string `json:"text" binding:"required"`
}

// @Summary Dry-run the compliance filter on a text
// @Tags admin
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body ScreenRequest true "text to screen"
// @Success 200 {object} util.Response
// @Router /api/admin/compliance/screen [post]
func (c *ComplianceController) Screen(ctx *gin.Context) {
	var req ScreenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	result := compliance.Validate(req.Text, time.Now())
	util.Success(ctx, gin.H{
		"result":  result,
		"matches": result.Matches,
	})
}
