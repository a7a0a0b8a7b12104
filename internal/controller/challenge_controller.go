package controller

import (
	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChallengeController struct {
	ChallengeService *service.ChallengeService
}

func NewChallengeController(challengeService *service.ChallengeService) *ChallengeController {
	return &ChallengeController{ChallengeService: challengeService}
}

type recordChallengeRequest struct {
	Stars int  `json:"stars" binding:"min=0,max=3"`
	Bonus bool `json:"bonus"`
}

// @Summary 当天挑战状态
// @Description 普通挑战与奖励挑战的完成情况与星数
// @Tags 每日挑战
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/challenges/today [get]
func (c *ChallengeController) Today(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	status, err := c.ChallengeService.Today(ctx.Request.Context(), claims.ProfileID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, status)
}

// @Summary 记录挑战星数
// @Description 记录当天挑战结果，重复记录取较高星数
// @Tags 每日挑战
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param challenge body recordChallengeRequest true "挑战结果"
// @Success 200 {object} util.Response
// @Router /api/challenges/record [post]
func (c *ChallengeController) Record(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req recordChallengeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	rctx := ctx.Request.Context()
	var err error
	if req.Bonus {
		err = c.ChallengeService.RecordBonus(rctx, claims.ProfileID, req.Stars)
	} else {
		err = c.ChallengeService.RecordDaily(rctx, claims.ProfileID, req.Stars)
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"recorded": true})
}
