package controller

import (
	"errors"
	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AchievementController struct {
	AchievementService *service.AchievementService
	ProfileService     *service.ProfileService
	NotificationRepo   service.NotificationRepo
}

func NewAchievementController(
	achievementService *service.AchievementService,
	profileService *service.ProfileService,
	notificationRepo service.NotificationRepo,
) *AchievementController {
	return &AchievementController{
		AchievementService: achievementService,
		ProfileService:     profileService,
		NotificationRepo:   notificationRepo,
	}
}

// @Summary 获取全部徽章与进度
// @Description 每个徽章的获得状态与进度百分比（0-100）
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/badges [get]
func (c *AchievementController) GetBadges(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.ProfileService.GetProfile(ctx.Request.Context(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, util.ErrProfileNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	badges, err := c.AchievementService.GetAllBadgesWithProgress(profile)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, badges)
}

// @Summary 待展示通知
// @Description 新徽章 FIFO 队列 + 至多一个待展示的升级提示
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/notifications [get]
func (c *AchievementController) GetNotifications(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rctx := ctx.Request.Context()
	badges, err := c.NotificationRepo.PendingBadges(rctx, claims.ProfileID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	levelUp, err := c.NotificationRepo.PendingLevelUp(rctx, claims.ProfileID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"badges":         badges,
		"pendingLevelUp": levelUp,
	})
}

// @Summary 确认一条徽章通知
// @Description 弹出 FIFO 队首
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/notifications/dismiss [post]
func (c *AchievementController) DismissNotification(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.NotificationRepo.DismissBadge(ctx.Request.Context(), claims.ProfileID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"dismissed": true})
}

// @Summary 清空通知
// @Description 清空徽章队列并清除升级提示
// @Tags 成就系统
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/achievements/notifications/clear [post]
func (c *AchievementController) ClearNotifications(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	rctx := ctx.Request.Context()
	if err := c.NotificationRepo.ClearBadges(rctx, claims.ProfileID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if err := c.NotificationRepo.ClearPendingLevelUp(rctx, claims.ProfileID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"cleared": true})
}
