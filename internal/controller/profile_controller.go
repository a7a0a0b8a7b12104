package controller

import (
	"errors"
	"lerntrainer_backend/internal/config"
	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	ProfileService *service.ProfileService
	Config         *config.Config
}

func NewProfileController(profileService *service.ProfileService, cfg *config.Config) *ProfileController {
	return &ProfileController{ProfileService: profileService, Config: cfg}
}

// @Summary 创建学习档案
// @Description 注册新档案（入门引导），返回档案与访问令牌
// @Tags 档案
// @Accept json
// @Produce json
// @Param profile body service.CreateProfileRequest true "档案信息"
// @Success 201 {object} util.Response
// @Router /api/profiles [post]
func (c *ProfileController) CreateProfile(ctx *gin.Context) {
	var req service.CreateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.ProfileService.CreateProfile(ctx.Request.Context(), req)
	if err != nil {
		if errors.Is(err, util.ErrNicknameTaken) {
			util.Conflict(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	token, err := util.GenerateJWT(profile, c.Config.JWT.Secret, c.Config.JWT.ExpireTime)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{
		"profile": profile,
		"token":   token,
	})
}

// @Summary 获取当前档案
// @Description 读取档案总览（快照优先），含派生等级与连续学习状态
// @Tags 档案
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/profiles/me [get]
func (c *ProfileController) GetMyProfile(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	overview, err := c.ProfileService.Overview(ctx.Request.Context(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, util.ErrProfileNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, overview)
}

// @Summary 排行榜
// @Description 按总星数返回档案排行
// @Tags 档案
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "返回数量" default(10)
// @Success 200 {object} util.Response
// @Router /api/profiles/leaderboard [get]
func (c *ProfileController) GetLeaderboard(ctx *gin.Context) {
	limit := 10
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	leaderboard, err := c.ProfileService.GetLeaderboard(limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, leaderboard)
}

// @Summary 重置档案
// @Description 教师发起的整体重置：删除档案并级联删除全部结果记录
// @Tags 档案
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "档案ID"
// @Success 200 {object} util.Response
// @Router /api/profiles/{id} [delete]
func (c *ProfileController) ResetProfile(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(ctx, "invalid profile id")
		return
	}

	if err := c.ProfileService.ResetProfile(ctx.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, util.ErrProfileNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"reset": true})
}
