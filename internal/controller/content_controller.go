package controller

import (
	"errors"
	"strconv"

	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	ContentService *service.ContentService
}

func NewContentController(contentService *service.ContentService) *ContentController {
	return &ContentController{ContentService: contentService}
}

type importExercisesRequest struct {
	Exercises []service.ExerciseImport `json:"exercises" binding:"required,min=1,dive"`
}

// @Summary 导入题目内容包
// @Description 教师角色批量导入题目，已存在的按 exerciseId 覆盖
// @Tags 内容管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param pack body importExercisesRequest true "内容包"
// @Success 200 {object} util.Response
// @Router /api/content/exercises [post]
func (c *ContentController) ImportExercises(ctx *gin.Context) {
	var req importExercisesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	count, err := c.ContentService.ImportExercises(req.Exercises)
	if err != nil {
		if errors.Is(err, util.ErrPersistence) {
			util.LogInternalError(ctx, err)
			return
		}
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, gin.H{"imported": count})
}

// @Summary 查询主题下的题目
// @Description 按主题和等级返回有序题目列表
// @Tags 内容管理
// @Produce json
// @Security ApiKeyAuth
// @Param themeId query string true "主题ID"
// @Param level query int true "等级 1-4"
// @Param areaId query string false "学习区域"
// @Success 200 {object} util.Response
// @Router /api/content/exercises [get]
func (c *ContentController) ListExercises(ctx *gin.Context) {
	themeID := ctx.Query("themeId")
	if themeID == "" {
		util.BadRequest(ctx, "themeId is required")
		return
	}
	level, err := strconv.Atoi(ctx.DefaultQuery("level", "1"))
	if err != nil || level < util.MinThemeLevel || level > util.MaxThemeLevel {
		util.BadRequest(ctx, "invalid level")
		return
	}

	exercises, err := c.ContentService.ListExercises(themeID, level, ctx.Query("areaId"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, exercises)
}

// @Summary 单条题目
// @Description 按公开题目ID读取
// @Tags 内容管理
// @Produce json
// @Security ApiKeyAuth
// @Param exerciseId path string true "题目ID"
// @Success 200 {object} util.Response
// @Router /api/content/exercises/{exerciseId} [get]
func (c *ContentController) GetExercise(ctx *gin.Context) {
	exercise, err := c.ContentService.GetExercise(ctx.Param("exerciseId"))
	if err != nil {
		if errors.Is(err, util.ErrExerciseNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, exercise)
}

// @Summary 全部主题
// @Tags 内容管理
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/content/themes [get]
func (c *ContentController) ListThemes(ctx *gin.Context) {
	themes, err := c.ContentService.ListThemes()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, themes)
}
