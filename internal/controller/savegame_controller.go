package controller

import (
	"errors"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SaveGameController struct {
	ProfileService *service.ProfileService
}

func NewSaveGameController(profileService *service.ProfileService) *SaveGameController {
	return &SaveGameController{ProfileService: profileService}
}

// @Summary 导出存档
// @Description 档案的带版本号纯投影（JSON），无副作用，不做加密签名
// @Tags 存档
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/savegame [get]
func (c *SaveGameController) Export(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	payload, err := c.ProfileService.Export(ctx.Request.Context(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, util.ErrProfileNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, payload)
}

// @Summary 导入存档
// @Description 先校验结构与数值范围，校验失败零副作用；成功则整体替换档案状态
// @Tags 存档
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param savegame body model.SaveGamePayload true "存档文件"
// @Success 200 {object} util.Response
// @Router /api/savegame [post]
func (c *SaveGameController) Import(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var payload model.SaveGamePayload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.ProfileService.Import(ctx.Request.Context(), claims.ProfileID, &payload)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSaveGameVersion), errors.Is(err, model.ErrSaveGameShape):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrProfileNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, profile)
}
