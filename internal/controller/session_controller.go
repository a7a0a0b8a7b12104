package controller

import (
	"errors"
	"lerntrainer_backend/internal/service"
	"lerntrainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	SessionService *service.SessionService
}

func NewSessionController(sessionService *service.SessionService) *SessionController {
	return &SessionController{SessionService: sessionService}
}

type startSessionRequest struct {
	ThemeID string `json:"themeId" binding:"required"`
	AreaID  string `json:"areaId"`
	Level   int    `json:"level" binding:"required"`
}

// @Summary 开始练习会话
// @Description 按主题+等级装载题目；同一目标重复调用幂等，不同目标则丢弃旧会话
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param session body startSessionRequest true "会话目标"
// @Success 200 {object} util.Response
// @Router /api/session/start [post]
func (c *SessionController) StartSession(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req startSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	view, err := c.SessionService.StartSession(ctx.Request.Context(), claims.ProfileID, req.ThemeID, req.AreaID, req.Level)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLevelNotAccessible):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrNoExercises):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrProfileNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrOperationInFlight):
			util.Conflict(ctx, util.ErrOperationInFlight.Error())
		case errors.Is(err, util.ErrPersistence):
			// 旧会话的待重试落库冲刷失败：会话保留，切换可重试
			util.Error(ctx, 502, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, view)
}

// @Summary 提交作答
// @Description 作答计数与判定；首次正确完成计星并评估徽章，重复完成只反馈不计星
// @Tags 会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param answer body service.SubmitAnswerRequest true "判定结果"
// @Success 200 {object} util.Response
// @Router /api/session/answer [post]
func (c *SessionController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	response, err := c.SessionService.SubmitAnswer(ctx.Request.Context(), claims.ProfileID, req)
	if err != nil {
		// 落库失败时内存状态已乐观推进，带着视图一起返回 502 供前端重试
		if response != nil && errors.Is(err, util.ErrPersistence) {
			util.Error(ctx, 502, err.Error())
			return
		}
		c.mapStateError(ctx, err)
		return
	}

	util.Success(ctx, response)
}

// @Summary 下一题
// @Description 推进到下一题；关卡失败状态下被阻塞直到重开
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/session/next [post]
func (c *SessionController) NextExercise(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.NextExercise(claims.ProfileID)
	if err != nil {
		c.mapStateError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 重开关卡
// @Description 同一组题目从第一题重新开始，作答计数清零
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/session/restart [post]
func (c *SessionController) RestartLevel(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.RestartLevel(claims.ProfileID)
	if err != nil {
		c.mapStateError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// @Summary 退出关卡
// @Description 放弃当前运行并丢弃会话；待重试结果冲刷失败时会话保留，可重试
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/session/exit [post]
func (c *SessionController) ExitLevel(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.SessionService.ExitLevel(claims.ProfileID); err != nil {
		if errors.Is(err, util.ErrPersistence) {
			// 未冲刷的结果不允许随会话丢弃
			util.Error(ctx, 502, err.Error())
			return
		}
		c.mapStateError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"exited": true})
}

// @Summary 结束会话
// @Description 唯一的完成评估与落库冲刷点；前端必须等待返回后再导航离开，失败可重试
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/session/end [post]
func (c *SessionController) EndSession(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.SessionService.EndSession(ctx.Request.Context(), claims.ProfileID)
	if err != nil {
		if errors.Is(err, util.ErrPersistence) {
			// 会话保留，前端可重新调用重试
			util.Error(ctx, 502, err.Error())
			return
		}
		c.mapStateError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}

// @Summary 会话进度
// @Description 只读的当前会话视图
// @Tags 会话
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/session/progress [get]
func (c *SessionController) GetProgress(ctx *gin.Context) {
	claims := util.GetProfileFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.SessionService.GetProgress(claims.ProfileID)
	if err != nil {
		c.mapStateError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// mapStateError 状态类错误统一映射：无会话 404，被阻塞/丢弃 409
func (c *SessionController) mapStateError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrNoActiveSession):
		util.Error(ctx, 404, util.ErrNoActiveSession.Error())
	case errors.Is(err, util.ErrLevelFailed):
		util.Conflict(ctx, util.ErrLevelFailed.Error())
	case errors.Is(err, util.ErrOperationInFlight):
		util.Conflict(ctx, util.ErrOperationInFlight.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
