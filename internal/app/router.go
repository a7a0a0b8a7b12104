package app

import (
	"lerntrainer_backend/internal/middleware"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/profiles", c.profile.CreateProfile)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware())
	{
		// 档案
		authGroup.GET("/profiles/me", c.profile.GetMyProfile)
		authGroup.GET("/profiles/leaderboard", c.profile.GetLeaderboard)

		// 练习会话
		session := authGroup.Group("/session")
		{
			session.POST("/start", c.session.StartSession)
			session.POST("/answer", c.session.SubmitAnswer)
			session.POST("/next", c.session.NextExercise)
			session.POST("/restart", c.session.RestartLevel)
			session.POST("/exit", c.session.ExitLevel)
			session.POST("/end", c.session.EndSession)
			session.GET("/progress", c.session.GetProgress)
		}

		// 成就与通知
		achievements := authGroup.Group("/achievements")
		{
			achievements.GET("/badges", c.achievement.GetBadges)
			achievements.GET("/notifications", c.achievement.GetNotifications)
			achievements.POST("/notifications/dismiss", c.achievement.DismissNotification)
			achievements.POST("/notifications/clear", c.achievement.ClearNotifications)
		}

		// 存档
		authGroup.GET("/savegame", c.savegame.Export)
		authGroup.POST("/savegame", c.savegame.Import)

		// 每日挑战
		authGroup.GET("/challenges/today", c.challenge.Today)
		authGroup.POST("/challenges/record", c.challenge.Record)

		// 内容查询
		authGroup.GET("/content/exercises", c.content.ListExercises)
		authGroup.GET("/content/exercises/:exerciseId", c.content.GetExercise)
		authGroup.GET("/content/themes", c.content.ListThemes)
	}

	// 3. 教师相关接口
	teacherGroup := router.Group("/api")
	teacherGroup.Use(middleware.AuthMiddleware(), middleware.RoleMiddleware(model.RoleTeacher))
	{
		teacherGroup.POST("/content/exercises", c.content.ImportExercises)
		teacherGroup.DELETE("/profiles/:id", c.profile.ResetProfile)
	}
}
