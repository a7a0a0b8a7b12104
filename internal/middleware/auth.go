package middleware

import (
	"lerntrainer_backend/internal/config"
	"lerntrainer_backend/internal/model"
	"lerntrainer_backend/internal/util"
	"lerntrainer_backend/pkg/logger"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		cfg := c.MustGet("config").(*config.Config)
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("profile", claims)
		c.Next()
	}
}

// RoleMiddleware 角色校验，教师专属接口（档案重置、内容导入）
func RoleMiddleware(roles ...model.ProfileRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := util.GetProfileFromContext(c)
		if claims == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		hasRole := false
		for _, role := range roles {
			if claims.Role == role {
				hasRole = true
				break
			}
		}

		if !hasRole {
			util.Error(c, http.StatusForbidden, util.ErrPermissionDenied.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
