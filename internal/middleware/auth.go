package middleware

import (
	"strings"
	"unicode/utf8"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserMiddleware 解析当前用户：Bearer token 的 sub、X-User-ID 头、user_id 参数，最后是默认用户。
// secret 为空时忽略 Authorization 头
func UserMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := ""

		if secret != "" {
			if token := bearerToken(c.GetHeader("Authorization")); token != "" {
				claims, err := util.ParseJWT(token, secret)
				if err != nil {
					logger.Log.Debug("JWT解析错误", zap.String("path", c.FullPath()), zap.Error(err))
					util.Unauthorized(c)
					c.Abort()
					return
				}
				userID = claims.Subject
			}
		}

		if userID == "" {
			userID = strings.TrimSpace(c.GetHeader(util.HeaderUserID))
		}
		if userID == "" {
			userID = strings.TrimSpace(c.Query(util.QueryUserID))
		}
		if userID == "" {
			userID = model.DefaultUserID
		}
		if utf8.RuneCountInString(userID) > util.MaxUserIDLength {
			util.BadRequest(c, "用户ID过长")
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
