package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"Twincord/internal/handler"
	"Twincord/internal/pkg"
)

// Authenticator 校验 access token 并返回用户ID
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Missing authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization format"})
			return
		}

		// 签名、有效期以及是否是当前登录态都在 Authenticate 里校验，成功后顺带续期
		userID, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(pkg.HTTPStatus(err), gin.H{"success": false, "error": pkg.PublicMessage(err)})
			return
		}

		// 注入 user_id
		c.Set(handler.ContextUserIDKey, userID)
		c.Next()
	}
}
