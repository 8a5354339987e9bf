package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"Twincord/internal/pkg"
)

const msgInvalidBody = "Invalid request body"

// ok 成功响应统一带 success=true
func ok(c *gin.Context, status int, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(status, body)
}

// fail 只把可公开的信息返回给客户端，内部原因只写日志
func fail(c *gin.Context, err error) {
	status := pkg.HTTPStatus(err)
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Int("status", status).
		Msg("request failed")
	c.JSON(status, gin.H{"success": false, "error": pkg.PublicMessage(err)})
}

func badRequest(c *gin.Context, err error) {
	log.Debug().Err(err).Str("path", c.FullPath()).Msg("bind request failed")
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msgInvalidBody})
}
