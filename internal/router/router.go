package router

import (
	"github.com/gin-gonic/gin"

	"Twincord/internal/handler"
	"Twincord/internal/middleware"
)

// Deps 路由需要的 handler，由 main 组装
type Deps struct {
	Users       *handler.UserHandler
	Communities *handler.CommunityHandler
	Stats       *handler.StatsHandler
	Auth        middleware.Authenticator
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	api := r.Group("/api")
	api.GET("/health", handler.Health)

	// 用户相关接口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", d.Users.Register)
		authGroup.POST("/login", d.Users.Login)
		authGroup.POST("/logout", middleware.AuthMiddleware(d.Auth), d.Users.Logout)
	}

	// token相关接口
	tokenGroup := api.Group("/token")
	{
		tokenGroup.POST("/refresh", d.Users.TokenRefresh)
	}

	// 社区相关接口；身份由请求体给出，不经过鉴权中间件
	communityGroup := api.Group("/communities")
	{
		communityGroup.POST("", d.Communities.Create)
		communityGroup.POST("/join", d.Communities.Join)
		communityGroup.GET("", d.Communities.List)
		communityGroup.GET("/:id", d.Communities.Get)
		communityGroup.GET("/:id/messages", d.Communities.ListMessages)
		communityGroup.POST("/:id/messages", d.Communities.PostMessage)
	}

	// 统计相关接口
	statsGroup := api.Group("/stats")
	{
		statsGroup.GET("", d.Stats.Get)
		statsGroup.GET("/stream", d.Stats.Stream)
	}

	return r
}
