package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Twincord/internal/pkg"
	"Twincord/internal/service"
)

// ContextUserIDKey 鉴权中间件写入的当前用户ID
const ContextUserIDKey = "user_id"

type UserHandler struct {
	svc *service.UserService
}

// RegisterReq 注册请求体
type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func authData(user *userView, pair *pkg.Pair) gin.H {
	return gin.H{
		"user":         user,
		"token":        pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}
}

// Register 注册接口
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, pair, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    authData(toUserView(user), pair),
	})
}

// Login 登录接口
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    authData(toUserView(user), pair),
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)
	if userID == "" {
		fail(c, pkg.Unauthenticated("Unauthorized"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// TokenRefresh 利用refresh来更新access
func (h *UserHandler) TokenRefresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{"data": pair})
}
