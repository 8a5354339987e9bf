package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"Twincord/internal/service"
)

type CommunityHandler struct {
	communities *service.CommunityService
	messages    *service.MessageService
}

type CommunityCreateReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatorID   string `json:"creatorId"`
}

type CommunityJoinReq struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

type MessagePostReq struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text" binding:"max=4000"`
}

func NewCommunityHandler(communities *service.CommunityService, messages *service.MessageService) *CommunityHandler {
	return &CommunityHandler{communities: communities, messages: messages}
}

// Create 创建社区
func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	community, err := h.communities.Create(c.Request.Context(), service.CreateCommunityInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   req.CreatorID,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ok(c, http.StatusOK, gin.H{"community": toCommunityView(community)})
}

// Join 通过邀请码加入，重复加入不报错
func (h *CommunityHandler) Join(c *gin.Context) {
	var req CommunityJoinReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.communities.Join(c.Request.Context(), req.UserID, req.Code)
	if err != nil {
		fail(c, err)
		return
	}

	body := gin.H{"community": toCommunityView(res.Community)}
	if res.AlreadyMember {
		body["message"] = res.Message
	}
	ok(c, http.StatusOK, body)
}

// List userId 为空时返回全部社区
func (h *CommunityHandler) List(c *gin.Context) {
	list, err := h.communities.List(c.Request.Context(), c.Query("userId"))
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]communityView, 0, len(list))
	for i := range list {
		v := toCommunityView(&list[i].Community)
		v.Creator = toUserView(list[i].Creator)
		out = append(out, v)
	}
	ok(c, http.StatusOK, gin.H{"communities": out})
}

func (h *CommunityHandler) Get(c *gin.Context) {
	detail, err := h.communities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"community": toCommunityDetailView(detail)})
}

func (h *CommunityHandler) ListMessages(c *gin.Context) {
	list, err := h.messages.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	out := make([]messageView, 0, len(list))
	for i := range list {
		out = append(out, toMessageView(&list[i].Message, list[i].Sender))
	}
	ok(c, http.StatusOK, gin.H{"messages": out})
}

// PostMessage 只有成员可以发消息
func (h *CommunityHandler) PostMessage(c *gin.Context) {
	var req MessagePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), service.AppendMessageInput{
		CommunityID: c.Param("id"),
		SenderID:    req.SenderID,
		SenderName:  req.SenderName,
		Text:        req.Text,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"message": toMessageView(msg, nil)})
}
