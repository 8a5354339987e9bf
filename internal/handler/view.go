package handler

import (
	"time"

	"Twincord/internal/model"
	"Twincord/internal/service"
)

// 对外的 JSON 结构，和存储模型分开，避免泄露密码等字段

type userView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	IsOnline  bool       `json:"isOnline"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type communityView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Code        string     `json:"code"`
	CreatorID   string     `json:"creatorId"`
	Creator     *userView  `json:"creator,omitempty"`
	MemberIDs   []string   `json:"memberIds"`
	Members     []userView `json:"members,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type messageView struct {
	ID          uint64    `json:"id"`
	CommunityID string    `json:"communityId"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	Text        string    `json:"text"`
	Sender      *userView `json:"sender,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserView(u *model.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		IsOnline:  u.IsOnline,
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
	}
}

func toCommunityView(c *model.Community) communityView {
	members := c.Members
	if members == nil {
		members = []string{}
	}
	return communityView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Code:        c.Code,
		CreatorID:   c.CreatorID,
		MemberIDs:   members,
		CreatedAt:   c.CreatedAt,
	}
}

func toCommunityDetailView(d *service.CommunityDetail) communityView {
	v := toCommunityView(d.Community)
	v.Creator = toUserView(d.Creator)
	v.Members = make([]userView, 0, len(d.Members))
	for i := range d.Members {
		v.Members = append(v.Members, *toUserView(&d.Members[i]))
	}
	return v
}

func toMessageView(m *model.Message, sender *model.User) messageView {
	return messageView{
		ID:          m.ID,
		CommunityID: m.CommunityID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		Text:        m.Text,
		Sender:      toUserView(sender),
		CreatedAt:   m.CreatedAt,
	}
}
