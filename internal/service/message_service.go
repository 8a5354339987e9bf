package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"Twincord/internal/model"
	"Twincord/internal/pkg"
)

type MessageService struct {
	communities CommunityStore
	messages    MessageStore
	users       UserStore
	events      EventPublisher
	now         func() time.Time
}

func NewMessageService(communities CommunityStore, messages MessageStore, users UserStore, events EventPublisher) *MessageService {
	return &MessageService{
		communities: communities,
		messages:    messages,
		users:       users,
		events:      events,
		now:         time.Now,
	}
}

type AppendMessageInput struct {
	CommunityID string
	SenderID    string
	SenderName  string
	Text        string
}

// MessageView 发送者已解析；用户不存在时 Sender 为 nil
type MessageView struct {
	Message model.Message
	Sender  *model.User
}

// Append 发送消息；每次都重新校验成员身份，不做缓存
func (s *MessageService) Append(ctx context.Context, in AppendMessageInput) (*model.Message, error) {
	senderID := strings.TrimSpace(in.SenderID)
	text := strings.TrimSpace(in.Text)
	if senderID == "" || text == "" {
		return nil, pkg.InvalidArgument("Missing senderId or text")
	}

	communityID := strings.TrimSpace(in.CommunityID)
	if _, err := s.communities.FindCommunityByID(ctx, communityID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, pkg.NotFound("Community not found")
		}
		return nil, pkg.Unavailable("Server error", err)
	}

	ok, err := s.communities.IsMember(ctx, communityID, senderID)
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	if !ok {
		return nil, pkg.PermissionDenied("You are not a member of this community")
	}

	msg := &model.Message{
		CommunityID: communityID,
		SenderID:    senderID,
		SenderName:  s.senderName(ctx, senderID, in.SenderName),
		Text:        text,
		CreatedAt:   s.now(),
	}
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	notify(ctx, s.events, model.ChangeEvent{
		Type:        model.EventMessagePosted,
		CommunityID: communityID,
		UserID:      senderID,
		At:          msg.CreatedAt,
	})
	return msg, nil
}

// List 返回完整消息日志（无分页），按存储顺序
func (s *MessageService) List(ctx context.Context, communityID string) ([]MessageView, error) {
	communityID = strings.TrimSpace(communityID)
	if _, err := s.communities.FindCommunityByID(ctx, communityID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, pkg.NotFound("Community not found")
		}
		return nil, pkg.Unavailable("Server error", err)
	}

	msgs, err := s.messages.ListMessages(ctx, communityID)
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	senderIDs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		senderIDs = append(senderIDs, m.SenderID)
	}
	users, err := resolveUsers(ctx, s.users, senderIDs)
	if err != nil {
		return nil, err
	}

	out := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		v := MessageView{Message: m}
		if u, ok := users[m.SenderID]; ok {
			v.Sender = &u
		}
		out = append(out, v)
	}
	return out, nil
}

// senderName 客户端未提供时使用当前昵称做快照，查不到就留空
func (s *MessageService) senderName(ctx context.Context, senderID, given string) string {
	if name := strings.TrimSpace(given); name != "" {
		return name
	}
	u, err := s.users.FindUserByID(ctx, senderID)
	if err != nil {
		return ""
	}
	return u.Name
}
