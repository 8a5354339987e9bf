package service

import (
	"context"

	"Twincord/internal/model"
)

// UserStore 用户身份存储；未找到时返回 model.ErrNotFound
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	// FindUsersByIDs 不存在的ID直接跳过
	FindUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	SetOnline(ctx context.Context, id string, online bool) error
	CountUsers(ctx context.Context) (int64, error)
	CountOnlineUsers(ctx context.Context) (int64, error)
}

// CommunityStore 社区与成员存储
type CommunityStore interface {
	// CreateCommunity 同一事务写入社区与创建者成员；短码冲突返回 model.ErrDuplicateCode
	CreateCommunity(ctx context.Context, c *model.Community) error
	CodeExists(ctx context.Context, code string) (bool, error)
	FindCommunityByID(ctx context.Context, id string) (*model.Community, error)
	FindCommunityByCode(ctx context.Context, code string) (*model.Community, error)
	// ListCommunities 按创建时间倒序；memberID 为空则返回全部
	ListCommunities(ctx context.Context, memberID string) ([]model.Community, error)
	CountCommunities(ctx context.Context) (int64, error)
	// AddMember 原子的 add-to-set；已是成员时 added=false 且不做修改
	AddMember(ctx context.Context, communityID, userID string) (added bool, err error)
	IsMember(ctx context.Context, communityID, userID string) (bool, error)
}

// MessageStore 社区消息日志，只追加
type MessageStore interface {
	AppendMessage(ctx context.Context, m *model.Message) error
	// ListMessages 按存储顺序（升序）返回全部消息
	ListMessages(ctx context.Context, communityID string) ([]model.Message, error)
}

// TokenStore 登录态 token
type TokenStore interface {
	AddUserToken(ctx context.Context, userID, token string) error
	GetUserToken(ctx context.Context, userID string) (string, error)
	ExtendUserToken(ctx context.Context, userID string) error
	DeleteUserToken(ctx context.Context, userID string) error
}

// EventPublisher 变更通知出口（redis 变更流、kafka 等）
type EventPublisher interface {
	Publish(ctx context.Context, ev model.ChangeEvent) error
}
