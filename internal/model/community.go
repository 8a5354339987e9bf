package model

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateCode = errors.New("duplicate community code")
)

const CommunityNameMaxLen = 100

type Community struct {
	ID          string    `gorm:"primaryKey;size:36"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"type:text"`
	Code        string    `gorm:"uniqueIndex;size:16;not null"`
	CreatorID   string    `gorm:"size:36;not null;index"`
	CreatedAt   time.Time `gorm:"index"`

	// Members 成员ID，按加入顺序；不落库，由仓储填充
	Members []string `gorm:"-"`
}

// CommunityMember (community_id, user_id) 唯一索引即原子的 add-to-set
type CommunityMember struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	CommunityID string `gorm:"size:36;not null;index;uniqueIndex:uk_community_user"`
	UserID      string `gorm:"size:36;not null;index;uniqueIndex:uk_community_user"`
	CreatedAt   time.Time
}

// HasMember 判断用户是否在成员列表中
func (c *Community) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}
