package model

import "time"

// Message 社区聊天消息，只追加；自增ID即存储顺序
type Message struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	CommunityID string    `gorm:"size:36;not null;index:idx_community_id_id,priority:1"`
	SenderID    string    `gorm:"size:36;not null"`
	SenderName  string    `gorm:"size:100"` // 发送时的昵称快照，允许与当前昵称不同
	Text        string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}
