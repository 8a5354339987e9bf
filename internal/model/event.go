package model

import "time"

type EventType string

const (
	EventCommunityCreated EventType = "community.created"
	EventMemberJoined     EventType = "member.joined"
	EventMessagePosted    EventType = "message.posted"
	EventUserRegistered   EventType = "user.registered"
	EventUserOnline       EventType = "user.online"
	EventUserOffline      EventType = "user.offline"
)

// ChangeEvent 数据变更通知，只用来触发重新计算，不携带差量
type ChangeEvent struct {
	Type        EventType `json:"type"`
	CommunityID string    `json:"community_id,omitempty"`
	UserID      string    `json:"user_id,omitempty"`
	At          time.Time `json:"at"`
}
