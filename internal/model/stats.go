package model

// Stats 统计快照，每次推送都重新计算，不落库
type Stats struct {
	TotalUsers       int64 `json:"totalUsers"`
	OnlineUsers      int64 `json:"onlineUsers"`
	TotalCommunities int64 `json:"totalCommunities"`
	MeetingsToday    int64 `json:"meetingsToday"`
}
