package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"Twincord/internal/model"
	"Twincord/internal/pkg"
)

type StatsService struct {
	users       UserStore
	communities CommunityStore
}

func NewStatsService(users UserStore, communities CommunityStore) *StatsService {
	return &StatsService{users: users, communities: communities}
}

// Snapshot 三个计数并发执行，任一失败则整体失败，不返回部分结果；错误由调用方记录
func (s *StatsService) Snapshot(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalUsers, err = s.users.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.OnlineUsers, err = s.users.CountOnlineUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalCommunities, err = s.communities.CountCommunities(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Stats{}, pkg.Unavailable("Failed to load stats", err)
	}
	// 会议功能不在本服务范围内
	st.MeetingsToday = 0
	return st, nil
}
