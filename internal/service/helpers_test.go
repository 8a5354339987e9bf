package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"Twincord/internal/model"
	"Twincord/internal/repository/memory"
)

// recorder 记录发布的变更事件
type recorder struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (r *recorder) Publish(_ context.Context, ev model.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func seedUser(t *testing.T, store *memory.Store, name string, online bool) *model.User {
	t.Helper()
	u := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@example.com",
		IsOnline:  online,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// clock 单调递增的假时钟，保证创建时间各不相同
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}
