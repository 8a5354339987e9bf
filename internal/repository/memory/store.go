// Package memory 进程内存储，用于本地开发和测试；没有变更流，实时统计只走定时器
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"Twincord/internal/model"
)

type Store struct {
	mu sync.RWMutex

	users       map[string]model.User
	communities map[string]model.Community // 不含 Members
	codes       map[string]string          // code -> community id
	members     map[string][]string        // community id -> user ids，加入顺序
	messages    map[string][]model.Message
	tokens      map[string]string
	nextMsgID   uint64
}

func New() *Store {
	return &Store{
		users:       make(map[string]model.User),
		communities: make(map[string]model.Community),
		codes:       make(map[string]string),
		members:     make(map[string][]string),
		messages:    make(map[string][]model.Message),
		tokens:      make(map[string]string),
	}
}

/*
用户
*/

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) FindUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s *Store) FindUsersByIDs(_ context.Context, ids []string) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) SetOnline(_ context.Context, id string, online bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.ErrNotFound
	}
	now := time.Now()
	u.IsOnline = online
	u.LastSeen = &now
	u.UpdatedAt = now
	s.users[id] = u
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) CountOnlineUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, u := range s.users {
		if u.IsOnline {
			n++
		}
	}
	return n, nil
}

/*
社区与成员
*/

func (s *Store) CreateCommunity(_ context.Context, c *model.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[c.Code]; taken {
		return model.ErrDuplicateCode
	}
	row := *c
	row.Members = nil
	s.communities[c.ID] = row
	s.codes[c.Code] = c.ID
	s.members[c.ID] = []string{c.CreatorID}
	c.Members = []string{c.CreatorID}
	return nil
}

func (s *Store) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.codes[code]
	return ok, nil
}

func (s *Store) FindCommunityByID(_ context.Context, id string) (*model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.communityLocked(id)
}

func (s *Store) FindCommunityByCode(_ context.Context, code string) (*model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.codes[code]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s.communityLocked(id)
}

func (s *Store) ListCommunities(_ context.Context, memberID string) ([]model.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Community, 0, len(s.communities))
	for id := range s.communities {
		c, _ := s.communityLocked(id)
		if memberID != "" && !c.HasMember(memberID) {
			continue
		}
		out = append(out, *c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) CountCommunities(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.communities)), nil
}

func (s *Store) AddMember(_ context.Context, communityID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[communityID]; !ok {
		return false, model.ErrNotFound
	}
	for _, m := range s.members[communityID] {
		if m == userID {
			return false, nil
		}
	}
	s.members[communityID] = append(s.members[communityID], userID)
	return true, nil
}

func (s *Store) IsMember(_ context.Context, communityID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members[communityID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) communityLocked(id string) (*model.Community, error) {
	c, ok := s.communities[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	c.Members = append([]string(nil), s.members[id]...)
	return &c, nil
}

/*
消息
*/

func (s *Store) AppendMessage(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.communities[m.CommunityID]; !ok {
		return model.ErrNotFound
	}
	s.nextMsgID++
	m.ID = s.nextMsgID
	s.messages[m.CommunityID] = append(s.messages[m.CommunityID], *m)
	return nil
}

func (s *Store) ListMessages(_ context.Context, communityID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Message{}, s.messages[communityID]...), nil
}

/*
登录态（无过期，仅供本地使用）
*/

func (s *Store) AddUserToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
	return nil
}

func (s *Store) GetUserToken(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[userID]
	if !ok {
		return "", model.ErrNotFound
	}
	return t, nil
}

func (s *Store) ExtendUserToken(_ context.Context, userID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.tokens[userID]; !ok {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUserToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}
