package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"Twincord/internal/model"
	"Twincord/internal/pkg"
)

const (
	DefaultMaxCodeAttempts = 10
	msgAlreadyMember       = "Already a member"
)

type CommunityService struct {
	communities CommunityStore
	users       UserStore
	events      EventPublisher

	codeLength  int
	maxAttempts int
	genCode     func(n int) (string, error)
	now         func() time.Time
}

type CommunityOption func(*CommunityService)

func WithCodeLength(n int) CommunityOption {
	return func(s *CommunityService) { s.codeLength = n }
}

func WithMaxCodeAttempts(n int) CommunityOption {
	return func(s *CommunityService) { s.maxAttempts = n }
}

func WithCodeGenerator(fn func(n int) (string, error)) CommunityOption {
	return func(s *CommunityService) { s.genCode = fn }
}

func NewCommunityService(communities CommunityStore, users UserStore, events EventPublisher, opts ...CommunityOption) *CommunityService {
	s := &CommunityService{
		communities: communities,
		users:       users,
		events:      events,
		codeLength:  pkg.DefaultCodeLength,
		maxAttempts: DefaultMaxCodeAttempts,
		genCode:     pkg.GenerateCode,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateCommunityInput struct {
	Name        string
	Description string
	CreatorID   string
}

// CommunityDetail 成员和创建者已解析为用户信息
type CommunityDetail struct {
	Community *model.Community
	Creator   *model.User
	Members   []model.User
}

// CommunitySummary 列表用，不含消息
type CommunitySummary struct {
	Community model.Community
	Creator   *model.User
}

// JoinResult AlreadyMember 为 true 时没有任何修改
type JoinResult struct {
	Community     *model.Community
	AlreadyMember bool
	Message       string
}

// Create 创建社区，创建者自动成为第一个成员
func (s *CommunityService) Create(ctx context.Context, in CreateCommunityInput) (*model.Community, error) {
	name := strings.TrimSpace(in.Name)
	creatorID := strings.TrimSpace(in.CreatorID)
	if name == "" || creatorID == "" {
		return nil, pkg.InvalidArgument("Missing name or creatorId")
	}
	if utf8.RuneCountInString(name) > model.CommunityNameMaxLen {
		return nil, pkg.InvalidArgument("Name must be at most 100 characters")
	}

	creator, err := s.users.FindUserByID(ctx, creatorID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, pkg.NotFound("Creator not found")
	}
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	// 有限次重试：先查重再插入，插入时唯一索引冲突同样计为一次碰撞
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.genCode(s.codeLength)
		if err != nil {
			return nil, pkg.Unavailable("Server error", err)
		}
		exists, err := s.communities.CodeExists(ctx, code)
		if err != nil {
			return nil, pkg.Unavailable("Server error", err)
		}
		if exists {
			log.Debug().Str("code", code).Int("attempt", attempt).Msg("community code collision")
			continue
		}

		c := &model.Community{
			ID:          uuid.NewString(),
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			Code:        code,
			CreatorID:   creator.ID,
			CreatedAt:   s.now(),
			Members:     []string{creator.ID},
		}
		err = s.communities.CreateCommunity(ctx, c)
		if errors.Is(err, model.ErrDuplicateCode) {
			log.Debug().Str("code", code).Int("attempt", attempt).Msg("community code taken concurrently")
			continue
		}
		if err != nil {
			return nil, pkg.Unavailable("Server error", err)
		}

		notify(ctx, s.events, model.ChangeEvent{
			Type:        model.EventCommunityCreated,
			CommunityID: c.ID,
			UserID:      creator.ID,
			At:          c.CreatedAt,
		})
		return c, nil
	}

	log.Error().Int("attempts", s.maxAttempts).Int("code_length", s.codeLength).Msg("unable to generate unique community code")
	return nil, pkg.ResourceExhausted("Unable to generate unique code")
}

// Join 通过短码加入社区，幂等
func (s *CommunityService) Join(ctx context.Context, userID, code string) (*JoinResult, error) {
	userID = strings.TrimSpace(userID)
	code = pkg.NormalizeCode(code)
	if userID == "" || code == "" {
		return nil, pkg.InvalidArgument("Missing userId or code")
	}

	c, err := s.communities.FindCommunityByCode(ctx, code)
	if errors.Is(err, model.ErrNotFound) {
		return nil, pkg.NotFound("Community not found")
	}
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	// 只接受已注册用户，避免成员列表里出现解析不到的 id
	if _, err := s.users.FindUserByID(ctx, userID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, pkg.NotFound("User not found")
		}
		return nil, pkg.Unavailable("Server error", err)
	}

	added, err := s.communities.AddMember(ctx, c.ID, userID)
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	if !added {
		return &JoinResult{Community: c, AlreadyMember: true, Message: msgAlreadyMember}, nil
	}

	// 重新读取，返回包含新成员的最新状态
	fresh, err := s.communities.FindCommunityByID(ctx, c.ID)
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	notify(ctx, s.events, model.ChangeEvent{
		Type:        model.EventMemberJoined,
		CommunityID: c.ID,
		UserID:      userID,
		At:          s.now(),
	})
	return &JoinResult{Community: fresh}, nil
}

// Get 单个社区，成员和创建者解析为展示信息
func (s *CommunityService) Get(ctx context.Context, id string) (*CommunityDetail, error) {
	c, err := s.communities.FindCommunityByID(ctx, strings.TrimSpace(id))
	if errors.Is(err, model.ErrNotFound) {
		return nil, pkg.NotFound("Community not found")
	}
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	users, err := s.resolveUsers(ctx, append([]string{c.CreatorID}, c.Members...))
	if err != nil {
		return nil, err
	}

	detail := &CommunityDetail{Community: c, Members: make([]model.User, 0, len(c.Members))}
	if u, ok := users[c.CreatorID]; ok {
		detail.Creator = &u
	}
	for _, id := range c.Members {
		if u, ok := users[id]; ok {
			detail.Members = append(detail.Members, u)
		}
	}
	return detail, nil
}

// List 社区列表，按创建时间倒序；userID 非空时只返回其加入的社区
func (s *CommunityService) List(ctx context.Context, userID string) ([]CommunitySummary, error) {
	list, err := s.communities.ListCommunities(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}

	creatorIDs := make([]string, 0, len(list))
	for _, c := range list {
		creatorIDs = append(creatorIDs, c.CreatorID)
	}
	users, err := s.resolveUsers(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]CommunitySummary, 0, len(list))
	for _, c := range list {
		sum := CommunitySummary{Community: c}
		if u, ok := users[c.CreatorID]; ok {
			sum.Creator = &u
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *CommunityService) resolveUsers(ctx context.Context, ids []string) (map[string]model.User, error) {
	return resolveUsers(ctx, s.users, ids)
}

func resolveUsers(ctx context.Context, store UserStore, ids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := store.FindUsersByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
