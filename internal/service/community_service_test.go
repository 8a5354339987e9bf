package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Twincord/internal/model"
	"Twincord/internal/pkg"
	"Twincord/internal/repository/memory"
)

func newCommunityService(store *memory.Store, events EventPublisher, opts ...CommunityOption) *CommunityService {
	s := NewCommunityService(store, store, events, opts...)
	s.now = clock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return s
}

// sequence 依次返回给定的短码
func sequence(codes ...string) func(int) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(int) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		c := codes[i%len(codes)]
		i++
		return c, nil
	}
}

func TestCommunityService_Create(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := &recorder{}
	creator := seedUser(t, store, "alice", true)
	svc := newCommunityService(store, rec)

	c, err := svc.Create(ctx, CreateCommunityInput{Name: "  Go Club ", Description: "gophers", CreatorID: creator.ID})
	require.NoError(t, err)

	assert.Equal(t, "Go Club", c.Name)
	assert.Equal(t, creator.ID, c.CreatorID)
	assert.Equal(t, []string{creator.ID}, c.Members)
	require.Len(t, c.Code, pkg.DefaultCodeLength)
	for _, r := range c.Code {
		assert.True(t, strings.ContainsRune(pkg.CodeAlphabet, r))
	}

	ok, err := store.IsMember(ctx, c.ID, creator.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []model.EventType{model.EventCommunityCreated}, rec.types())
}

func TestCommunityService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	creator := seedUser(t, store, "alice", false)
	svc := newCommunityService(store, nil)

	_, err := svc.Create(ctx, CreateCommunityInput{Name: "", CreatorID: creator.ID})
	assert.Equal(t, pkg.KindInvalidArgument, pkg.KindOf(err))
	assert.Equal(t, "Missing name or creatorId", pkg.PublicMessage(err))

	_, err = svc.Create(ctx, CreateCommunityInput{Name: "x"})
	assert.Equal(t, pkg.KindInvalidArgument, pkg.KindOf(err))

	_, err = svc.Create(ctx, CreateCommunityInput{Name: strings.Repeat("a", model.CommunityNameMaxLen+1), CreatorID: creator.ID})
	assert.Equal(t, pkg.KindInvalidArgument, pkg.KindOf(err))

	_, err = svc.Create(ctx, CreateCommunityInput{Name: "x", CreatorID: "ghost"})
	assert.Equal(t, pkg.KindNotFound, pkg.KindOf(err))
	assert.Equal(t, "Creator not found", pkg.PublicMessage(err))

	n, err := store.CountCommunities(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCommunityService_CreateRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	creator := seedUser(t, store, "alice", false)

	first := newCommunityService(store, nil, WithCodeGenerator(sequence("AAAAAA")))
	_, err := first.Create(ctx, CreateCommunityInput{Name: "one", CreatorID: creator.ID})
	require.NoError(t, err)

	svc := newCommunityService(store, nil, WithCodeGenerator(sequence("AAAAAA", "AAAAAA", "BBBBBB")))
	c, err := svc.Create(ctx, CreateCommunityInput{Name: "two", CreatorID: creator.ID})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", c.Code)
}

func TestCommunityService_CreateExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	creator := seedUser(t, store, "alice", false)

	seed := newCommunityService(store, nil, WithCodeGenerator(sequence("AAAAAA")))
	_, err := seed.Create(ctx, CreateCommunityInput{Name: "one", CreatorID: creator.ID})
	require.NoError(t, err)

	calls := 0
	gen := func(int) (string, error) {
		calls++
		return "AAAAAA", nil
	}
	svc := newCommunityService(store, nil, WithCodeGenerator(gen), WithMaxCodeAttempts(10))
	_, err = svc.Create(ctx, CreateCommunityInput{Name: "two", CreatorID: creator.ID})
	assert.Equal(t, pkg.KindResourceExhausted, pkg.KindOf(err))
	assert.Equal(t, "Unable to generate unique code", pkg.PublicMessage(err))
	assert.Equal(t, 10, calls)

	n, err := store.CountCommunities(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

// raceStore 模拟查重与插入之间被别人抢占了同一个短码
type raceStore struct {
	*memory.Store
	lost int
}

func (r *raceStore) CreateCommunity(ctx context.Context, c *model.Community) error {
	if r.lost > 0 {
		r.lost--
		return model.ErrDuplicateCode
	}
	return r.Store.CreateCommunity(ctx, c)
}

func TestCommunityService_InsertConflictCountsAsAttempt(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	creator := seedUser(t, store, "alice", false)

	rs := &raceStore{Store: store, lost: 2}
	svc := NewCommunityService(rs, store, nil, WithMaxCodeAttempts(3))
	c, err := svc.Create(ctx, CreateCommunityInput{Name: "x", CreatorID: creator.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, c.Code)

	rs.lost = 3
	_, err = svc.Create(ctx, CreateCommunityInput{Name: "y", CreatorID: creator.ID})
	assert.Equal(t, pkg.KindResourceExhausted, pkg.KindOf(err))
}

func TestCommunityService_JoinIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := &recorder{}
	alice := seedUser(t, store, "alice", false)
	bob := seedUser(t, store, "bob", false)
	svc := newCommunityService(store, rec)

	c, err := svc.Create(ctx, CreateCommunityInput{Name: "club", CreatorID: alice.ID})
	require.NoError(t, err)

	res, err := svc.Join(ctx, bob.ID, strings.ToLower(c.Code))
	require.NoError(t, err)
	assert.False(t, res.AlreadyMember)
	assert.Equal(t, []string{alice.ID, bob.ID}, res.Community.Members)

	res, err = svc.Join(ctx, bob.ID, c.Code)
	require.NoError(t, err)
	assert.True(t, res.AlreadyMember)
	assert.Equal(t, "Already a member", res.Message)
	assert.Equal(t, []string{alice.ID, bob.ID}, res.Community.Members)

	// 只有第一次加入会发通知
	assert.Equal(t, []model.EventType{model.EventCommunityCreated, model.EventMemberJoined}, rec.types())
}

func TestCommunityService_JoinConcurrent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := seedUser(t, store, "alice", false)
	bob := seedUser(t, store, "bob", false)
	svc := newCommunityService(store, nil)

	c, err := svc.Create(ctx, CreateCommunityInput{Name: "club", CreatorID: alice.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Join(ctx, bob.ID, c.Code)
			if err != nil {
				t.Error(err)
				return
			}
			if !res.AlreadyMember {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fresh)
	got, err := store.FindCommunityByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, got.Members)
}

func TestCommunityService_JoinErrors(t *testing.T) {
	ctx := context.Background()
	svc := newCommunityService(memory.New(), nil)

	_, err := svc.Join(ctx, "", "ABCDEF")
	assert.Equal(t, pkg.KindInvalidArgument, pkg.KindOf(err))
	assert.Equal(t, "Missing userId or code", pkg.PublicMessage(err))

	_, err = svc.Join(ctx, "u1", "ZZZZZZ")
	assert.Equal(t, pkg.KindNotFound, pkg.KindOf(err))
	assert.Equal(t, "Community not found", pkg.PublicMessage(err))
}

func TestCommunityService_JoinUnknownUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := seedUser(t, store, "alice", false)
	svc := newCommunityService(store, nil)

	c, err := svc.Create(ctx, CreateCommunityInput{Name: "club", CreatorID: alice.ID})
	require.NoError(t, err)

	_, err = svc.Join(ctx, "ghost", c.Code)
	assert.Equal(t, pkg.KindNotFound, pkg.KindOf(err))
	assert.Equal(t, "User not found", pkg.PublicMessage(err))

	got, err := store.FindCommunityByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, got.Members)
}

func TestCommunityService_GetAndList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	alice := seedUser(t, store, "alice", false)
	bob := seedUser(t, store, "bob", false)
	svc := newCommunityService(store, nil)

	older, err := svc.Create(ctx, CreateCommunityInput{Name: "older", CreatorID: alice.ID})
	require.NoError(t, err)
	newer, err := svc.Create(ctx, CreateCommunityInput{Name: "newer", CreatorID: bob.ID})
	require.NoError(t, err)
	_, err = svc.Join(ctx, bob.ID, older.Code)
	require.NoError(t, err)

	detail, err := svc.Get(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Creator)
	assert.Equal(t, "alice", detail.Creator.Name)
	require.Len(t, detail.Members, 2)
	assert.Equal(t, "alice", detail.Members[0].Name)
	assert.Equal(t, "bob", detail.Members[1].Name)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].Community.ID)
	assert.Equal(t, older.ID, all[1].Community.ID)
	assert.Equal(t, "bob", all[0].Creator.Name)

	mine, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, older.ID, mine[0].Community.ID)

	_, err = svc.Get(ctx, "missing")
	assert.Equal(t, pkg.KindNotFound, pkg.KindOf(err))
}

func TestCommunityService_GeneratorFailure(t *testing.T) {
	store := memory.New()
	creator := seedUser(t, store, "alice", false)
	svc := newCommunityService(store, nil, WithCodeGenerator(func(int) (string, error) {
		return "", errors.New("entropy exhausted")
	}))

	_, err := svc.Create(context.Background(), CreateCommunityInput{Name: "x", CreatorID: creator.ID})
	assert.Equal(t, pkg.KindUnavailable, pkg.KindOf(err))
	assert.Equal(t, "Server error", pkg.PublicMessage(err))
}
