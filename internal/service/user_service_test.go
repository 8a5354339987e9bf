package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Twincord/internal/model"
	"Twincord/internal/pkg"
	"Twincord/internal/repository/memory"
)

func newUserService(store *memory.Store, events EventPublisher) *UserService {
	return NewUserService(store, store, pkg.NewTokenIssuer("access", "refresh"), events)
}

func TestUserService_RegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	rec := &recorder{}
	svc := newUserService(store, rec)

	user, pair, err := svc.Register(ctx, "Alice", " Alice@Example.com ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret", user.Password)

	uid, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	_, _, err = svc.Register(ctx, "Other", "alice@example.com", "x")
	assert.Equal(t, "User already exists with this email", pkg.PublicMessage(err))

	logged, next, err := svc.Login(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.True(t, logged.IsOnline)
	assert.NotNil(t, logged.LastSeen)

	// 新登录后旧 token 失效
	_, err = svc.Authenticate(ctx, pair.AccessToken)
	assert.Equal(t, pkg.KindUnauthenticated, pkg.KindOf(err))
	assert.Equal(t, "Account has been logged in elsewhere", pkg.PublicMessage(err))

	online, err := store.CountOnlineUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, online)

	require.NoError(t, svc.Logout(ctx, user.ID))
	online, err = store.CountOnlineUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, online)
	_, err = svc.Authenticate(ctx, next.AccessToken)
	assert.Equal(t, pkg.KindUnauthenticated, pkg.KindOf(err))

	assert.Equal(t, []model.EventType{model.EventUserRegistered, model.EventUserOnline, model.EventUserOffline}, rec.types())
}

func TestUserService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store, nil)

	_, _, err := svc.Register(ctx, "Alice", "alice@example.com", "secret")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.Equal(t, pkg.KindInvalidArgument, pkg.KindOf(err))
	assert.Equal(t, "Invalid email or password", pkg.PublicMessage(err))

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret")
	assert.Equal(t, "Invalid email or password", pkg.PublicMessage(err))

	_, _, err = svc.Register(ctx, "", "b@example.com", "x")
	assert.Equal(t, "Missing name, email or password", pkg.PublicMessage(err))
}

func TestUserService_Refresh(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newUserService(store, nil)

	user, pair, err := svc.Register(ctx, "Alice", "alice@example.com", "secret")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	uid, err := svc.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	_, err = svc.Refresh(ctx, "garbage")
	assert.Equal(t, pkg.KindUnauthenticated, pkg.KindOf(err))

	_, err = svc.Authenticate(ctx, "garbage")
	assert.Equal(t, pkg.KindUnauthenticated, pkg.KindOf(err))
}

// flakyTokens 读登录态时返回指定错误
type flakyTokens struct {
	*memory.Store
	err error
}

func (f *flakyTokens) GetUserToken(context.Context, string) (string, error) {
	return "", f.err
}

func TestUserService_AuthenticateTokenStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	issuer := pkg.NewTokenIssuer("access", "refresh")
	pair, err := issuer.GeneratePair("u1")
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
		kind pkg.Kind
	}{
		{name: "not logged in", err: model.ErrNotFound, kind: pkg.KindUnauthenticated},
		{name: "store down", err: errors.New("dial tcp: connection refused"), kind: pkg.KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewUserService(store, &flakyTokens{Store: store, err: tt.err}, issuer, nil)
			_, err := svc.Authenticate(ctx, pair.AccessToken)
			assert.Equal(t, tt.kind, pkg.KindOf(err))
		})
	}
}
