package mysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Twincord/internal/model"
)

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := &UserRepository{DB: db}
	seedUser(t, db, "alice", false)
	seedUser(t, db, "bob", true)

	u, err := repo.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.ID)

	_, err = repo.FindUserByID(ctx, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)

	// 邮箱唯一
	err = repo.CreateUser(ctx, &model.User{ID: "other", Name: "other", Email: "alice@example.com", Password: "x"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	users, err := repo.FindUsersByIDs(ctx, []string{"alice", "bob", "ghost"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	users, err = repo.FindUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUserRepository_SetOnlineAndCounts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := &UserRepository{DB: db}
	seedUser(t, db, "alice", false)
	seedUser(t, db, "bob", false)

	require.NoError(t, repo.SetOnline(ctx, "alice", true))
	u, err := repo.FindUserByID(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, u.IsOnline)
	assert.NotNil(t, u.LastSeen)

	total, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	online, err := repo.CountOnlineUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, online)

	require.NoError(t, repo.SetOnline(ctx, "alice", false))
	online, err = repo.CountOnlineUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, online)
}
