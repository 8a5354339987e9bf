package mysql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_AppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := &MessageRepository{DB: newTestDB(t)}
	now := time.Now()

	for i := 0; i < 3; i++ {
		for _, cid := range []string{"c1", "c2"} {
			m := newMessage(cid, fmt.Sprintf("%s-%d", cid, i), now)
			require.NoError(t, repo.AppendMessage(ctx, m))
			assert.NotZero(t, m.ID)
		}
	}

	list, err := repo.ListMessages(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, m := range list {
		assert.Equal(t, fmt.Sprintf("c1-%d", i), m.Text)
		if i > 0 {
			assert.Greater(t, m.ID, list[i-1].ID)
		}
	}

	empty, err := repo.ListMessages(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
