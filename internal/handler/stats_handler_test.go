package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Twincord/internal/model"
	"Twincord/internal/realtime"
	"Twincord/internal/repository/memory"
	"Twincord/internal/service"
)

func TestStatsHandler_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.New()
	require.NoError(t, store.CreateUser(context.Background(), &model.User{ID: "u1", Name: "alice", Email: "a@example.com", IsOnline: true}))

	stats := service.NewStatsService(store, store)
	b := realtime.NewBroadcaster(stats, realtime.NoWatch{}, realtime.WithIntervals(time.Hour, 20*time.Millisecond))
	h := NewStatsHandler(stats, b)

	r := gin.New()
	r.GET("/stream", h.Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	reader := bufio.NewReader(resp.Body)
	readLine := func() string {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(line, "\n")
	}

	assert.Equal(t, "event:stats", readLine())
	data := readLine()
	require.True(t, strings.HasPrefix(data, "data:"), data)

	var payload struct {
		Success bool        `json:"success"`
		Data    model.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data:")), &payload))
	assert.True(t, payload.Success)
	assert.EqualValues(t, 1, payload.Data.TotalUsers)
	assert.EqualValues(t, 1, payload.Data.OnlineUsers)
	assert.Equal(t, "", readLine())

	// 快照间隔很长，接下来只会收到心跳注释
	assert.Equal(t, ": keep-alive", readLine())
}
