package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"Twincord/internal/realtime"
	"Twincord/internal/service"
)

type StatsHandler struct {
	stats       *service.StatsService
	broadcaster *realtime.Broadcaster
}

func NewStatsHandler(stats *service.StatsService, broadcaster *realtime.Broadcaster) *StatsHandler {
	return &StatsHandler{stats: stats, broadcaster: broadcaster}
}

// Get 单次快照
func (h *StatsHandler) Get(c *gin.Context) {
	st, err := h.stats.Snapshot(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"data": st})
}

// Stream 长连接推送，直到客户端断开
func (h *StatsHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	log.Debug().Str("remote", c.ClientIP()).Msg("stats stream opened")
	h.broadcaster.Serve(c.Request.Context(), &sseSink{w: c.Writer})
	log.Debug().Str("remote", c.ClientIP()).Msg("stats stream closed")
}

// sseSink 只在 Serve 的单个 goroutine 里使用，不需要加锁
type sseSink struct {
	w gin.ResponseWriter
}

func (s *sseSink) Send(event string, body any) error {
	if err := sse.Encode(s.w, sse.Event{Event: event, Data: body}); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

func (s *sseSink) Heartbeat() error {
	if _, err := io.WriteString(s.w, ": keep-alive\n\n"); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}

// Health 存活检查
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
}
