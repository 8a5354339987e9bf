// Package realtime 通过事件流向订阅者推送统计快照。
//
// 每个连接独立运行：连接建立时立即推送一次，之后由变更流通知、快照定时器
// 和心跳定时器三路驱动。变更流不可用或出错时降级为只用定时器，连接本身不受影响。
package realtime

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"Twincord/internal/model"
)

const (
	EventStats = "stats"
	EventError = "error"

	DefaultSnapshotInterval  = 15 * time.Second
	DefaultHeartbeatInterval = 20 * time.Second

	statsErrorMessage = "Failed to load stats"
)

// Snapshotter 统计聚合
type Snapshotter interface {
	Snapshot(ctx context.Context) (model.Stats, error)
}

// Sink 单个连接的输出端
type Sink interface {
	Send(event string, body any) error
	// Heartbeat 只写注释帧，没有数据
	Heartbeat() error
}

// Payload 推送的 JSON 体
type Payload struct {
	Success bool         `json:"success"`
	Data    *model.Stats `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type Broadcaster struct {
	stats     Snapshotter
	watcher   Watcher
	snapshot  time.Duration
	heartbeat time.Duration
	newTicker func(time.Duration) Ticker
}

type Option func(*Broadcaster)

func WithIntervals(snapshot, heartbeat time.Duration) Option {
	return func(b *Broadcaster) {
		if snapshot > 0 {
			b.snapshot = snapshot
		}
		if heartbeat > 0 {
			b.heartbeat = heartbeat
		}
	}
}

func WithTickerFactory(fn func(time.Duration) Ticker) Option {
	return func(b *Broadcaster) { b.newTicker = fn }
}

func NewBroadcaster(stats Snapshotter, watcher Watcher, opts ...Option) *Broadcaster {
	if watcher == nil {
		watcher = NoWatch{}
	}
	b := &Broadcaster{
		stats:     stats,
		watcher:   watcher,
		snapshot:  DefaultSnapshotInterval,
		heartbeat: DefaultHeartbeatInterval,
		newTicker: newStdTicker,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Serve 阻塞直到 ctx 结束（客户端断开）。返回前定时器已停止、变更流已释放。
func (b *Broadcaster) Serve(ctx context.Context, sink Sink) {
	logger := log.Logger.With().Str("component", "stats-stream").Logger()

	// 连接建立立即推一次，客户端不用等第一条变更
	b.emit(ctx, sink)

	snapshotTicker := b.newTicker(b.snapshot)
	defer snapshotTicker.Stop()
	heartbeatTicker := b.newTicker(b.heartbeat)
	defer heartbeatTicker.Stop()

	feed, ok := b.watcher.TryWatch(ctx)
	if !ok {
		logger.Debug().Msg("change feed unavailable, using timers only")
		feed = nil
	}
	defer func() {
		if feed != nil {
			_ = feed.Close()
		}
	}()

	for {
		// feed 为 nil 时这两个通道为 nil，select 永远不会选中
		var changes <-chan struct{}
		var feedErr <-chan error
		if feed != nil {
			changes, feedErr = feed.Changes(), feed.Err()
		}

		select {
		case <-ctx.Done():
			return
		case <-snapshotTicker.C():
			b.emit(ctx, sink)
		case <-heartbeatTicker.C():
			if err := sink.Heartbeat(); err != nil {
				logger.Debug().Err(err).Msg("heartbeat write failed")
			}
		case <-changes:
			b.emit(ctx, sink)
		case err := <-feedErr:
			// 变更流出错只影响推送路径，连接继续用定时器，不再重连
			logger.Warn().Err(err).Msg("change feed failed, degrading to timers")
			_ = feed.Close()
			feed = nil
		}
	}
}

func (b *Broadcaster) emit(ctx context.Context, sink Sink) {
	if ctx.Err() != nil {
		return
	}
	st, err := b.stats.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Error().Err(err).Msg("stats snapshot failed")
		if werr := sink.Send(EventError, Payload{Success: false, Error: statsErrorMessage}); werr != nil {
			log.Debug().Err(werr).Msg("write error event failed")
		}
		return
	}
	if err := sink.Send(EventStats, Payload{Success: true, Data: &st}); err != nil {
		log.Debug().Err(err).Msg("write stats event failed")
	}
}
