package realtime

import (
	"context"
	"errors"
	"time"
)

// ErrFeedClosed 变更流在未被主动关闭的情况下结束
var ErrFeedClosed = errors.New("change feed closed")

// ChangeFeed 存储层的变更通知；任意一条通知都意味着数据可能变化
type ChangeFeed interface {
	Changes() <-chan struct{}
	Err() <-chan error
	Close() error
}

// Watcher 能力探测：ok=false 表示当前部署不支持变更流，只能走定时器
type Watcher interface {
	TryWatch(ctx context.Context) (ChangeFeed, bool)
}

// NoWatch 永远不支持变更流
type NoWatch struct{}

func (NoWatch) TryWatch(context.Context) (ChangeFeed, bool) { return nil, false }

// Ticker 便于测试时替换 time.Ticker
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

func newStdTicker(d time.Duration) Ticker { return stdTicker{t: time.NewTicker(d)} }
