package redis

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"Twincord/internal/model"
	"Twincord/internal/realtime"
)

// ChangeChannel 所有写操作成功后都会在这个频道发一条通知
const ChangeChannel = "twincord:changes"

// ChangeFeed 基于 Pub/Sub 的变更流。写端 Publish，读端每个 SSE 连接各自 TryWatch。
type ChangeFeed struct {
	RDB     *redis.Client
	Channel string
}

func NewChangeFeed(rdb *redis.Client) *ChangeFeed {
	return &ChangeFeed{RDB: rdb, Channel: ChangeChannel}
}

func (f *ChangeFeed) Publish(ctx context.Context, ev model.ChangeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.RDB.Publish(ctx, f.Channel, body).Err()
}

// TryWatch 订阅成功（收到订阅确认）才算支持变更流
func (f *ChangeFeed) TryWatch(ctx context.Context) (realtime.ChangeFeed, bool) {
	ps := f.RDB.Subscribe(ctx, f.Channel)
	if _, err := ps.Receive(ctx); err != nil {
		log.Warn().Err(err).Str("channel", f.Channel).Msg("subscribe change feed failed")
		_ = ps.Close()
		return nil, false
	}
	sub := &subscription{
		ps:      ps,
		changes: make(chan struct{}),
		errs:    make(chan error, 1),
		closed:  make(chan struct{}),
	}
	go sub.pump(ps.Channel())
	return sub, true
}

type subscription struct {
	ps      *redis.PubSub
	changes chan struct{}
	errs    chan error
	closed  chan struct{}
	once    sync.Once
	err     error
}

func (s *subscription) Changes() <-chan struct{} { return s.changes }
func (s *subscription) Err() <-chan error        { return s.errs }

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.err = s.ps.Close()
	})
	return s.err
}

// pump 消息内容不重要，每条消息转成一次通知
func (s *subscription) pump(msgs <-chan *redis.Message) {
	for {
		select {
		case <-s.closed:
			return
		case _, ok := <-msgs:
			if !ok {
				select {
				case s.errs <- realtime.ErrFeedClosed:
				default:
				}
				return
			}
			select {
			case s.changes <- struct{}{}:
			case <-s.closed:
				return
			}
		}
	}
}
