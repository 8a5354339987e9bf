package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"Twincord/internal/model"
)

const (
	defaultRelayBuffer  = 256
	defaultRelayTimeout = 2 * time.Second
)

// ErrRelayFull 队列已满，事件被丢弃
var ErrRelayFull = errors.New("event relay queue is full")

// EventRelay 把变更事件放进有界队列，由后台协程投递给各出口，请求路径不等待下游
type EventRelay struct {
	sinks   []EventPublisher
	queue   chan model.ChangeEvent
	timeout time.Duration
}

type RelayOption func(*EventRelay)

func WithRelayBuffer(n int) RelayOption {
	return func(r *EventRelay) {
		if n > 0 {
			r.queue = make(chan model.ChangeEvent, n)
		}
	}
}

// WithSinkTimeout 每个出口单独计时，一个出口卡住不占用其他出口的时间
func WithSinkTimeout(d time.Duration) RelayOption {
	return func(r *EventRelay) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewEventRelay(sinks []EventPublisher, opts ...RelayOption) *EventRelay {
	r := &EventRelay{
		queue:   make(chan model.ChangeEvent, defaultRelayBuffer),
		timeout: defaultRelayTimeout,
	}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish 只入队，不阻塞
func (r *EventRelay) Publish(_ context.Context, ev model.ChangeEvent) error {
	if len(r.sinks) == 0 {
		return nil
	}
	select {
	case r.queue <- ev:
		return nil
	default:
		return ErrRelayFull
	}
}

// Run 投递循环，ctx 结束后把队列中剩余的事件发完再返回
func (r *EventRelay) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case ev := <-r.queue:
			r.deliver(ev)
		}
	}
}

func (r *EventRelay) drain() {
	for {
		select {
		case ev := <-r.queue:
			r.deliver(ev)
		default:
			return
		}
	}
}

func (r *EventRelay) deliver(ev model.ChangeEvent) {
	var wg sync.WaitGroup
	for _, s := range r.sinks {
		wg.Add(1)
		go func(s EventPublisher) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			defer cancel()
			if err := s.Publish(ctx, ev); err != nil {
				log.Warn().Err(err).Str("event", string(ev.Type)).Msg("publish change event failed")
			}
		}(s)
	}
	wg.Wait()
}

// notify 尽力投递：请求已成功，通知失败只记日志
func notify(ctx context.Context, pub EventPublisher, ev model.ChangeEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn().Err(err).Str("event", string(ev.Type)).Msg("publish change event failed")
	}
}
