package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"Twincord/internal/config"
	"Twincord/internal/handler"
	"Twincord/internal/pkg"
	"Twincord/internal/realtime"
	"Twincord/internal/repository/memory"
	"Twincord/internal/repository/mysql"
	"Twincord/internal/repository/redis"
	"Twincord/internal/router"
	"Twincord/internal/service"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	users       service.UserStore
	communities service.CommunityStore
	messages    service.MessageStore
	close       func() error
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := pkg.InitLogger(cfg.LogLevel, cfg.LogPretty); err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	var (
		sinks      []service.EventPublisher
		watcher    realtime.Watcher = realtime.NoWatch{}
		tokens     service.TokenStore
	)

	// Redis 不可用时降级：登录态放进程内，推送只走定时器
	rdb, err := redis.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, stats stream runs on timers only")
		tokens = memory.New()
	} else {
		defer closeRedis(rdb)
		feed := redis.NewChangeFeed(rdb)
		sinks = append(sinks, feed)
		watcher = feed
		tokens = redis.NewTokenRepository(rdb)
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return err
		}
		defer func() {
			if err := producer.Close(); err != nil {
				log.Warn().Err(err).Msg("close kafka producer")
			}
		}()
		sinks = append(sinks, producer)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka event sink enabled")
	}

	// 事件由后台投递，停机时先停 HTTP 再把队列发完
	relay := service.NewEventRelay(sinks)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	relayDone := make(chan struct{})
	go func() {
		relay.Run(relayCtx)
		close(relayDone)
	}()
	defer func() {
		stopRelay()
		<-relayDone
	}()

	issuer := pkg.NewTokenIssuer(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	userSvc := service.NewUserService(st.users, tokens, issuer, relay)
	communitySvc := service.NewCommunityService(st.communities, st.users, relay,
		service.WithCodeLength(cfg.CodeLength),
		service.WithMaxCodeAttempts(cfg.CodeMaxAttempts),
	)
	messageSvc := service.NewMessageService(st.communities, st.messages, st.users, relay)
	statsSvc := service.NewStatsService(st.users, st.communities)
	broadcaster := realtime.NewBroadcaster(statsSvc, watcher,
		realtime.WithIntervals(cfg.StatsSnapshotInterval, cfg.StatsHeartbeatInterval),
	)

	r := router.InitRouter(router.Deps{
		Users:       handler.NewUserHandler(userSvc),
		Communities: handler.NewCommunityHandler(communitySvc, messageSvc),
		Stats:       handler.NewStatsHandler(statsSvc, broadcaster),
		Auth:        userSvc,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// SSE 连接需要长时间保持，不设置 WriteTimeout
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(cfg *config.Config) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		m := memory.New()
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return &stores{users: m, communities: m, messages: m, close: func() error { return nil }}, nil
	}

	db, err := mysql.Open(cfg.MySQLDSN)
	if err != nil {
		return nil, err
	}
	// 自动建表
	if err := mysql.Migrate(db); err != nil {
		_ = mysql.Close(db)
		return nil, err
	}
	return &stores{
		users:       &mysql.UserRepository{DB: db},
		communities: &mysql.CommunityRepository{DB: db},
		messages:    &mysql.MessageRepository{DB: db},
		close:       func() error { return mysql.Close(db) },
	}, nil
}

func closeRedis(rdb *goredis.Client) {
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("close redis")
	}
}
