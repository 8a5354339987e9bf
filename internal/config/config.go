package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	HTTPAddr string
	GinMode  string

	StoreDriver string
	MySQLDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	JWTAccessSecret  string
	JWTRefreshSecret string

	CodeLength      int
	CodeMaxAttempts int

	StatsSnapshotInterval  time.Duration
	StatsHeartbeatInterval time.Duration

	LogLevel  string
	LogPretty bool
}

// Load 先尝试加载 .env，再读取 configs/config.yaml（可选），环境变量优先
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}
	v := viper.New()
	v.AddConfigPath("./configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Debug().Msg("no config file found, using environment variables")
	}
	return FromViper(v)
}

var defaults = map[string]any{
	"HTTP_ADDR":                ":8080",
	"GIN_MODE":                 "release",
	"STORE_DRIVER":             DriverMySQL,
	"MYSQL_DSN":                "user:password@tcp(127.0.0.1:3306)/twincord?charset=utf8mb4&parseTime=True",
	"REDIS_ADDR":               "127.0.0.1:6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"KAFKA_TOPIC":              "twincord.events",
	"JWT_ACCESS_SECRET":        "secret-key",
	"JWT_REFRESH_SECRET":       "refresh-key",
	"CODE_LENGTH":              6,
	"CODE_MAX_ATTEMPTS":        10,
	"STATS_SNAPSHOT_INTERVAL":  15 * time.Second,
	"STATS_HEARTBEAT_INTERVAL": 20 * time.Second,
	"LOG_LEVEL":                "info",
	"LOG_PRETTY":               false,
}

// FromViper 便于测试直接 Set 覆盖
func FromViper(v *viper.Viper) (*Config, error) {
	for k, def := range defaults {
		v.SetDefault(k, def)
	}
	r := reader{v: v}
	cfg := &Config{
		HTTPAddr:               r.str("HTTP_ADDR"),
		GinMode:                r.str("GIN_MODE"),
		StoreDriver:            r.str("STORE_DRIVER"),
		MySQLDSN:               r.str("MYSQL_DSN"),
		RedisAddr:              r.str("REDIS_ADDR"),
		RedisPassword:          r.str("REDIS_PASSWORD"),
		RedisDB:                r.int("REDIS_DB"),
		KafkaBrokers:           r.list("KAFKA_BROKERS"),
		KafkaTopic:             r.str("KAFKA_TOPIC"),
		JWTAccessSecret:        r.str("JWT_ACCESS_SECRET"),
		JWTRefreshSecret:       r.str("JWT_REFRESH_SECRET"),
		CodeLength:             r.int("CODE_LENGTH"),
		CodeMaxAttempts:        r.int("CODE_MAX_ATTEMPTS"),
		StatsSnapshotInterval:  r.duration("STATS_SNAPSHOT_INTERVAL"),
		StatsHeartbeatInterval: r.duration("STATS_HEARTBEAT_INTERVAL"),
		LogLevel:               r.str("LOG_LEVEL"),
		LogPretty:              r.bool("LOG_PRETTY"),
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("GIN_MODE: unknown mode %q", c.GinMode))
	}
	if c.StoreDriver != DriverMySQL && c.StoreDriver != DriverMemory {
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", c.StoreDriver))
	}
	if c.CodeLength < 4 {
		errs = append(errs, fmt.Errorf("CODE_LENGTH: must be at least 4, got %d", c.CodeLength))
	}
	if c.CodeMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("CODE_MAX_ATTEMPTS: must be positive, got %d", c.CodeMaxAttempts))
	}
	if c.StatsSnapshotInterval <= 0 {
		errs = append(errs, errors.New("STATS_SNAPSHOT_INTERVAL: must be positive"))
	}
	if c.StatsHeartbeatInterval <= 0 {
		errs = append(errs, errors.New("STATS_HEARTBEAT_INTERVAL: must be positive"))
	}
	return errors.Join(errs...)
}

// reader 用 cast 严格转换，格式错误记下来统一返回，不静默回落为零值
type reader struct {
	v    *viper.Viper
	errs []error
}

func (r *reader) fail(key string, err error) {
	r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
}

func (r *reader) str(key string) string {
	return strings.TrimSpace(r.v.GetString(key))
}

func (r *reader) int(key string) int {
	n, err := cast.ToIntE(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *reader) bool(key string) bool {
	b, err := cast.ToBoolE(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
	}
	return b
}

func (r *reader) duration(key string) time.Duration {
	d, err := cast.ToDurationE(r.v.Get(key))
	if err != nil {
		r.fail(key, err)
	}
	return d
}

// list 环境变量里是逗号分隔的字符串，配置文件里可以直接写数组
func (r *reader) list(key string) []string {
	raw := r.v.Get(key)
	if raw == nil {
		return nil
	}
	if s, ok := raw.(string); ok {
		raw = strings.Split(s, ",")
	}
	items, err := cast.ToStringSliceE(raw)
	if err != nil {
		r.fail(key, err)
		return nil
	}
	var out []string
	for _, p := range items {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
