package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 服务配置
type Config struct {
	// HTTP 服务端口
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	// 最大并发数
	MaxConcurrent int `env:"MAX_CONCURRENT" envDefault:"100"`
	// 请求超时时间
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Redis URL（为空时使用内存存储，不启动队列）
	RedisURL string `env:"REDIS_URL"`
	// Redis key 前缀
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"storefront"`
	// 队列消费者名称
	QueueConsumer string `env:"QUEUE_CONSUMER" envDefault:"storefront-1"`
	// 队列消费并发数
	QueueConcurrency int `env:"QUEUE_CONCURRENCY" envDefault:"10"`

	// 管理员账号
	AdminEmail string `env:"ADMIN_EMAIL"`
	// 管理员密码 bcrypt 哈希
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	// JWT 签名密钥
	JWTSecret string `env:"JWT_SECRET"`
	// 登录有效期
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"12h"`

	// 商品图片相对路径的基础 URL
	ImageBaseURL string `env:"IMAGE_BASE_URL"`
	// 没有图片时的占位图
	PlaceholderImageURL string `env:"PLACEHOLDER_IMAGE_URL" envDefault:"https://via.placeholder.com/400x400?text=No+Image"`

	Logging LoggingConfig `envPrefix:"LOG_"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load 从环境变量加载配置，存在 .env 时先加载
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig 默认配置（忽略环境变量）
func DefaultConfig() *Config {
	cfg := &Config{}
	// 只有默认值，不会出错
	_ = env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// Validate 检查配置
func (c *Config) Validate() error {
	if c.MaxConcurrent <= 0 {
		return errors.New("MAX_CONCURRENT must be positive")
	}
	if c.QueueConcurrency <= 0 {
		return errors.New("QUEUE_CONCURRENCY must be positive")
	}
	if c.AdminEmail != "" && c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH is required when ADMIN_EMAIL is set")
	}
	if c.AdminEmail != "" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when ADMIN_EMAIL is set")
	}
	return nil
}
