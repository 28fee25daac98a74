package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mrpremium/go-storefront-service/internal/auth"
	"github.com/mrpremium/go-storefront-service/internal/catalog"
	"github.com/mrpremium/go-storefront-service/internal/config"
	"github.com/mrpremium/go-storefront-service/internal/handler"
	"github.com/mrpremium/go-storefront-service/internal/orders"
	"github.com/mrpremium/go-storefront-service/internal/queue"
	"github.com/mrpremium/go-storefront-service/internal/store"
)

const (
	tokenIssuer     = "storefront"
	shutdownTimeout = 10 * time.Second
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the storefront HTTP server.

The server will:
- Load configuration from environment variables (and .env when present)
- Use Redis for documents and order events when REDIS_URL is set,
  otherwise an in-memory store
- Start the order notification consumer when Redis is configured
- Handle graceful shutdown on SIGINT/SIGTERM`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if port != "" {
				cfg.HTTPPort = port
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "HTTP port (default: 8080)")
	return cmd
}

// app 组装好的服务
type app struct {
	store   store.Store
	queue   *queue.RedisQueue
	handler *handler.Handler
}

func (a *app) Close() {
	if a.queue != nil {
		_ = a.queue.Close()
	}
	_ = a.store.Close()
}

// buildApp 根据配置组装存储、队列和各个服务
func buildApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	if cfg.RedisURL != "" {
		s, err := store.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis store: %w", err)
		}
		a.store = s

		q, err := queue.NewRedisQueue(cfg.RedisURL, cfg.RedisPrefix, cfg.QueueConsumer, logger)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connect redis queue: %w", err)
		}
		a.queue = q
	} else {
		logger.Warn().Msg("REDIS_URL not set; using in-memory store, data is lost on restart")
		a.store = store.NewMemoryStore()
	}

	images, err := catalog.NewImageResolver(cfg.ImageBaseURL, cfg.PlaceholderImageURL)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid IMAGE_BASE_URL: %w", err)
	}

	var publisher orders.Publisher
	if a.queue != nil {
		publisher = a.queue
	}

	products := catalog.NewService(a.store, images, logger)
	a.handler = handler.New(cfg, handler.Services{
		Store:   a.store,
		Catalog: products,
		Orders:  orders.NewService(a.store, products, publisher, logger),
		Auth:    newAuthService(cfg, logger),
	}, logger)

	return a, nil
}

// newAuthService 未配置管理员时所有登录都会失败
func newAuthService(cfg *config.Config, logger zerolog.Logger) *auth.Service {
	var accounts []auth.Account
	secret := cfg.JWTSecret
	if cfg.AdminEmail != "" {
		accounts = append(accounts, auth.Account{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash})
	} else {
		logger.Warn().Msg("ADMIN_EMAIL not set; admin console is disabled")
	}
	if secret == "" {
		secret = uuid.NewString()
	}
	return auth.NewService(auth.NewJWTManager(secret, cfg.TokenTTL, tokenIssuer), accounts, logger)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting storefront server")

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           a.handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("port", cfg.HTTPPort).
			Int("max_concurrent", cfg.MaxConcurrent).
			Bool("redis", cfg.RedisURL != "").
			Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if a.queue != nil {
		g.Go(func() error {
			return a.queue.StartConsumer(gctx, queue.NotifyHandler(cfg.AdminEmail, logger), cfg.QueueConcurrency)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
