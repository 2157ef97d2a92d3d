package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/ec-storefront/assets"
	"github.com/example/ec-storefront/internal/api"
	"github.com/example/ec-storefront/internal/auth"
	"github.com/example/ec-storefront/internal/config"
	"github.com/example/ec-storefront/internal/domain/order"
	"github.com/example/ec-storefront/internal/domain/product"
	"github.com/example/ec-storefront/internal/domain/user"
	"github.com/example/ec-storefront/internal/events"
	"github.com/example/ec-storefront/internal/i18n"
	"github.com/example/ec-storefront/internal/infrastructure/fixture"
	"github.com/example/ec-storefront/internal/infrastructure/kafka"
	"github.com/example/ec-storefront/internal/infrastructure/storage"
	"github.com/example/ec-storefront/internal/session"
)

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("storefront terminated with error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	zapCfg := zap.NewProductionConfig()
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return zapCfg.Build()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	kv, closer, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer.Close()

	source := fixtureSource(cfg, logger)

	var publisher events.Publisher
	if cfg.KafkaEnabled() {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	orderOpts := []order.Option{order.WithLogger(logger)}
	directoryOpts := []user.DirectoryOption{user.WithDirectoryLogger(logger)}
	sessionOpts := []session.Option{
		session.WithLogger(logger),
		session.WithDefaultLanguage(cfg.DefaultLanguage),
	}
	if publisher != nil {
		orderOpts = append(orderOpts, order.WithPublisher(publisher))
		directoryOpts = append(directoryOpts, user.WithDirectoryPublisher(publisher))
		sessionOpts = append(sessionOpts, session.WithPublisher(publisher))
	}

	orders := order.NewStore(ctx, kv, source, orderOpts...)
	directory := user.NewDirectory(kv, source, directoryOpts...)
	registry := session.NewRegistry(kv, directory, i18n.NewLoader(source, logger), sessionOpts...)
	catalog := product.NewCatalog(source, logger)

	handlers := api.NewHandlers(catalog, orders, registry, tokens, logger)
	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           api.NewRouter(handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return registry.Run(ctx, time.Minute, cfg.SessionTTL)
	})

	g.Go(func() error {
		logger.Info("starting storefront server",
			zap.String("addr", cfg.RunAddress),
			zap.String("storage", cfg.StorageBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStorage builds the configured key-value backend
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.KeyValue, io.Closer, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := storage.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		store := storage.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to migrate storage: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return store, db, nil

	case config.BackendDynamoDB:
		client, err := storage.NewDynamoClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
		}
		logger.Info("using DynamoDB storage", zap.String("table", cfg.DynamoTable))
		return storage.NewDynamoStore(client, cfg.DynamoTable), nopCloser{}, nil
	}

	logger.Warn("using in-memory storage, state is lost on restart")
	return storage.NewMemoryStore(), nopCloser{}, nil
}

// fixtureSource picks the fixture documents: a URL, a directory or the
// embedded defaults
func fixtureSource(cfg *config.Config, logger *zap.Logger) fixture.Source {
	switch {
	case cfg.FixturesURL != "":
		logger.Info("reading fixtures over HTTP", zap.String("url", cfg.FixturesURL))
		return fixture.NewHTTPSource(cfg.FixturesURL)
	case cfg.FixturesDir != "":
		logger.Info("reading fixtures from directory", zap.String("dir", cfg.FixturesDir))
		return fixture.NewFSSource(os.DirFS(cfg.FixturesDir))
	}
	return fixture.NewFSSource(assets.FS)
}
