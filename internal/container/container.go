package container

import (
	"context"
	"fmt"
	"time"

	"serieer/internal/achievements"
	"serieer/internal/activity"
	"serieer/internal/cache"
	"serieer/internal/config"
	"serieer/internal/database"
	"serieer/internal/flags"
	"serieer/internal/logger"
	"serieer/internal/metadata"
	"serieer/internal/models"
	"serieer/internal/reviews"
	"serieer/internal/social"
	"serieer/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Container struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Logger *logrus.Logger

	Store        *store.Store
	Metadata     *metadata.Client
	Achievements *achievements.Manager
	Reviews      *reviews.Ledger
	Feed         *activity.Aggregator
	Recorder     *activity.Recorder
	Unread       *activity.Unread
	Flags        flags.KV
	Social       *social.Service
}

func New(ctx context.Context) (*Container, error) {
	// Initialize logger first
	logger := logger.Get()

	db, err := database.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := cache.New(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	baseURL, apiKey := config.MetadataConfig()
	metadataClient := metadata.NewClient(&metadata.ClientConfig{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Timeout:   30 * time.Second,
		RateLimit: 250 * time.Millisecond,
		Logger:    logger,
		Redis:     redisClient,
	})

	docStore := store.New(db, logger)
	manager := achievements.NewManager(docStore, metadataClient, docStore, logger)
	recorder := activity.NewRecorder(docStore, logger)

	// The ledger only needs the achievement side effects, so the manager's
	// richer return values are narrowed here.
	ledger := reviews.NewLedger(
		docStore,
		func(ctx context.Context, review *models.Review) error {
			_, err := manager.OnReviewSubmitted(ctx, review)
			return err
		},
		manager.OnReviewDeleted,
		recorder,
		logger,
	)

	kv := flags.NewRedis(redisClient)

	return &Container{
		DB:           db,
		Redis:        redisClient,
		Logger:       logger,
		Store:        docStore,
		Metadata:     metadataClient,
		Achievements: manager,
		Reviews:      ledger,
		Feed:         activity.NewAggregator(docStore, docStore, logger),
		Recorder:     recorder,
		Unread:       activity.NewUnread(docStore, kv, logger),
		Flags:        kv,
		Social:       social.NewService(db, logger),
	}, nil
}

func (c *Container) Close() {
	if c.Redis != nil {
		c.Redis.Close()
		c.Logger.Info("Redis connection closed")
	}
	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("Database connection closed")
	}
}
