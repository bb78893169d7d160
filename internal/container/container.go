package container

import (
	"pagepilot/internal/config"
	"pagepilot/internal/repository"
	"pagepilot/internal/service"
	"pagepilot/pkg/database"
	"pagepilot/pkg/logger"
	"pagepilot/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *database.PostgresDB
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
	Scheduler    *service.AggregationScheduler
}

// New wires repositories and services from the shared resources.
// redisClient may be nil; every consumer degrades to the durable store.
func New(cfg *config.Config, log *logger.Logger, db *database.PostgresDB, redisClient *redis.Client) *Container {
	repos := &repository.Repositories{
		View:   repository.NewViewRepository(db),
		Post:   repository.NewPostRepository(db),
		Option: repository.NewOptionRepository(db),
	}

	fingerprint := service.NewFingerprinter(cfg.VisitorSalt)
	bots := service.NewBotClassifier()

	services := &service.Services{
		Tracker:     service.NewViewTracker(repos.View, repos.Post, redisClient, fingerprint, bots, log),
		Stats:       service.NewStatsService(repos.View, redisClient, log),
		KeyExchange: service.NewKeyExchange(repos.Option, cfg.RemoteBaseURL, cfg.SiteURL, log),
		Auth:        service.NewAuthGate(repos.Option, log),
	}

	scheduler := service.NewAggregationScheduler(repos.View, repos.Post, redisClient, log)

	return &Container{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: repos,
		Services:     services,
		Scheduler:    scheduler,
	}
}
