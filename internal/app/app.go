package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/monbed/wifegame/internal/config"
	"github.com/monbed/wifegame/internal/server"
	"github.com/monbed/wifegame/pkg/game"
	"github.com/monbed/wifegame/pkg/service"
	"github.com/monbed/wifegame/pkg/store"
)

// App holds all application dependencies and manages the lifecycle.
// Components are initialized in dependency order: Redis, game rules,
// stores and collaborators, engine, metrics server.
type App struct {
	cfg           *config.Config
	redisClient   *redis.Client
	metricsServer *server.MetricsServer
	engine        *game.Engine
}

// New creates and initializes a new application instance.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logrus.Info("initializing application...")

	app := &App{cfg: cfg}

	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	rules, err := loadRules(cfg.RulesPath)
	if err != nil {
		return nil, err
	}

	tableStore := store.NewRedisTableStore(app.redisClient)
	picker := service.NewRedisResourcePicker(app.redisClient, cfg.CatalogKey)
	muteNotifier := service.NewRedisMuteNotifier(app.redisClient, cfg.MuteChannel)
	privChecker := service.NewStaticPrivilegeChecker(cfg.AdminIDs)

	app.engine = game.NewEngine(tableStore, picker, privChecker, muteNotifier, game.EngineConfig{
		Rules: rules,
		Day:   game.FixedOffsetDay(cfg.DayOffsetHours),
	})

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics", tableStore.Ping)
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	logrus.Info("application initialized successfully")
	return app, nil
}

// Engine exposes the game engine to the embedding chat adapter.
func (a *App) Engine() *game.Engine { return a.engine }

// loadRules loads the game parameter file. A missing file falls back to
// defaults; a present but invalid file is a startup error.
func loadRules(path string) (*game.Rules, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logrus.Warnf("no rules file at %s, using defaults", path)
		return game.DefaultRules(), nil
	}

	rules, err := game.LoadRules(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load game rules from %s: %w", path, err)
	}

	logrus.Infof("loaded game rules from %s", path)
	return rules, nil
}

// initRedis initializes the Redis client, retrying the initial ping with
// exponential backoff.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	maxRetries := backoff.WithMaxRetries(b, 5)

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}
