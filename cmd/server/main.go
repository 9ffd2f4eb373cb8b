package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/seokit/internal/api"
	"github.com/dmitrymomot/seokit/internal/authevents"
	"github.com/dmitrymomot/seokit/internal/history"
	"github.com/dmitrymomot/seokit/internal/store/pgstore"
	"github.com/dmitrymomot/seokit/internal/store/redisstore"
	"github.com/dmitrymomot/seokit/pkg/config"
	"github.com/dmitrymomot/seokit/pkg/httpserver"
	"github.com/dmitrymomot/seokit/pkg/jwt"
	"github.com/dmitrymomot/seokit/pkg/logger"
	"github.com/dmitrymomot/seokit/pkg/mongo"
	"github.com/dmitrymomot/seokit/pkg/pg"
	"github.com/dmitrymomot/seokit/pkg/ratelimiter"
	"github.com/dmitrymomot/seokit/pkg/redis"
	"github.com/dmitrymomot/seokit/pkg/requestid"
	"github.com/dmitrymomot/seokit/pkg/subscription"
	"github.com/dmitrymomot/seokit/pkg/tools"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var app appConfig
	if err := config.Load(&app); err != nil {
		return err
	}
	if err := app.validate(); err != nil {
		return errors.Join(config.ErrParsingConfig, err)
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}
	log := logger.New(
		logger.WithEnvironment(app.Env, app.Service),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(requestid.LogExtractor()),
	)
	logger.SetAsDefault(log)

	// Postgres holds subscriptions and payments, and usage unless Redis does.
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, pgCfg, pgstore.Migrations, pgstore.MigrationsDir, log); err != nil {
		return err
	}
	store := pgstore.New(pool)

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)}

	var redisClient *goredis.Client
	var redisCfg redis.Config
	if app.needsRedis() {
		if err := config.Load(&redisCfg); err != nil {
			return err
		}
		redisClient, err = redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		checks["redis"] = redis.Healthcheck(redisClient)
	}

	var usage subscription.UsageStore = store
	if app.UsageBackend == backendRedis {
		usage = redisstore.New(redisClient, redisCfg.KeyPrefix)
	}

	checkout, gateway, webhooks, err := billing(app)
	if err != nil {
		return err
	}

	metrics := api.NewMetrics()
	manager := subscription.NewManager(store, usage,
		subscription.WithPaymentStore(store),
		subscription.WithCheckout(checkout),
		subscription.WithLogger(log),
		subscription.WithNotifier(metrics.Notifier()),
	)
	metrics.TrackSessions(manager.Len)

	processor := subscription.NewBillingProcessor(store, store,
		subscription.WithOnChange(manager.RefreshUser),
		subscription.WithProcessorLogger(log),
	)

	var toolsCfg tools.Config
	if err := config.Load(&toolsCfg); err != nil {
		return err
	}
	toolClient := tools.New(toolsCfg, tools.WithLogger(log))

	var jwtCfg jwt.Config
	if err := config.Load(&jwtCfg); err != nil {
		return err
	}
	jwtService, err := jwt.New(jwtCfg)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Manager:  manager,
		JWT:      jwtService,
		Tools:    toolClient,
		Gateway:  gateway,
		Webhooks: webhooks,
		Metrics:  metrics,
		Checks:   checks,
		Logger:   log,
	}
	if webhooks != nil {
		deps.Processor = processor
	}

	if app.HistoryEnabled {
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return err
		}
		db, err := mongo.NewWithDatabase(ctx, mongoCfg)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = db.Client().Disconnect(ctx)
		}()

		repo := history.NewRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
		deps.History = repo
		checks["mongodb"] = mongo.Healthcheck(db.Client())
	}

	if app.RateLimitEnabled {
		var rlCfg ratelimiter.Config
		if err := config.Load(&rlCfg); err != nil {
			return err
		}
		var rlStore ratelimiter.Store
		if app.RateLimitBackend == backendRedis {
			rlStore = ratelimiter.NewRedisStore(redisClient, redisCfg.KeyPrefix+":ratelimit:")
		} else {
			mem := ratelimiter.NewMemoryStore()
			defer mem.Close()
			rlStore = mem
		}
		deps.Limiter, err = ratelimiter.NewBucket(rlStore, rlCfg)
		if err != nil {
			return err
		}
	}

	var apiCfg api.Config
	if err := config.Load(&apiCfg); err != nil {
		return err
	}
	router, err := api.NewRouter(apiCfg, deps)
	if err != nil {
		return err
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	server := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	var consumer *authevents.Consumer
	if app.AuthEventsEnabled {
		var evCfg authevents.Config
		if err := config.Load(&evCfg); err != nil {
			return err
		}
		consumer = authevents.New(evCfg, manager, log)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(ctx, router)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}

	return g.Wait()
}

// billing picks the checkout provider the sessions use, the gateway behind
// /api/create-checkout and the webhook verifier.
func billing(app appConfig) (subscription.CheckoutProvider, subscription.CheckoutProvider, subscription.WebhookParser, error) {
	var paddle *subscription.PaddleProvider
	if app.PaddleEnabled {
		var cfg subscription.PaddleConfig
		if err := config.Load(&cfg); err != nil {
			return nil, nil, nil, err
		}
		p, err := subscription.NewPaddleProvider(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		paddle = p
	}

	switch {
	case app.CheckoutEndpoint != "" && paddle != nil:
		return subscription.NewHTTPCheckout(app.CheckoutEndpoint), paddle, paddle, nil
	case app.CheckoutEndpoint != "":
		return subscription.NewHTTPCheckout(app.CheckoutEndpoint), nil, nil, nil
	case paddle != nil:
		return paddle, paddle, paddle, nil
	default:
		return nil, nil, nil, nil
	}
}
