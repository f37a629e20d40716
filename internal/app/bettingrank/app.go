package bettingrank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/betting-rank/internal/app/scheduler"
	"github.com/magabrotheeeer/betting-rank/internal/cache"
	"github.com/magabrotheeeer/betting-rank/internal/config"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/health"
	"github.com/magabrotheeeer/betting-rank/internal/lib/jwt"
	"github.com/magabrotheeeer/betting-rank/internal/lib/password"
	"github.com/magabrotheeeer/betting-rank/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/metrics"
	"github.com/magabrotheeeer/betting-rank/internal/migrations"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
	"github.com/magabrotheeeer/betting-rank/internal/services/competition"
	"github.com/magabrotheeeer/betting-rank/internal/services/countries"
	"github.com/magabrotheeeer/betting-rank/internal/services/notifier"
	"github.com/magabrotheeeer/betting-rank/internal/services/ranking"
	"github.com/magabrotheeeer/betting-rank/internal/storage/memory"
	"github.com/magabrotheeeer/betting-rank/internal/storage/postgresql"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение сервиса рейтинга.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	closers   []io.Closer
	scheduler *scheduler.App
}

// New собирает хранилище, кэш, брокер и сервисы по конфигурации.
// Пустая строка подключения к базе выбирает хранилище в памяти,
// пустой адрес redis отключает кэш, пустой URL RabbitMQ отключает события.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg *prometheus.Registry) (*App, error) {
	const op = "app.bettingrank.New"
	app := &App{logger: logger}

	store, checker, err := app.openStore(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var projections cache.Cache = cache.Noop{}
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, redisCache)
		projections = redisCache
	}

	var publisher competition.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.closers = append(app.closers, conn)
		ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Prefetch)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = rabbitmq.NewPublisher(ch, rabbitmq.CompetitionsExchange)
	}

	if announcer := closedAnnouncer(logger, store, publisher); announcer != nil {
		app.scheduler = scheduler.NewWithAnnouncer(logger, cfg.Scheduler.Interval, announcer)
	}

	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, cfg.Issuer)
	m := metrics.New(reg)
	scorer := ranking.Scorer{WinWeight: cfg.WinWeight, RateWeight: cfg.RateWeight}

	competitions := competition.New(logger, store, publisher)
	if err = competitions.Sync(ctx, cfg.Competitions); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, Services{
		Accounts: account.New(store, hasher, jwtMaker),
		Rankings: ranking.New(logger, store,
			cache.NewObserved(projections, "rankings", m.CacheLookups), scorer, cfg.CacheTTL, cache.RankingsKey),
		Competitions: competitions,
		Countries: countries.New(logger, store,
			cache.NewObserved(projections, "country_stats", m.CacheLookups), cfg.CacheTTL, cache.CountryStatsKey),
		JWT:      jwtMaker,
		Health:   checker,
		Metrics:  m,
		Gatherer: reg,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (Store, health.Checker, error) {
	if cfg.StorageConnectionString == "" {
		a.logger.Warn("storage connection string is empty, using in-memory storage")
		return memory.New(), nil, nil
	}
	db, err := postgresql.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, db)
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, nil, err
	}
	return db, db, nil
}

// closedAnnouncer собирает оповещение о закрытых соревнованиях для хранилища
// в памяти: отдельный процесс планировщика его не видит. Для PostgreSQL и
// без брокера возвращает nil.
func closedAnnouncer(logger *slog.Logger, store Store, publisher competition.Publisher) scheduler.Announcer {
	mem, ok := store.(*memory.Storage)
	if !ok || publisher == nil {
		return nil
	}
	return notifier.New(logger, mem, publisher)
}

// Handler возвращает корневой маршрутизатор.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	if a.scheduler != nil {
		go func() {
			if err := a.scheduler.Run(ctx); err != nil {
				a.logger.Error("embedded scheduler stopped", sl.Err(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// Close освобождает ресурсы приложения без запуска сервера.
func (a *App) Close() {
	a.close()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
