// Package scheduler периодически объявляет о завершившихся соревнованиях.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/betting-rank/internal/config"
	"github.com/magabrotheeeer/betting-rank/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/migrations"
	"github.com/magabrotheeeer/betting-rank/internal/services/notifier"
	"github.com/magabrotheeeer/betting-rank/internal/storage/postgresql"
)

// Announcer объявляет закрытые соревнования.
type Announcer interface {
	AnnounceClosed(ctx context.Context) (int, error)
}

// App приложение планировщика.
type App struct {
	logger    *slog.Logger
	interval  time.Duration
	announcer Announcer
	closers   []closer
}

type closer interface {
	Close() error
}

// New подключается к PostgreSQL и RabbitMQ и готовит задачу оповещения.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"
	if cfg.StorageConnectionString == "" {
		return nil, fmt.Errorf("%s: storage_connection_string is required", op)
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: rabbitmq.url is required", op)
	}

	db, err := postgresql.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, interval: cfg.Scheduler.Interval, closers: []closer{db}}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.closers = append(app.closers, conn)

	var ch *amqp.Channel
	if ch, err = rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Prefetch); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.closers = append(app.closers, ch)

	app.announcer = notifier.New(logger, db, rabbitmq.NewPublisher(ch, rabbitmq.CompetitionsExchange))
	return app, nil
}

// NewWithAnnouncer создаёт App без внешних подключений.
func NewWithAnnouncer(logger *slog.Logger, interval time.Duration, announcer Announcer) *App {
	return &App{logger: logger, interval: interval, announcer: announcer}
}

// Run выполняет задачу сразу и затем каждые interval до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	const op = "app.scheduler.Run"
	defer a.close()

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(a.interval),
		gocron.NewTask(func() { a.tick(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sched.Start()
	a.logger.Info("scheduler started", slog.Duration("interval", a.interval))

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")
	if err = sched.Shutdown(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *App) tick(ctx context.Context) {
	n, err := a.announcer.AnnounceClosed(ctx)
	if err != nil {
		a.logger.Error("failed to announce closed competitions", sl.Err(err))
		return
	}
	if n > 0 {
		a.logger.Info("closed competitions announced", slog.Int("count", n))
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
