// Package consumer применяет расчёты ставок и отключения учётных записей
// из очереди RabbitMQ.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/betting-rank/internal/config"
	"github.com/magabrotheeeer/betting-rank/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/metrics"
	"github.com/magabrotheeeer/betting-rank/internal/migrations"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
	"github.com/magabrotheeeer/betting-rank/internal/storage/postgresql"
)

// Accounts операции над учётными записями, которые приходят из очереди.
type Accounts interface {
	ApplySettlement(ctx context.Context, st models.Settlement) (bool, error)
	Disable(ctx context.Context, userID string) error
}

// NewHandler возвращает обработчик сообщений очереди учётных записей.
// Неразбираемые и отклонённые сервисом сообщения помечаются как постоянные
// ошибки и не возвращаются в очередь.
func NewHandler(log *slog.Logger, accounts Accounts, m *metrics.Metrics) rabbitmq.Handler {
	validate := validator.New()
	return func(ctx context.Context, body []byte) error {
		const op = "consumer.handle"
		log := log.With(slog.String("op", op))

		var event models.AccountEvent
		if err := json.Unmarshal(body, &event); err != nil {
			m.Settlements.WithLabelValues("malformed").Inc()
			return rabbitmq.Permanent(fmt.Errorf("%s: %w", op, err))
		}
		if err := validate.Struct(event); err != nil {
			m.Settlements.WithLabelValues("malformed").Inc()
			return rabbitmq.Permanent(fmt.Errorf("%s: %w", op, err))
		}

		switch event.Type {
		case models.AccountEventSettlement:
			if event.Settlement == nil {
				m.Settlements.WithLabelValues("malformed").Inc()
				return rabbitmq.Permanent(fmt.Errorf("%s: settlement is missing", op))
			}
			applied, err := accounts.ApplySettlement(ctx, *event.Settlement)
			if err != nil {
				return classify(m, fmt.Errorf("%s: %w", op, err))
			}
			if !applied {
				m.Settlements.WithLabelValues("duplicate").Inc()
				log.Info("settlement already applied", slog.String("bet_id", event.Settlement.BetID))
				return nil
			}
			m.Settlements.WithLabelValues("applied").Inc()
			log.Debug("settlement applied",
				slog.String("bet_id", event.Settlement.BetID),
				slog.String("user_id", event.Settlement.UserID),
			)
		case models.AccountEventDisable:
			if event.UserID == "" {
				m.Settlements.WithLabelValues("malformed").Inc()
				return rabbitmq.Permanent(fmt.Errorf("%s: user_id is missing", op))
			}
			if err := accounts.Disable(ctx, event.UserID); err != nil {
				return classify(m, fmt.Errorf("%s: %w", op, err))
			}
			m.Settlements.WithLabelValues("disabled").Inc()
			log.Info("account disabled", slog.String("user_id", event.UserID))
		}
		return nil
	}
}

func classify(m *metrics.Metrics, err error) error {
	if errors.Is(err, account.ErrInvalidSettlement) || errors.Is(err, account.ErrNotFound) {
		m.Settlements.WithLabelValues("rejected").Inc()
		return rabbitmq.Permanent(err)
	}
	m.Settlements.WithLabelValues("error").Inc()
	return err
}

// App потребитель очереди расчётов.
type App struct {
	logger  *slog.Logger
	db      *postgresql.Storage
	conn    *amqp.Connection
	ch      *amqp.Channel
	workers int
	handler rabbitmq.Handler
}

// New подключается к PostgreSQL и RabbitMQ. Потребителю нужно общее
// с HTTP-сервисом хранилище, поэтому хранилище в памяти не поддерживается.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	const op = "app.consumer.New"
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
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		closeResources(logger, db)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		closeResources(logger, db)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.RabbitMQ.Prefetch)
	if err != nil {
		closeResources(logger, conn, db)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	accounts := account.New(db, nil, nil)
	return &App{
		logger:  logger,
		db:      db,
		conn:    conn,
		ch:      ch,
		workers: cfg.RabbitMQ.Workers,
		handler: NewHandler(logger, accounts, metrics.New(reg)),
	}, nil
}

// Run обрабатывает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer closeResources(a.logger, a.ch, a.conn, a.db)

	a.logger.Info("settlement consumer started", slog.String("queue", rabbitmq.SettlementsQueue))
	err := rabbitmq.Consume(ctx, a.ch, rabbitmq.SettlementsQueue, a.workers, a.logger, a.handler)
	if err != nil {
		a.logger.Error("consumer stopped with error", sl.Err(err))
		return err
	}
	a.logger.Info("settlement consumer shutting down gracefully")
	return nil
}

type closer interface {
	Close() error
}

func closeResources(logger *slog.Logger, resources ...closer) {
	for _, r := range resources {
		if err := r.Close(); err != nil {
			logger.Error("failed to close resource", sl.Err(err))
		}
	}
}
