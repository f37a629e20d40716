// Package bettingrank собирает HTTP API сервиса рейтинга ставок.
package bettingrank

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация спецификации Swagger.
	_ "github.com/magabrotheeeer/betting-rank/docs"

	"github.com/magabrotheeeer/betting-rank/internal/config"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/competitions/join"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/competitions/list"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/health"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/profile"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/rankings"
	"github.com/magabrotheeeer/betting-rank/internal/http/handlers/stats/countries"
	"github.com/magabrotheeeer/betting-rank/internal/http/middlewarectx"
	"github.com/magabrotheeeer/betting-rank/internal/lib/jwt"
	"github.com/magabrotheeeer/betting-rank/internal/metrics"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
	"github.com/magabrotheeeer/betting-rank/internal/services/competition"
	countriesservice "github.com/magabrotheeeer/betting-rank/internal/services/countries"
	"github.com/magabrotheeeer/betting-rank/internal/services/ranking"
)

// Services зависимости маршрутов.
type Services struct {
	Accounts     *account.Service
	Rankings     *ranking.Service
	Competitions *competition.Service
	Countries    *countriesservice.Service
	JWT          jwt.Maker
	Health       health.Checker
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middlewarectx.MetricsMiddleware(s.Metrics),
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(
			middlewarectx.RateLimitMiddleware(logger, cfg.RateLimitRPS, cfg.RateLimitBurst),
			middlewarectx.DeadlineMiddleware(cfg.RequestTimeout),
		)

		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			if cfg.AuthRequestLimit > 0 {
				r.Use(httprate.LimitByIP(cfg.AuthRequestLimit, cfg.AuthLimitWindow))
			}
			r.Post("/register", register.New(logger, s.Accounts, s.Metrics.Registrations.Inc).ServeHTTP)
			r.Post("/login", login.New(logger, s.Accounts).ServeHTTP)
		})
		r.Get("/rankings", rankings.New(logger, s.Rankings).ServeHTTP)
		r.Get("/competitions", list.New(logger, s.Competitions).ServeHTTP)
		r.Get("/stats/countries", countries.New(logger, s.Countries).ServeHTTP)
		r.Get("/health", health.New(logger, s.Health).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.JWT, s.Accounts, logger))
			r.Get("/profile", profile.New(logger, s.Rankings).ServeHTTP)
			r.Post("/competitions/{id}/join", join.New(logger, s.Competitions, func(result string) {
				s.Metrics.Joins.WithLabelValues(result).Inc()
			}).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
