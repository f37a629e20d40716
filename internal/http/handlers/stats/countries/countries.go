// Package countries содержит обработчик статистики по странам.
package countries

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// Service отдаёт статистику по странам.
type Service interface {
	Stats(ctx context.Context) ([]models.CountryStat, error)
}

// Response статистика по странам, по одной записи на страну.
type Response struct {
	CountryStats []models.CountryStat `json:"country_stats"`
}

// Handler обработчик GET /api/stats/countries.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP возвращает статистику по странам.
// @Summary Статистика по странам
// @Tags Stats
// @Produce  json
// @Success 200 {object} Response "Статистика"
// @Failure 503 {object} response.ErrorResponse "Хранилище временно недоступно"
// @Router /stats/countries [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.stats.countries"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error("failed to aggregate country stats", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	if stats == nil {
		stats = []models.CountryStat{}
	}

	render.JSON(w, r, Response{CountryStats: stats})
}
