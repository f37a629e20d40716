// Package list содержит обработчик списка соревнований.
package list

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

// Service отдаёт соревнования.
type Service interface {
	List(ctx context.Context) ([]models.Competition, error)
}

// Response список соревнований.
type Response struct {
	Competitions []models.Competition `json:"competitions"`
}

// Handler обработчик GET /api/competitions.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP возвращает список соревнований.
// @Summary Список соревнований
// @Tags Competitions
// @Produce  json
// @Success 200 {object} Response "Соревнования"
// @Failure 503 {object} response.ErrorResponse "Хранилище временно недоступно"
// @Router /competitions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.competitions.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	list, err := h.service.List(r.Context())
	if err != nil {
		log.Error("failed to list competitions", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Competition{}
	}

	render.JSON(w, r, Response{Competitions: list})
}
