// Package rankings содержит обработчик таблицы лидеров.
package rankings

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/services/ranking"
)

// MaxLimit наибольший размер страницы.
const MaxLimit = 1000

// Service отдаёт таблицу лидеров.
type Service interface {
	Rankings(ctx context.Context) ([]models.RankingEntry, error)
}

// Response строки таблицы лидеров по возрастанию места.
type Response struct {
	Rankings []models.RankingEntry `json:"rankings"`
}

// Handler обработчик GET /api/rankings.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP возвращает таблицу лидеров.
// @Summary Таблица лидеров
// @Description Возвращает игроков по убыванию очков. Места глобальные и не зависят от страницы.
// @Tags Rankings
// @Produce  json
// @Param limit query int false "Размер страницы (не больше 1000)"
// @Param offset query int false "Смещение"
// @Success 200 {object} Response "Таблица лидеров"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры страницы"
// @Failure 503 {object} response.ErrorResponse "Хранилище временно недоступно"
// @Router /rankings [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rankings"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := queryInt(r, "limit")
	if err != nil || limit < 0 || limit > MaxLimit {
		response.RenderDetail(w, r, http.StatusBadRequest, "limit must be an integer between 0 and 1000")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil || offset < 0 {
		response.RenderDetail(w, r, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	entries, err := h.service.Rankings(r.Context())
	if err != nil {
		log.Error("failed to compute rankings", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, Response{Rankings: ranking.Page(entries, limit, offset)})
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
