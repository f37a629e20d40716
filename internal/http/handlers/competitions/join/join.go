// Package join содержит обработчик вступления в соревнование.
package join

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/betting-rank/internal/http/middlewarectx"
	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
)

// Service добавляет пользователя в соревнование.
type Service interface {
	Join(ctx context.Context, competitionID, userID string) error
}

// Response подтверждение вступления.
type Response struct {
	Detail        string `json:"detail"`
	CompetitionID string `json:"competition_id"`
}

// Handler обработчик POST /api/competitions/{id}/join.
type Handler struct {
	log      *slog.Logger
	service  Service
	onResult func(result string)
}

// New создаёт Handler. onResult получает итог попытки и может быть nil.
func New(log *slog.Logger, service Service, onResult func(result string)) *Handler {
	return &Handler{log: log, service: service, onResult: onResult}
}

// ServeHTTP добавляет текущего пользователя в соревнование.
// @Summary Вступить в соревнование
// @Tags Competitions
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID соревнования"
// @Success 200 {object} Response "Пользователь добавлен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Соревнование не найдено"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже участвует"
// @Failure 410 {object} response.ErrorResponse "Соревнование завершено"
// @Failure 503 {object} response.ErrorResponse "Хранилище временно недоступно"
// @Router /competitions/{id}/join [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.competitions.join"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.RenderDetail(w, r, http.StatusUnauthorized, "user identification missing")
		return
	}
	competitionID := chi.URLParam(r, "id")
	if competitionID == "" {
		response.RenderDetail(w, r, http.StatusBadRequest, "competition id is required")
		return
	}
	log = log.With(slog.String("competition_id", competitionID), slog.String("user_id", userID))

	if err := h.service.Join(r.Context(), competitionID, userID); err != nil {
		status := response.RenderError(w, r, err)
		h.report(http.StatusText(status))
		if status >= http.StatusInternalServerError {
			log.Error("join failed", sl.Err(err))
		} else {
			log.Info("join rejected", sl.Err(err))
		}
		return
	}
	h.report("joined")
	log.Info("user joined competition")

	render.JSON(w, r, Response{
		Detail:        "joined competition",
		CompetitionID: competitionID,
	})
}

func (h *Handler) report(result string) {
	if h.onResult != nil {
		h.onResult(result)
	}
}
