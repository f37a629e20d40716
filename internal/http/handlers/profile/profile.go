// Package profile содержит обработчик профиля текущего пользователя.
package profile

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/betting-rank/internal/http/middlewarectx"
	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
)

// RankingService отдаёт пользователя и его место по одному снимку.
type RankingService interface {
	Standing(ctx context.Context, userID string) (*models.User, *models.RankingEntry, error)
}

// Handler обработчик GET /api/profile.
type Handler struct {
	log      *slog.Logger
	rankings RankingService
}

// New создаёт Handler.
func New(log *slog.Logger, rankings RankingService) *Handler {
	return &Handler{log: log, rankings: rankings}
}

// ServeHTTP возвращает профиль вместе с очками и местом.
// @Summary Профиль пользователя
// @Description Возвращает данные текущего пользователя, его очки и место в рейтинге.
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Profile "Профиль"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 503 {object} response.ErrorResponse "Хранилище временно недоступно"
// @Router /profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile"

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

	user, entry, err := h.rankings.Standing(r.Context(), userID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, models.NewProfile(user, entry.Score, entry.Rank))
}
