// Package health содержит обработчик проверки готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
)

// Checker проверяет доступность зависимости.
type Checker interface {
	CheckDatabaseReady(ctx context.Context) error
}

// Handler обработчик GET /api/health.
type Handler struct {
	log     *slog.Logger
	checker Checker
}

// New создаёт Handler. checker может быть nil для хранилища в памяти.
func New(log *slog.Logger, checker Checker) *Handler {
	return &Handler{
		log:     log,
		checker: checker,
	}
}

// ServeHTTP отвечает {"status":"ok"}, если хранилище доступно.
// @Summary Проверка готовности
// @Tags Health
// @Produce  json
// @Success 200 {object} map[string]string "Сервис готов"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if h.checker != nil {
		if err := h.checker.CheckDatabaseReady(r.Context()); err != nil {
			h.log.Error("storage is not ready", slog.String("op", op), sl.Err(err))
			response.RenderDetail(w, r, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}
