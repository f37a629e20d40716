// Package register содержит обработчик регистрации пользователя.
package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
)

// Service регистрирует пользователей.
type Service interface {
	Register(ctx context.Context, in account.RegisterInput) (*models.User, string, error)
}

// Request входные данные для регистрации
type Request struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Country  string `json:"country" validate:"required,len=2,alpha"`
	FullName string `json:"full_name" validate:"required,max=100"`
}

// Response токен и созданный пользователь.
type Response struct {
	Token string `json:"token"`
	models.Profile
}

// Handler обработчик POST /api/register.
type Handler struct {
	log      *slog.Logger
	service  Service
	onCreate func()
	validate *validator.Validate
}

// New создаёт Handler. onCreate вызывается после успешной регистрации и может быть nil.
func New(log *slog.Logger, service Service, onCreate func()) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		onCreate: onCreate,
		validate: validator.New(),
	}
}

// ServeHTTP обрабатывает запрос на регистрацию.
// @Summary Регистрация пользователя
// @Description Создаёт учётную запись и возвращает JWT вместе с данными пользователя.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные нового пользователя"
// @Success 200 {object} Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Имя пользователя или email заняты"
// @Failure 503 {object} response.ErrorResponse "Хранилище временно недоступно"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := response.DecodeJSON(r, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		response.RenderDetail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Info("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		response.RenderDetail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.service.Register(r.Context(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Country:  req.Country,
		FullName: req.FullName,
	})
	if err != nil {
		status := response.RenderError(w, r, err)
		if status >= http.StatusInternalServerError {
			log.Error("registration failed", sl.Err(err))
		} else {
			log.Info("registration rejected", sl.Err(err))
		}
		return
	}
	if h.onCreate != nil {
		h.onCreate()
	}
	log.Info("user registered", slog.String("user_id", user.ID))

	render.JSON(w, r, Response{
		Token:   token,
		Profile: models.NewProfile(user, 0, 0),
	})
}
