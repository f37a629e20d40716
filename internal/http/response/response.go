// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: тело ошибки {"detail": ...},
// сообщения валидации и отображение доменных ошибок в HTTP‑статусы.
package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/betting-rank/internal/lib/keylock"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
	"github.com/magabrotheeeer/betting-rank/internal/services/competition"
	"github.com/magabrotheeeer/betting-rank/internal/services/ranking"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Detail string `json:"detail" example:"invalid request body"`
}

// Error возвращает ErrorResponse с переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{Detail: msg}
}

// ValidationError формирует ErrorResponse на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		field := strings.ToLower(err.Field())
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", field))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", field))
		case "alpha":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only letters", field))
		case "alphanum":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers and letters", field))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be exactly %s characters", field, err.Param()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s", field, err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s", field, err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", field))
		}
	}
	return ErrorResponse{Detail: strings.Join(errsMsgs, ", ")}
}

// FromError отображает ошибку сервисного слоя в HTTP‑статус и тело ответа.
// Неизвестные ошибки дают 500 без подробностей.
func FromError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, account.ErrInvalidSettlement):
		return http.StatusBadRequest, Error("invalid settlement")
	case errors.Is(err, account.ErrDuplicate):
		return http.StatusConflict, Error("username or email already registered")
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusUnauthorized, Error("invalid username or password")
	case errors.Is(err, account.ErrDisabled), errors.Is(err, competition.ErrUserNotFound):
		return http.StatusUnauthorized, Error("invalid or expired token")
	case errors.Is(err, account.ErrNotFound), errors.Is(err, ranking.ErrNotFound):
		return http.StatusNotFound, Error("user not found")
	case errors.Is(err, competition.ErrNotFound):
		return http.StatusNotFound, Error("competition not found")
	case errors.Is(err, competition.ErrAlreadyJoined):
		return http.StatusConflict, Error("already a member of this competition")
	case errors.Is(err, competition.ErrClosed):
		return http.StatusGone, Error("competition is closed")
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, keylock.ErrLockTimeout),
		errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable, Error("service temporarily unavailable, retry later")
	default:
		return http.StatusInternalServerError, Error("internal server error")
	}
}

// RenderError пишет ответ для err и возвращает выбранный статус.
func RenderError(w http.ResponseWriter, r *http.Request, err error) int {
	status, body := FromError(err)
	render.Status(r, status)
	render.JSON(w, r, body)
	return status
}

// RenderDetail пишет ответ с кодом status и сообщением msg.
func RenderDetail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// DecodeJSON читает из тела запроса ровно один JSON‑объект в v.
// Неизвестные поля и лишние данные после объекта считаются ошибкой.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
