// Package middlewarectx содержит HTTP middleware сервиса.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст ID и имя пользователя для обработчиков.
// В случае ошибки проверки возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/betting-rank/internal/http/response"
	"github.com/magabrotheeeer/betting-rank/internal/lib/jwt"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID ключ для ID пользователя в контексте
	UserID Key = "user_id"
	// User ключ для имени пользователя в контексте
	User Key = "username"
)

// ActiveChecker проверяет, что владелец токена существует и не отключён.
type ActiveChecker interface {
	Active(ctx context.Context, userID string) error
}

// JWTMiddleware возвращает middleware, который проверяет JWT в заголовке Authorization.
// checker может быть nil, тогда проверяется только подпись и срок действия.
func JWTMiddleware(maker jwt.Maker, checker ActiveChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Info("missing or invalid authorization header")
				response.RenderDetail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				response.RenderDetail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if checker != nil {
				if err = checker.Active(r.Context(), claims.UserID); err != nil {
					log.Info("token owner rejected", sl.Err(err))
					if errorsIsAccount(err) {
						response.RenderDetail(w, r, http.StatusUnauthorized, "invalid or expired token")
						return
					}
					response.RenderError(w, r, err)
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserID, claims.UserID)
			ctx = context.WithValue(ctx, User, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom возвращает ID пользователя, положенный JWTMiddleware.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserID).(string)
	return id, ok && id != ""
}

func errorsIsAccount(err error) bool {
	return errors.Is(err, account.ErrNotFound) || errors.Is(err, account.ErrDisabled)
}
