package middlewarectx

import (
	"context"
	"net/http"
	"time"
)

// DeadlineMiddleware ограничивает время обработки запроса. Операции хранилища,
// не успевшие к сроку, завершаются ошибкой контекста, которая отдаётся как 503.
func DeadlineMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
