package response

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/betting-rank/internal/lib/keylock"
	"github.com/magabrotheeeer/betting-rank/internal/services/account"
	"github.com/magabrotheeeer/betting-rank/internal/services/competition"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "дубликат", err: fmt.Errorf("op: %w", account.ErrDuplicate), want: http.StatusConflict},
		{name: "неверные данные входа", err: account.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "отключён", err: account.ErrDisabled, want: http.StatusUnauthorized},
		{name: "нет пользователя", err: account.ErrNotFound, want: http.StatusNotFound},
		{name: "нет соревнования", err: competition.ErrNotFound, want: http.StatusNotFound},
		{name: "уже участник", err: competition.ErrAlreadyJoined, want: http.StatusConflict},
		{name: "закрыто", err: competition.ErrClosed, want: http.StatusGone},
		{name: "таймаут", err: fmt.Errorf("op: %w", context.DeadlineExceeded), want: http.StatusServiceUnavailable},
		{name: "блокировка", err: errors.Join(keylock.ErrLockTimeout, context.Canceled), want: http.StatusServiceUnavailable},
		{name: "хранилище", err: storage.ErrUnavailable, want: http.StatusServiceUnavailable},
		{name: "прочее", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := FromError(tt.err)
			assert.Equal(t, tt.want, status)
			assert.NotEmpty(t, body.Detail)
			assert.NotContains(t, body.Detail, "boom")
		})
	}
}

func TestValidationError(t *testing.T) {
	type req struct {
		Username string `validate:"required"`
		Email    string `validate:"required,email"`
		Country  string `validate:"len=2"`
	}
	err := validator.New().Struct(req{Email: "nope", Country: "USA"})
	require.Error(t, err)

	body := ValidationError(err.(validator.ValidationErrors))
	assert.Contains(t, body.Detail, "field username is a required field")
	assert.Contains(t, body.Detail, "field email must be a valid email")
	assert.Contains(t, body.Detail, "field country must be exactly 2 characters")
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "корректный", body: `{"name":"a"}`},
		{name: "неизвестное поле", body: `{"name":"a","admin":true}`, wantErr: true},
		{name: "два объекта", body: `{"name":"a"}{"name":"b"}`, wantErr: true},
		{name: "не json", body: `name=a`, wantErr: true},
		{name: "пустое тело", body: ``, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(r, &p)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "a", p.Name)
			}
		})
	}
}

func TestRenderError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	status := RenderError(w, r, competition.ErrClosed)
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.JSONEq(t, `{"detail":"competition is closed"}`, w.Body.String())
}
