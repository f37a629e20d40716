package rankings

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Rankings(ctx context.Context) ([]models.RankingEntry, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]models.RankingEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func entries() []models.RankingEntry {
	return []models.RankingEntry{
		{Rank: 1, ID: "a", Username: "a", Score: 110, WonBets: 10, TotalBets: 10},
		{Rank: 2, ID: "b", Username: "b", Score: 55, WonBets: 5, LostBets: 5, TotalBets: 10},
		{Rank: 3, ID: "c", Username: "c", Score: 0, LostBets: 10, TotalBets: 10},
	}
}

func TestRankingsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		query          string
		setupMock      func(*MockService)
		expectedStatus int
		wantRanks      []int
	}{
		{
			name:           "вся таблица",
			setupMock:      func(m *MockService) { m.On("Rankings", mock.Anything).Return(entries(), nil).Once() },
			expectedStatus: http.StatusOK,
			wantRanks:      []int{1, 2, 3},
		},
		{
			name:           "страница",
			query:          "?limit=1&offset=1",
			setupMock:      func(m *MockService) { m.On("Rankings", mock.Anything).Return(entries(), nil).Once() },
			expectedStatus: http.StatusOK,
			wantRanks:      []int{2},
		},
		{
			name:           "пустая таблица",
			setupMock:      func(m *MockService) { m.On("Rankings", mock.Anything).Return([]models.RankingEntry{}, nil).Once() },
			expectedStatus: http.StatusOK,
			wantRanks:      []int{},
		},
		{
			name:           "отрицательное смещение",
			query:          "?offset=-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "слишком большой лимит",
			query:          "?limit=5000",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "лимит не число",
			query:          "?limit=ten",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "хранилище недоступно",
			setupMock:      func(m *MockService) { m.On("Rankings", mock.Anything).Return(nil, storage.ErrUnavailable).Once() },
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)
			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/rankings"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.wantRanks != nil {
				var resp Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.NotNil(t, resp.Rankings)
				ranks := make([]int, 0, len(resp.Rankings))
				for _, e := range resp.Rankings {
					ranks = append(ranks, e.Rank)
				}
				assert.Equal(t, tt.wantRanks, ranks)
			} else {
				assert.Contains(t, w.Body.String(), `"detail"`)
			}
			mockService.AssertExpectations(t)
		})
	}
}
