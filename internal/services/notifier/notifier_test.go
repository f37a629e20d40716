package notifier_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/betting-rank/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/betting-rank/internal/lib/sl"
	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/services/notifier"
	"github.com/magabrotheeeer/betting-rank/internal/storage/memory"
)

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func seed(t *testing.T) *memory.Storage {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	require.NoError(t, store.UpsertCompetition(ctx, models.Competition{ID: "ended", Name: "Ended", PrizePool: 100, EndsAt: &past}))
	require.NoError(t, store.UpsertCompetition(ctx, models.Competition{ID: "running", Name: "Running", EndsAt: &future}))
	require.NoError(t, store.UpsertCompetition(ctx, models.Competition{ID: "forever", Name: "Forever"}))
	return store
}

func TestService_AnnounceClosed(t *testing.T) {
	store := seed(t)
	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, rabbitmq.CompetitionClosedKey, mock.MatchedBy(func(e models.CompetitionClosed) bool {
		return e.CompetitionID == "ended" && e.Name == "Ended" && e.PrizePool == 100
	})).Return(nil).Once()

	svc := notifier.New(sl.Discard(), store, pub)

	n, err := svc.AnnounceClosed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.AnnounceClosed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	pub.AssertExpectations(t)
}

func TestService_AnnounceClosedPublishFailureRetries(t *testing.T) {
	store := seed(t)
	pub := new(PublisherMock)
	pub.On("Publish", mock.Anything, rabbitmq.CompetitionClosedKey, mock.Anything).Return(errors.New("broker down")).Once()
	pub.On("Publish", mock.Anything, rabbitmq.CompetitionClosedKey, mock.Anything).Return(nil).Once()

	svc := notifier.New(sl.Discard(), store, pub)

	n, err := svc.AnnounceClosed(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)

	n, err = svc.AnnounceClosed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	pub.AssertExpectations(t)
}

func TestService_AnnounceClosedCanceled(t *testing.T) {
	store := seed(t)
	svc := notifier.New(sl.Discard(), store, new(PublisherMock))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AnnounceClosed(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
