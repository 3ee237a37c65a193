package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

type fakeSubscriptionStore struct {
	created []core.Subscription
	updated []core.Subscription
	deleted []int64
	err     error
}

func (s *fakeSubscriptionStore) CreateSubscription(_ context.Context, sub core.Subscription) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.created = append(s.created, sub)
	return int64(len(s.created)), nil
}

func (s *fakeSubscriptionStore) UpdateSubscription(_ context.Context, sub core.Subscription) error {
	if s.err != nil {
		return s.err
	}
	s.updated = append(s.updated, sub)
	return nil
}

func (s *fakeSubscriptionStore) DeleteSubscription(_ context.Context, id int64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func validSubscription() core.Subscription {
	return core.Subscription{
		Name:             "Streaming",
		CategoryID:       2,
		OriginalAmount:   29,
		OriginalCurrency: core.USD,
		StartDate:        core.NewDate(2024, 1, 1),
	}
}

func TestCreateSubscription(t *testing.T) {
	store := &fakeSubscriptionStore{}
	publisher := &fakePublisher{}
	service := NewSubscriptionService(store, &fakeConverter{}, publisher)

	id, err := service.CreateSubscription(context.Background(), validSubscription())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, store.created, 1)
	assert.Equal(t, 29.0, store.created[0].Amounts[core.USD])

	require.Len(t, publisher.published, 1)
	assert.Equal(t, publishedChange{amqp.RecordSubscription, amqp.ChangeCreated, 1}, publisher.published[0])
}

func TestCreateSubscriptionRejectsInvalid(t *testing.T) {
	store := &fakeSubscriptionStore{}
	service := NewSubscriptionService(store, &fakeConverter{}, nil)

	t.Run("end before start", func(t *testing.T) {
		sub := validSubscription()
		sub.EndDate = core.NewDate(2023, 12, 31)
		_, err := service.CreateSubscription(context.Background(), sub)
		assert.ErrorIs(t, err, core.ErrEndBeforeStart)
	})

	t.Run("empty name", func(t *testing.T) {
		sub := validSubscription()
		sub.Name = ""
		_, err := service.CreateSubscription(context.Background(), sub)
		assert.ErrorIs(t, err, core.ErrEmptyName)
	})

	assert.Empty(t, store.created)
}

func TestCreateSubscriptionConversionFailureAbortsSave(t *testing.T) {
	store := &fakeSubscriptionStore{}
	convErr := errors.New("provider rejected key")
	service := NewSubscriptionService(store, &fakeConverter{err: convErr}, nil)

	_, err := service.CreateSubscription(context.Background(), validSubscription())
	assert.ErrorIs(t, err, convErr)
	assert.Empty(t, store.created)
}

func TestUpdateSubscriptionRecomputesAmounts(t *testing.T) {
	store := &fakeSubscriptionStore{}
	publisher := &fakePublisher{}
	service := NewSubscriptionService(store, &fakeConverter{}, publisher)

	sub := validSubscription()
	sub.ID = 11
	sub.Amounts = map[core.Currency]float64{core.USD: 999}
	require.NoError(t, service.UpdateSubscription(context.Background(), sub))

	require.Len(t, store.updated, 1)
	assert.Equal(t, 29.0, store.updated[0].Amounts[core.USD])

	require.Len(t, publisher.published, 1)
	assert.Equal(t, publishedChange{amqp.RecordSubscription, amqp.ChangeUpdated, 11}, publisher.published[0])
}

func TestDeleteSubscription(t *testing.T) {
	store := &fakeSubscriptionStore{}
	publisher := &fakePublisher{}
	service := NewSubscriptionService(store, &fakeConverter{}, publisher)

	require.NoError(t, service.DeleteSubscription(context.Background(), 5))
	assert.Equal(t, []int64{5}, store.deleted)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, publishedChange{amqp.RecordSubscription, amqp.ChangeDeleted, 5}, publisher.published[0])
}
