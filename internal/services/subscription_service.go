package services

import (
	"context"
	"fmt"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

// SubscriptionStore is the persistence surface the subscription service needs.
type SubscriptionStore interface {
	CreateSubscription(ctx context.Context, s core.Subscription) (int64, error)
	UpdateSubscription(ctx context.Context, s core.Subscription) error
	DeleteSubscription(ctx context.Context, id int64) error
}

// SubscriptionService coordinates subscription writes with the same
// convert-then-save discipline as expenses: the stored monthly amount always
// carries a complete per-currency map.
type SubscriptionService struct {
	store     SubscriptionStore
	converter AmountConverter
	publisher ChangePublisher
}

// NewSubscriptionService creates a subscription service. publisher may be
// nil, in which case sync messages are skipped.
func NewSubscriptionService(store SubscriptionStore, converter AmountConverter, publisher ChangePublisher) *SubscriptionService {
	return &SubscriptionService{
		store:     store,
		converter: converter,
		publisher: publisher,
	}
}

// CreateSubscription converts, persists, and announces a new subscription.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, sub core.Subscription) (int64, error) {
	if err := sub.Validate(); err != nil {
		return 0, fmt.Errorf("validate subscription: %w", err)
	}

	amounts, err := s.converter.ConvertToAllCurrencies(ctx, sub.OriginalAmount, sub.OriginalCurrency)
	if err != nil {
		return 0, fmt.Errorf("convert subscription amount: %w", err)
	}
	sub.Amounts = amounts

	id, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		return 0, fmt.Errorf("save subscription: %w", err)
	}

	publishChange(ctx, s.publisher, amqp.RecordSubscription, amqp.ChangeCreated, id)
	return id, nil
}

// UpdateSubscription reconverts and replaces an existing subscription.
func (s *SubscriptionService) UpdateSubscription(ctx context.Context, sub core.Subscription) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("validate subscription: %w", err)
	}

	amounts, err := s.converter.ConvertToAllCurrencies(ctx, sub.OriginalAmount, sub.OriginalCurrency)
	if err != nil {
		return fmt.Errorf("convert subscription amount: %w", err)
	}
	sub.Amounts = amounts

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}

	publishChange(ctx, s.publisher, amqp.RecordSubscription, amqp.ChangeUpdated, sub.ID)
	return nil
}

// DeleteSubscription removes a subscription and announces the deletion.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, id int64) error {
	if err := s.store.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	publishChange(ctx, s.publisher, amqp.RecordSubscription, amqp.ChangeDeleted, id)
	return nil
}
