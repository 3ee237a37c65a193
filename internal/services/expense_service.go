// Package services orchestrates write-path operations: conversion,
// persistence, and best-effort sync publishing.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"subtrack/internal/amqp"
	"subtrack/internal/core"
)

type (
	// ExpenseStore is the persistence surface the expense service needs.
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (int64, error)
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id int64) error
	}

	// AmountConverter expresses an amount in every supported currency.
	AmountConverter interface {
		ConvertToAllCurrencies(ctx context.Context, amount float64, base core.Currency) (map[core.Currency]float64, error)
	}

	// ChangePublisher announces record changes to external consumers.
	ChangePublisher interface {
		PublishRecordChange(ctx context.Context, recordType, change string, id int64) error
	}
)

// ExpenseService coordinates expense writes. Conversion happens before the
// save and a conversion failure aborts it: persisting an expense without its
// per-currency amounts would silently corrupt every later report.
type ExpenseService struct {
	store     ExpenseStore
	converter AmountConverter
	publisher ChangePublisher
}

// NewExpenseService creates an expense service. publisher may be nil, in
// which case sync messages are skipped.
func NewExpenseService(store ExpenseStore, converter AmountConverter, publisher ChangePublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		converter: converter,
		publisher: publisher,
	}
}

// CreateExpense converts, persists, and announces a new expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	amounts, err := s.converter.ConvertToAllCurrencies(ctx, e.OriginalAmount, e.OriginalCurrency)
	if err != nil {
		return 0, fmt.Errorf("convert expense amount: %w", err)
	}
	e.Amounts = amounts

	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	publishChange(ctx, s.publisher, amqp.RecordExpense, amqp.ChangeCreated, id)
	return id, nil
}

// UpdateExpense reconverts and replaces an existing expense. The amounts map
// is always recomputed so it never drifts from the original amount.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	amounts, err := s.converter.ConvertToAllCurrencies(ctx, e.OriginalAmount, e.OriginalCurrency)
	if err != nil {
		return fmt.Errorf("convert expense amount: %w", err)
	}
	e.Amounts = amounts

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	publishChange(ctx, s.publisher, amqp.RecordExpense, amqp.ChangeUpdated, e.ID)
	return nil
}

// DeleteExpense removes an expense and announces the deletion.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	publishChange(ctx, s.publisher, amqp.RecordExpense, amqp.ChangeDeleted, id)
	return nil
}

// publishChange is best-effort: the record is already saved locally, so a
// broker problem only logs.
func publishChange(ctx context.Context, publisher ChangePublisher, recordType, change string, id int64) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishRecordChange(ctx, recordType, change, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record change",
			"record_type", recordType,
			"change", change,
			"id", id,
			"error", err)
	}
}
