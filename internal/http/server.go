// Package http exposes the tracker as a JSON API.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"subtrack/internal/core"
	applog "subtrack/internal/log"
	"subtrack/internal/rates"
	"subtrack/internal/report"
	"subtrack/internal/services"
)

const requestTimeout = 7 * time.Second

type (
	// Store is the read-side persistence surface the handlers need.
	Store interface {
		report.ExpenseLister
		report.SubscriptionLister
		report.CategoryLister
		CreateCategory(ctx context.Context, c core.Category) (int64, error)
		GetSettings(ctx context.Context) (core.Settings, error)
		UpdateSettings(ctx context.Context, s core.Settings) error
	}

	Server struct {
		store         Store
		expenses      *services.ExpenseService
		subscriptions *services.SubscriptionService
		engine        *report.Engine
	}
)

// NewServer wires the handlers and returns a ready-to-run http.Server.
func NewServer(addr string, store Store, expenses *services.ExpenseService, subscriptions *services.SubscriptionService, engine *report.Engine) *http.Server {
	s := &Server{
		store:         store,
		expenses:      expenses,
		subscriptions: subscriptions,
		engine:        engine,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/api/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("/api/subscriptions/", s.handleSubscriptionByID)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/settings", s.handleSettings)

	return &http.Server{
		Addr:           addr,
		Handler:        applog.Middleware(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	if status >= 500 {
		slog.ErrorContext(ctx, msg, "error", err)
	} else {
		slog.WarnContext(ctx, msg, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// statusFor maps domain errors onto HTTP statuses: data validation problems
// are the caller's fault, provider rejections are upstream faults.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidCurrency),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEndBeforeStart),
		errors.Is(err, core.ErrDescriptionTooLong):
		return http.StatusBadRequest
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, rates.ErrProvider):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
