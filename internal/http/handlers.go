package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/period"
)

type (
	expenseRequest struct {
		Date        string  `json:"date"`
		CategoryID  int64   `json:"categoryId"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
	}

	subscriptionRequest struct {
		Name          string  `json:"name"`
		CategoryID    int64   `json:"categoryId"`
		Description   string  `json:"description"`
		MonthlyAmount float64 `json:"monthlyAmount"`
		Currency      string  `json:"currency"`
		StartDate     string  `json:"startDate"`
		EndDate       string  `json:"endDate"`
	}

	categoryRequest struct {
		Name string `json:"name"`
		Icon string `json:"icon"`
	}

	settingsRequest struct {
		DefaultCurrency string  `json:"defaultCurrency"`
		APIKey          string  `json:"apiKey"`
		MonthlyBudget   float64 `json:"monthlyBudget"`
	}

	createdResponse struct {
		ID int64 `json:"id"`
	}
)

// handleReport computes period metrics. Defaults: period=yearly (the
// documented unknown-kind fallback), anchor=today, currency=settings default.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	kind := period.ParseKind(r.URL.Query().Get("period"))

	anchor := core.DateOf(time.Now().UTC())
	if raw := r.URL.Query().Get("anchor"); raw != "" {
		parsed, err := core.ParseDate(raw)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid anchor date", err)
			return
		}
		anchor = parsed
	}

	display, err := s.displayCurrency(ctx, r.URL.Query().Get("currency"))
	if err != nil {
		writeError(ctx, w, statusFor(err), "invalid display currency", err)
		return
	}

	metrics, err := s.engine.ComputeMetrics(ctx, kind, anchor, display)
	if err != nil {
		writeError(ctx, w, http.StatusInternalServerError, "compute report", err)
		return
	}

	writeJSON(w, http.StatusOK, metrics)
}

// displayCurrency resolves the report currency: explicit query parameter
// first, settings default otherwise.
func (s *Server) displayCurrency(ctx context.Context, raw string) (core.Currency, error) {
	if raw != "" {
		return core.ParseCurrency(raw)
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	return settings.DefaultCurrency, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		expenses, err := s.store.ListExpenses(ctx)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "list expenses", err)
			return
		}
		writeJSON(w, http.StatusOK, expenses)

	case http.MethodPost:
		var req expenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		expense, err := req.toExpense()
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid expense", err)
			return
		}
		id, err := s.expenses.CreateExpense(ctx, expense)
		if err != nil {
			writeError(ctx, w, statusFor(err), "create expense", err)
			return
		}
		writeJSON(w, http.StatusCreated, createdResponse{ID: id})

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, err := pathID(r.URL.Path, "/api/expenses/")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid expense id", err)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req expenseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		expense, err := req.toExpense()
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid expense", err)
			return
		}
		expense.ID = id
		if err := s.expenses.UpdateExpense(ctx, expense); err != nil {
			writeError(ctx, w, statusFor(err), "update expense", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := s.expenses.DeleteExpense(ctx, id); err != nil {
			writeError(ctx, w, statusFor(err), "delete expense", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		subscriptions, err := s.store.ListSubscriptions(ctx)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "list subscriptions", err)
			return
		}
		writeJSON(w, http.StatusOK, subscriptions)

	case http.MethodPost:
		var req subscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		subscription, err := req.toSubscription()
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid subscription", err)
			return
		}
		id, err := s.subscriptions.CreateSubscription(ctx, subscription)
		if err != nil {
			writeError(ctx, w, statusFor(err), "create subscription", err)
			return
		}
		writeJSON(w, http.StatusCreated, createdResponse{ID: id})

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id, err := pathID(r.URL.Path, "/api/subscriptions/")
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid subscription id", err)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req subscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		subscription, err := req.toSubscription()
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid subscription", err)
			return
		}
		subscription.ID = id
		if err := s.subscriptions.UpdateSubscription(ctx, subscription); err != nil {
			writeError(ctx, w, statusFor(err), "update subscription", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if err := s.subscriptions.DeleteSubscription(ctx, id); err != nil {
			writeError(ctx, w, statusFor(err), "delete subscription", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		categories, err := s.store.ListCategories(ctx)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "list categories", err)
			return
		}
		writeJSON(w, http.StatusOK, categories)

	case http.MethodPost:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		category := core.Category{Name: strings.TrimSpace(req.Name), Icon: req.Icon}
		if err := category.Validate(); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid category", err)
			return
		}
		id, err := s.store.CreateCategory(ctx, category)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "create category", err)
			return
		}
		writeJSON(w, http.StatusCreated, createdResponse{ID: id})

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	switch r.Method {
	case http.MethodGet:
		settings, err := s.store.GetSettings(ctx)
		if err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "get settings", err)
			return
		}
		// The API key never leaves the server.
		settings.APIKey = ""
		writeJSON(w, http.StatusOK, settings)

	case http.MethodPut:
		var req settingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
		currency, err := core.ParseCurrency(req.DefaultCurrency)
		if err != nil {
			writeError(ctx, w, http.StatusBadRequest, "invalid default currency", err)
			return
		}
		settings := core.Settings{
			DefaultCurrency: currency,
			APIKey:          req.APIKey,
			MonthlyBudget:   req.MonthlyBudget,
		}
		if err := s.store.UpdateSettings(ctx, settings); err != nil {
			writeError(ctx, w, http.StatusInternalServerError, "update settings", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "GET, PUT")
	}
}

func (req expenseRequest) toExpense() (core.Expense, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Expense{}, err
	}
	currency, err := core.ParseCurrency(req.Currency)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:             date,
		CategoryID:       req.CategoryID,
		Description:      strings.TrimSpace(req.Description),
		OriginalAmount:   req.Amount,
		OriginalCurrency: currency,
	}, nil
}

func (req subscriptionRequest) toSubscription() (core.Subscription, error) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Subscription{}, err
	}
	var end core.Date
	if req.EndDate != "" {
		if end, err = core.ParseDate(req.EndDate); err != nil {
			return core.Subscription{}, err
		}
	}
	currency, err := core.ParseCurrency(req.Currency)
	if err != nil {
		return core.Subscription{}, err
	}
	return core.Subscription{
		Name:             strings.TrimSpace(req.Name),
		CategoryID:       req.CategoryID,
		Description:      strings.TrimSpace(req.Description),
		OriginalAmount:   req.MonthlyAmount,
		OriginalCurrency: currency,
		StartDate:        start,
		EndDate:          end,
	}, nil
}

func pathID(path, prefix string) (int64, error) {
	raw := strings.TrimPrefix(path, prefix)
	return strconv.ParseInt(raw, 10, 64)
}
