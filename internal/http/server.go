// Package http exposes the repositories as a JSON API. Handlers hold no
// domain invariants; they translate requests into repository calls and map
// the error taxonomy onto status codes.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type Repositories struct {
	Accounts     *storage.AccountsRepository
	Categories   *storage.CategoriesRepository
	Budgets      *storage.BudgetsRepository
	Cuotas       *storage.CuotasRepository
	Transactions *storage.TransactionsRepository
	Investments  *storage.InvestmentsRepository
}

type Server struct {
	http.Server

	repos  Repositories
	goals  *services.GoalService
	stats  *services.StatsService
	logger *applog.StructuredLogger
}

func NewServer(addr string, repos Repositories, goals *services.GoalService, stats *services.StatsService, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       90 * time.Second,
		},
		repos:  repos,
		goals:  goals,
		stats:  stats,
		logger: applog.NewStructuredLogger(logger),
	}

	mux.HandleFunc("GET /healthz", handleHealth)

	s.route(mux, "GET /api/accounts", s.handleListAccounts)
	s.route(mux, "POST /api/accounts", s.handleCreateAccount)
	s.route(mux, "GET /api/accounts/{id}", s.handleGetAccount)
	s.route(mux, "PATCH /api/accounts/{id}", s.handleUpdateAccount)
	s.route(mux, "DELETE /api/accounts/{id}", s.handleRemoveAccount)

	s.route(mux, "GET /api/categories", s.handleListCategories)
	s.route(mux, "POST /api/categories", s.handleCreateCategory)
	s.route(mux, "GET /api/categories/{id}", s.handleGetCategory)
	s.route(mux, "PATCH /api/categories/{id}", s.handleUpdateCategory)
	s.route(mux, "DELETE /api/categories/{id}", s.handleRemoveCategory)
	s.route(mux, "POST /api/categories/{id}/subcategories", s.handleAddSubcategory)
	s.route(mux, "DELETE /api/categories/{id}/subcategories/{name}", s.handleRemoveSubcategory)

	s.route(mux, "GET /api/budgets", s.handleListBudgets)
	s.route(mux, "POST /api/budgets", s.handleCreateBudget)
	s.route(mux, "GET /api/budgets/{id}", s.handleGetBudget)
	s.route(mux, "PATCH /api/budgets/{id}", s.handleUpdateBudget)
	s.route(mux, "DELETE /api/budgets/{id}", s.handleRemoveBudget)
	s.route(mux, "GET /api/budgets/{id}/spent", s.handleBudgetSpent)

	s.route(mux, "GET /api/goals", s.handleListGoals)
	s.route(mux, "POST /api/goals", s.handleCreateGoal)
	s.route(mux, "GET /api/goals/{id}", s.handleGetGoal)
	s.route(mux, "PATCH /api/goals/{id}", s.handleUpdateGoal)
	s.route(mux, "DELETE /api/goals/{id}", s.handleRemoveGoal)

	s.route(mux, "GET /api/cuotas", s.handleListCuotas)
	s.route(mux, "POST /api/cuotas", s.handleCreateCuota)
	s.route(mux, "GET /api/cuotas/{id}", s.handleGetCuota)
	s.route(mux, "PATCH /api/cuotas/{id}", s.handleUpdateCuota)
	s.route(mux, "DELETE /api/cuotas/{id}", s.handleRemoveCuota)
	s.route(mux, "POST /api/cuotas/{id}/payments", s.handleRegisterPayment)

	s.route(mux, "GET /api/transactions", s.handleListTransactions)
	s.route(mux, "POST /api/transactions", s.handleCreateTransaction)
	s.route(mux, "GET /api/transactions/{id}", s.handleGetTransaction)
	s.route(mux, "PATCH /api/transactions/{id}", s.handleUpdateTransaction)
	s.route(mux, "DELETE /api/transactions/{id}", s.handleRemoveTransaction)

	s.route(mux, "GET /api/investments/positions", s.handleListPositions)
	s.route(mux, "POST /api/investments/positions", s.handleCreatePosition)
	s.route(mux, "GET /api/investments/positions/{id}", s.handleGetPosition)
	s.route(mux, "PATCH /api/investments/positions/{id}", s.handleUpdatePosition)
	s.route(mux, "DELETE /api/investments/positions/{id}", s.handleRemovePosition)
	s.route(mux, "POST /api/investments/snapshots", s.handleAddSnapshot)
	s.route(mux, "GET /api/investments/{assetType}/{ticker}/snapshots", s.handleListSnapshots)
	s.route(mux, "GET /api/investments/{assetType}/{ticker}/refs", s.handleGetRefs)

	return s
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.HandleFunc(pattern, s.withRequestLogging(h))
}

// withRequestLogging tags each request with an id, logs completion with the
// downstream status, and sets the baseline response headers.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := context.WithValue(r.Context(), requestIDKey, generateRequestID())
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		s.logger.LogHTTPEnd(ctx, r, rec.status, time.Since(start).Milliseconds(), clientIP)
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
