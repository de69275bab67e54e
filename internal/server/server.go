// Package server exposes the application services over a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splitpot/splitpot/internal/auth"
	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/middleware"
	"github.com/splitpot/splitpot/internal/service"
	"github.com/splitpot/splitpot/internal/storage"
)

// Server routes HTTP requests to the application services.
type Server struct {
	auths       *service.AuthService
	groups      *service.GroupService
	expenses    *service.ExpenseService
	settlements *service.SettlementService
	jwtManager  *auth.JWTManager
}

// New creates a Server over the given services.
func New(auths *service.AuthService, groups *service.GroupService, expenses *service.ExpenseService, settlements *service.SettlementService, jwtManager *auth.JWTManager) *Server {
	return &Server{
		auths:       auths,
		groups:      groups,
		expenses:    expenses,
		settlements: settlements,
		jwtManager:  jwtManager,
	}
}

// Handler builds the route table with logging, CORS and auth middleware
// applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.Handle("GET /metrics", promhttp.Handler())

	authed := http.NewServeMux()
	authed.HandleFunc("POST /api/groups", s.handleCreateGroup)
	authed.HandleFunc("GET /api/groups", s.handleListGroups)
	authed.HandleFunc("GET /api/groups/{groupID}", s.handleGetGroup)
	authed.HandleFunc("DELETE /api/groups/{groupID}", s.handleDeleteGroup)
	authed.HandleFunc("POST /api/groups/{groupID}/members", s.handleAddMembers)
	authed.HandleFunc("DELETE /api/groups/{groupID}/members/{memberID}", s.handleRemoveMember)
	authed.HandleFunc("GET /api/groups/{groupID}/balances", s.handleBalances)
	authed.HandleFunc("GET /api/groups/{groupID}/debts", s.handleSimplifiedDebts)
	authed.HandleFunc("POST /api/groups/{groupID}/expenses", s.handleAddExpense)
	authed.HandleFunc("GET /api/groups/{groupID}/expenses", s.handleListExpenses)
	authed.HandleFunc("PUT /api/groups/{groupID}/expenses/{expenseID}", s.handleReplaceExpense)
	authed.HandleFunc("DELETE /api/groups/{groupID}/expenses/{expenseID}", s.handleDeleteExpense)
	authed.HandleFunc("POST /api/groups/{groupID}/settlements", s.handleAddSettlement)
	authed.HandleFunc("GET /api/groups/{groupID}/settlements", s.handleListSettlements)
	authed.HandleFunc("DELETE /api/groups/{groupID}/settlements/{settlementID}", s.handleDeleteSettlement)

	mux.Handle("/api/", middleware.RequireAuth(s.jwtManager)(authed))

	return middleware.Logging(middleware.CORS(mux))
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses per the error policy:
// validation problems are the caller's to fix, storage failures are
// retryable, invariant violations indicate a defect and are never dressed up
// as user errors.
func writeError(w http.ResponseWriter, err error) {
	var (
		validationErr *ledger.ValidationError
		storageErr    *ledger.StorageError
		invariantErr  *ledger.InvariantViolationError
	)

	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrMemberHasBalance):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPermissionDenied), errors.Is(err, service.ErrNotMember):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &invariantErr):
		// Surfaced as a plain server error; the detail stays in the logs.
		status = http.StatusInternalServerError
		msg = "internal ledger error"
	case errors.As(err, &storageErr):
		status = http.StatusServiceUnavailable
		msg = "storage unavailable, retry later"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
