package server

import (
	"net/http"

	"github.com/splitpot/splitpot/internal/ledger"
	"github.com/splitpot/splitpot/internal/middleware"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

type expenseRequest struct {
	PayerID     string            `json:"payer_id"`
	Description string            `json:"description"`
	Amount      string            `json:"amount"`
	Shares      map[string]string `json:"shares,omitempty"`
}

type expenseResponse struct {
	ID          string            `json:"id"`
	GroupID     string            `json:"group_id"`
	PayerID     string            `json:"payer_id"`
	Description string            `json:"description"`
	Amount      string            `json:"amount"`
	Shares      map[string]string `json:"shares"`
	CreatedAt   int64             `json:"created_at"`
	CreatedBy   string            `json:"created_by"`
}

type settlementRequest struct {
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
}

type settlementResponse struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Amount     string `json:"amount"`
	Note       string `json:"note,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	CreatedBy  string `json:"created_by"`
}

func (req *expenseRequest) toModel(groupID string) (*models.Expense, error) {
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, &ledger.ValidationError{Reason: err.Error()}
	}

	shares := make(map[string]money.Cents, len(req.Shares))
	for member, raw := range req.Shares {
		share, err := money.Parse(raw)
		if err != nil {
			return nil, &ledger.ValidationError{Reason: err.Error()}
		}
		shares[member] = share
	}

	return &models.Expense{
		GroupID:     groupID,
		PayerID:     req.PayerID,
		Description: req.Description,
		Amount:      amount,
		Shares:      shares,
	}, nil
}

func toExpenseResponse(exp *models.Expense) expenseResponse {
	shares := make(map[string]string, len(exp.Shares))
	for member, share := range exp.Shares {
		shares[member] = share.String()
	}
	return expenseResponse{
		ID:          exp.ID,
		GroupID:     exp.GroupID,
		PayerID:     exp.PayerID,
		Description: exp.Description,
		Amount:      exp.Amount.String(),
		Shares:      shares,
		CreatedAt:   exp.CreatedAt,
		CreatedBy:   exp.CreatedBy,
	}
}

func toSettlementResponse(st *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:         st.ID,
		GroupID:    st.GroupID,
		FromUserID: st.FromUserID,
		ToUserID:   st.ToUserID,
		Amount:     st.Amount.String(),
		Note:       st.Note,
		CreatedAt:  st.CreatedAt,
		CreatedBy:  st.CreatedBy,
	}
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	exp, err := req.toModel(r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.expenses.AddExpense(r.Context(), middleware.GetUserID(r.Context()), exp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(exp))
}

func (s *Server) handleReplaceExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	exp, err := req.toModel(r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	exp.ID = r.PathValue("expenseID")
	if err := s.expenses.ReplaceExpense(r.Context(), middleware.GetUserID(r.Context()), exp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseResponse(exp))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	err := s.expenses.DeleteExpense(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("groupID"), r.PathValue("expenseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]expenseResponse, len(expenses))
	for i, exp := range expenses {
		out[i] = toExpenseResponse(exp)
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": out})
}

func (s *Server) handleAddSettlement(w http.ResponseWriter, r *http.Request) {
	var req settlementRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		writeError(w, &ledger.ValidationError{Reason: err.Error()})
		return
	}
	settlement := &models.Settlement{
		GroupID:    r.PathValue("groupID"),
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Amount:     amount,
		Note:       req.Note,
	}
	if err := s.settlements.AddSettlement(r.Context(), middleware.GetUserID(r.Context()), settlement); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSettlementResponse(settlement))
}

func (s *Server) handleDeleteSettlement(w http.ResponseWriter, r *http.Request) {
	err := s.settlements.DeleteSettlement(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("groupID"), r.PathValue("settlementID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.settlements.ListSettlements(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]settlementResponse, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlementResponse(st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"settlements": out})
}
