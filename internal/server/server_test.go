package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/splitpot/splitpot/internal/auth"
	"github.com/splitpot/splitpot/internal/service"
	"github.com/splitpot/splitpot/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	jwtManager := auth.NewJWTManager("test-secret-key-32-bytes-long!!!", time.Hour)
	srv := New(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager),
		service.NewGroupService(store),
		service.NewExpenseService(store),
		service.NewSettlementService(store),
		jwtManager,
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// doJSON issues a request with an optional bearer token and decodes the JSON
// response into out when out is non-nil.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func register(t *testing.T, ts *httptest.Server, email, name string) (userID, token string) {
	t.Helper()

	var session sessionResponse
	status := doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "name": name, "password": "password123",
	}, &session)
	if status != http.StatusCreated {
		t.Fatalf("register %s: status = %d, want 201", email, status)
	}
	return session.User.ID, session.Token
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	userID, token := register(t, ts, "alice@example.com", "Alice")
	if userID == "" || token == "" {
		t.Fatal("registration returned empty session")
	}

	var session sessionResponse
	status := doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	}, &session)
	if status != http.StatusOK {
		t.Fatalf("login status = %d, want 200", status)
	}
	if session.User.ID != userID {
		t.Errorf("logged in as %q, want %q", session.User.ID, userID)
	}

	status = doJSON(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	}, nil)
	if status != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", status)
	}

	status = doJSON(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@example.com", "name": "Imposter", "password": "password456",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", status)
	}
}

func TestRequiresAuthentication(t *testing.T) {
	ts := newTestServer(t)

	if status := doJSON(t, ts, http.MethodGet, "/api/groups", "", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", status)
	}
	if status := doJSON(t, ts, http.MethodGet, "/api/groups", "garbage", nil, nil); status != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", status)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	ts := newTestServer(t)

	aliceID, aliceToken := register(t, ts, "alice@example.com", "Alice")
	bobID, bobToken := register(t, ts, "bob@example.com", "Bob")

	var group groupResponse
	status := doJSON(t, ts, http.MethodPost, "/api/groups", aliceToken, map[string]any{
		"name": "Trip", "members": []string{aliceID, bobID},
	}, &group)
	if status != http.StatusCreated {
		t.Fatalf("create group status = %d, want 201", status)
	}

	var exp expenseResponse
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), aliceToken, map[string]any{
		"payer_id":    aliceID,
		"description": "Dinner",
		"amount":      "90.00",
		"shares":      map[string]string{aliceID: "45.00", bobID: "45.00"},
	}, &exp)
	if status != http.StatusCreated {
		t.Fatalf("add expense status = %d, want 201", status)
	}
	if exp.Amount != "90.00" {
		t.Errorf("amount = %q, want 90.00", exp.Amount)
	}

	var balancesBody struct {
		Balances map[string]string `json:"balances"`
	}
	status = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/groups/%s/balances", group.ID), bobToken, nil, &balancesBody)
	if status != http.StatusOK {
		t.Fatalf("balances status = %d, want 200", status)
	}
	if balancesBody.Balances[aliceID] != "45.00" || balancesBody.Balances[bobID] != "-45.00" {
		t.Errorf("balances = %v", balancesBody.Balances)
	}

	var debtsBody struct {
		Transfers []transferResponse `json:"transfers"`
	}
	status = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/groups/%s/debts", group.ID), aliceToken, nil, &debtsBody)
	if status != http.StatusOK {
		t.Fatalf("debts status = %d, want 200", status)
	}
	if len(debtsBody.Transfers) != 1 {
		t.Fatalf("got %d transfers, want 1: %v", len(debtsBody.Transfers), debtsBody.Transfers)
	}
	transfer := debtsBody.Transfers[0]
	if transfer.From != bobID || transfer.To != aliceID || transfer.Amount != "45.00" {
		t.Errorf("transfer = %+v", transfer)
	}

	// Bob settles, then the group is even.
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/groups/%s/settlements", group.ID), bobToken, map[string]string{
		"from_user_id": bobID, "to_user_id": aliceID, "amount": "45.00",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("add settlement status = %d, want 201", status)
	}

	status = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/groups/%s/debts", group.ID), aliceToken, nil, &debtsBody)
	if status != http.StatusOK {
		t.Fatalf("debts status = %d, want 200", status)
	}
	if len(debtsBody.Transfers) != 0 {
		t.Errorf("settled group still owes: %v", debtsBody.Transfers)
	}

	// Deleting the expense puts bob in credit.
	status = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/groups/%s/expenses/%s", group.ID, exp.ID), aliceToken, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete expense status = %d, want 204", status)
	}
	status = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/groups/%s/balances", group.ID), aliceToken, nil, &balancesBody)
	if status != http.StatusOK {
		t.Fatalf("balances status = %d, want 200", status)
	}
	if balancesBody.Balances[bobID] != "45.00" || balancesBody.Balances[aliceID] != "-45.00" {
		t.Errorf("balances after delete = %v", balancesBody.Balances)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	aliceID, aliceToken := register(t, ts, "alice@example.com", "Alice")
	bobID, bobToken := register(t, ts, "bob@example.com", "Bob")
	_, malloryToken := register(t, ts, "mallory@example.com", "Mallory")

	var group groupResponse
	status := doJSON(t, ts, http.MethodPost, "/api/groups", aliceToken, map[string]any{
		"name": "Trip", "members": []string{aliceID, bobID},
	}, &group)
	if status != http.StatusCreated {
		t.Fatalf("create group status = %d, want 201", status)
	}

	// Non-member access is forbidden.
	status = doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/groups/%s/balances", group.ID), malloryToken, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("outsider balances status = %d, want 403", status)
	}

	// Unknown group is not found.
	status = doJSON(t, ts, http.MethodGet, "/api/groups/missing/balances", aliceToken, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown group status = %d, want 404", status)
	}

	// Sub-cent amounts are rejected at the boundary.
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), aliceToken, map[string]any{
		"payer_id": aliceID, "amount": "10.005",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("sub-cent amount status = %d, want 400", status)
	}

	// Shares that do not cover the amount are rejected.
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), aliceToken, map[string]any{
		"payer_id": aliceID,
		"amount":   "10.00",
		"shares":   map[string]string{bobID: "9.00"},
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("mismatched shares status = %d, want 400", status)
	}

	// An expense pinning bob in debt blocks his removal.
	var exp expenseResponse
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/groups/%s/expenses", group.ID), aliceToken, map[string]any{
		"payer_id": aliceID,
		"amount":   "10.00",
		"shares":   map[string]string{bobID: "10.00"},
	}, &exp)
	if status != http.StatusCreated {
		t.Fatalf("add expense status = %d, want 201", status)
	}
	status = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/groups/%s/members/%s", group.ID, bobID), bobToken, nil, nil)
	if status != http.StatusConflict {
		t.Errorf("remove indebted member status = %d, want 409", status)
	}

	// Bob cannot delete alice's expense.
	status = doJSON(t, ts, http.MethodDelete, fmt.Sprintf("/api/groups/%s/expenses/%s", group.ID, exp.ID), bobToken, nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("delete by non-payer status = %d, want 403", status)
	}
}
