package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"budget/internal/auth"
	"budget/internal/cache"
	"budget/internal/log"
	"budget/internal/middleware/trace"
	"budget/internal/services"
	"budget/internal/storage"
)

type testApp struct {
	srv      *Server
	accounts *services.Accounts
}

func newTestApp(t *testing.T, loginLimit int) *testApp {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := storage.Open(context.Background(), storage.Options{
		Driver:     storage.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "budget.db"),
	}, discard)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	sessions, err := auth.NewSessionManager(auth.SessionConfig{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    time.Hour,
	}, auth.NewMemoryRevoker(cache.NewExpiringCache[struct{}]()))
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	accounts := services.NewAccounts(repo, discard)
	srv := NewServer(":0", Deps{
		Accounts:       accounts,
		Ledger:         services.NewLedger(repo, nil, discard),
		Savings:        services.NewSavings(repo),
		Reports:        services.NewReports(repo),
		Sessions:       sessions,
		Logger:         log.Discard(),
		Ready:          repo.Ping,
		LoginRateLimit: loginLimit,
	})
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testApp{srv: srv, accounts: accounts}
}

func (a *testApp) do(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" && !strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d): %s", rr.Code, rr.Body.String())
	return nil
}

func (a *testApp) register(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/register",
		"username="+username+"&password=s3cret-pass&confirm_password=s3cret-pass", nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, rr.Code, rr.Body.String())
	}
	return sessionCookie(t, rr)
}

func jsonBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return m
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}

func (a *testApp) categoryID(t *testing.T, cookie *http.Cookie, name string) int64 {
	t.Helper()
	rr := a.do(t, http.MethodGet, "/categories", "", cookie)
	expectStatus(t, rr, http.StatusOK)
	for _, c := range jsonBody(t, rr)["categories"].([]any) {
		m := c.(map[string]any)
		if m["name"] == name {
			return int64(m["id"].(float64))
		}
	}
	t.Fatalf("category %q not found", name)
	return 0
}

func TestHealthAndReadiness(t *testing.T) {
	app := newTestApp(t, 100)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := app.do(t, http.MethodGet, path, "", nil)
		expectStatus(t, rr, http.StatusOK)
		if rr.Header().Get(trace.HeaderRequestID) == "" {
			t.Errorf("%s: missing request id header", path)
		}
		if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s: missing security headers", path)
		}
	}

	app.srv.ready = func(context.Context) error { return errors.New("db down") }
	rr := app.do(t, http.MethodGet, "/readyz", "", nil)
	expectStatus(t, rr, http.StatusServiceUnavailable)
	if jsonBody(t, rr)["status"] != "not_ready" {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestAuthenticationFlow(t *testing.T) {
	app := newTestApp(t, 100)

	rr := app.do(t, http.MethodGet, "/", "", nil)
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = app.do(t, http.MethodGet, "/register", "", nil)
	expectStatus(t, rr, http.StatusOK)

	cookie := app.register(t, "alice")
	rr = app.do(t, http.MethodGet, "/", "", cookie)
	expectStatus(t, rr, http.StatusOK)
	body := jsonBody(t, rr)
	if body["currency"] != "Ft" {
		t.Errorf("default currency = %v", body["currency"])
	}

	// Duplicate username is a form error.
	rr = app.do(t, http.MethodPost, "/register",
		"username=alice&password=s3cret-pass&confirm_password=s3cret-pass", nil)
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = app.do(t, http.MethodPost, "/login", "username=alice&password=wrong-pass", nil)
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = app.do(t, http.MethodPost, "/login", `{"username": "alice", "password": "s3cret-pass"}`, nil)
	expectStatus(t, rr, http.StatusOK)
	fresh := sessionCookie(t, rr)

	rr = app.do(t, http.MethodPost, "/logout", "", fresh)
	expectStatus(t, rr, http.StatusOK)
	rr = app.do(t, http.MethodGet, "/", "", fresh)
	expectStatus(t, rr, http.StatusUnauthorized)

	// The other session is unaffected.
	rr = app.do(t, http.MethodGet, "/", "", cookie)
	expectStatus(t, rr, http.StatusOK)

	// Logging out without a session still succeeds.
	rr = app.do(t, http.MethodGet, "/logout", "", nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestLoginRateLimited(t *testing.T) {
	app := newTestApp(t, 2)

	for i := 0; i < 2; i++ {
		rr := app.do(t, http.MethodPost, "/login", "username=nobody&password=whatever1", nil)
		expectStatus(t, rr, http.StatusUnauthorized)
	}
	rr := app.do(t, http.MethodPost, "/login", "username=nobody&password=whatever1", nil)
	expectStatus(t, rr, http.StatusTooManyRequests)
	if rr.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rr.Header().Get("Retry-After"))
	}

	// Fetching the form is never throttled.
	rr = app.do(t, http.MethodGet, "/login", "", nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestTransactionsLifecycle(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")
	food := app.categoryID(t, alice, "Food")

	rr := app.do(t, http.MethodPost, "/add",
		fmt.Sprintf("title=Groceries&amount=42.50&transaction_type=EXPENSE&date=2024-05-02&category=%d", food), alice)
	expectStatus(t, rr, http.StatusCreated)
	id := int64(jsonBody(t, rr)["transaction"].(map[string]any)["id"].(float64))

	rr = app.do(t, http.MethodPost, "/add", "title=Salary&amount=1000&transaction_type=INCOME&date=2024-05-01", alice)
	expectStatus(t, rr, http.StatusCreated)

	rr = app.do(t, http.MethodPost, "/add", "title=Bad&amount=abc&transaction_type=EXPENSE&date=2024-05-01", alice)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if jsonBody(t, rr)["field"] != "amount" {
		t.Errorf("body = %s", rr.Body.String())
	}

	// Bob cannot use Alice's category.
	rr = app.do(t, http.MethodPost, "/add",
		fmt.Sprintf("title=X&amount=1&transaction_type=EXPENSE&date=2024-05-01&category=%d", food), bob)
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = app.do(t, http.MethodGet, "/expenses", "", alice)
	expectStatus(t, rr, http.StatusOK)
	if n := len(jsonBody(t, rr)["transactions"].([]any)); n != 1 {
		t.Errorf("expenses = %d, want 1", n)
	}

	rr = app.do(t, http.MethodGet, "/", "", alice)
	expectStatus(t, rr, http.StatusOK)
	summary := jsonBody(t, rr)["summary"].(map[string]any)
	if summary["balance"] != "957.50" {
		t.Errorf("balance = %v", summary["balance"])
	}

	path := fmt.Sprintf("/edit/%d", id)
	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, path},
		{http.MethodPost, path},
		{http.MethodPost, fmt.Sprintf("/delete/%d", id)},
	} {
		rr = app.do(t, tc.method, tc.path, "title=Stolen&amount=1&transaction_type=EXPENSE&date=2024-05-01", bob)
		expectStatus(t, rr, http.StatusNotFound)
	}

	rr = app.do(t, http.MethodPost, path, "title=Groceries&amount=40&transaction_type=EXPENSE&date=2024-05-02", alice)
	expectStatus(t, rr, http.StatusOK)
	if got := jsonBody(t, rr)["transaction"].(map[string]any)["amount"]; got != "40.00" {
		t.Errorf("updated amount = %v", got)
	}

	rr = app.do(t, http.MethodPost, fmt.Sprintf("/delete/%d", id), "", alice)
	expectStatus(t, rr, http.StatusOK)
	rr = app.do(t, http.MethodGet, path, "", alice)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")

	cases := map[string]string{
		"/":         "transactions",
		"/income":   "transactions",
		"/expenses": "transactions",
		"/savings":  "goals",
	}
	for path, key := range cases {
		rr := app.do(t, http.MethodGet, path, "", alice)
		expectStatus(t, rr, http.StatusOK)
		list, ok := jsonBody(t, rr)[key].([]any)
		if !ok || len(list) != 0 {
			t.Errorf("%s: %s = %#v, want []", path, key, jsonBody(t, rr)[key])
		}
	}
}

func TestDeleteCategoryKeepsTransactions(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")

	rr := app.do(t, http.MethodPost, "/categories", "name=Travel", alice)
	expectStatus(t, rr, http.StatusCreated)
	travel := app.categoryID(t, alice, "Travel")

	rr = app.do(t, http.MethodPost, "/categories", "name=Travel", alice)
	expectStatus(t, rr, http.StatusConflict)

	rr = app.do(t, http.MethodPost, "/add",
		fmt.Sprintf("title=Train&amount=30&transaction_type=EXPENSE&date=2024-05-02&category=%d", travel), alice)
	expectStatus(t, rr, http.StatusCreated)

	rr = app.do(t, http.MethodPost, fmt.Sprintf("/categories/delete/%d", travel), "", alice)
	expectStatus(t, rr, http.StatusOK)

	rr = app.do(t, http.MethodGet, "/expenses", "", alice)
	expectStatus(t, rr, http.StatusOK)
	txs := jsonBody(t, rr)["transactions"].([]any)
	if len(txs) != 1 || txs[0].(map[string]any)["category_id"] != nil {
		t.Fatalf("transactions after category delete = %v", txs)
	}

	rr = app.do(t, http.MethodGet, "/", "", alice)
	chart := jsonBody(t, rr)["chart"].(map[string]any)
	labels := chart["labels"].([]any)
	if len(labels) != 1 || labels[0] != "Uncategorized" {
		t.Errorf("chart labels = %v", labels)
	}
}

func TestExport(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")
	app.do(t, http.MethodPost, "/add", "title=Salary&amount=1000&transaction_type=INCOME&date=2024-05-01", alice)

	rr := app.do(t, http.MethodGet, "/export", "", alice)
	expectStatus(t, rr, http.StatusOK)
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="budget_export.csv"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 || records[1][1] != "Salary" || records[1][2] != "None" {
		t.Errorf("csv = %v", records)
	}

	rr = app.do(t, http.MethodGet, "/export?format=xlsx", "", alice)
	expectStatus(t, rr, http.StatusOK)
	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Ledger")
	if err != nil || len(rows) != 2 {
		t.Fatalf("xlsx rows = %v, %v", rows, err)
	}

	rr = app.do(t, http.MethodGet, "/export?format=pdf", "", alice)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestProfileCurrency(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")

	rr := app.do(t, http.MethodPost, "/profile", "currency=%E2%82%AC", alice)
	expectStatus(t, rr, http.StatusOK)

	rr = app.do(t, http.MethodPost, "/profile", "currency=GBP", alice)
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = app.do(t, http.MethodGet, "/profile", "", alice)
	expectStatus(t, rr, http.StatusOK)
	if got := jsonBody(t, rr)["profile"].(map[string]any)["currency"]; got != "€" {
		t.Errorf("currency = %v", got)
	}
}

func TestSavingsGoals(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")
	bob := app.register(t, "bob")

	rr := app.do(t, http.MethodPost, "/savings/add", "name=Bike&target_amount=200&current_amount=", alice)
	expectStatus(t, rr, http.StatusCreated)
	id := int64(jsonBody(t, rr)["goal"].(map[string]any)["id"].(float64))
	adjust := fmt.Sprintf("/savings/update/%d", id)

	rr = app.do(t, http.MethodPost, adjust, "amount=50&action=add", alice)
	expectStatus(t, rr, http.StatusOK)
	body := jsonBody(t, rr)
	if body["message"] != "Updated Bike." {
		t.Errorf("message = %v", body["message"])
	}
	goal := body["goal"].(map[string]any)
	if goal["current_amount"] != "50.00" || goal["progress_percentage"] != float64(25) {
		t.Errorf("goal = %v", goal)
	}

	rr = app.do(t, http.MethodPost, adjust, "amount=500&action=subtract", alice)
	expectStatus(t, rr, http.StatusOK)
	if got := jsonBody(t, rr)["goal"].(map[string]any)["current_amount"]; got != "0.00" {
		t.Errorf("current after over-subtract = %v", got)
	}

	for _, body := range []string{"amount=0&action=add", "amount=-5&action=add", "amount=5&action=double"} {
		rr = app.do(t, http.MethodPost, adjust, body, alice)
		expectStatus(t, rr, http.StatusUnprocessableEntity)
	}

	rr = app.do(t, http.MethodPost, adjust, "amount=5&action=add", bob)
	expectStatus(t, rr, http.StatusNotFound)

	rr = app.do(t, http.MethodPost, fmt.Sprintf("/savings/edit/%d", id), "name=Road+bike&target_amount=400&current_amount=500", alice)
	expectStatus(t, rr, http.StatusOK)
	if got := jsonBody(t, rr)["goal"].(map[string]any)["progress_percentage"]; got != float64(100) {
		t.Errorf("progress = %v, want capped at 100", got)
	}

	rr = app.do(t, http.MethodPost, fmt.Sprintf("/savings/delete/%d", id), "", alice)
	expectStatus(t, rr, http.StatusOK)
	rr = app.do(t, http.MethodGet, "/savings", "", alice)
	if n := len(jsonBody(t, rr)["goals"].([]any)); n != 0 {
		t.Errorf("goals after delete = %d", n)
	}
}

func TestStaffAdministration(t *testing.T) {
	app := newTestApp(t, 100)
	alice := app.register(t, "alice")

	rr := app.do(t, http.MethodGet, "/staff/users", "", alice)
	expectStatus(t, rr, http.StatusForbidden)

	admin, err := app.accounts.CreateSuperuser(context.Background(), "root", "root@example.com", "adm1n-pass")
	if err != nil {
		t.Fatalf("create superuser: %v", err)
	}
	rr = app.do(t, http.MethodPost, "/login", "username=root&password=adm1n-pass", nil)
	expectStatus(t, rr, http.StatusOK)
	root := sessionCookie(t, rr)

	rr = app.do(t, http.MethodGet, "/staff/users", "", root)
	expectStatus(t, rr, http.StatusOK)
	users := jsonBody(t, rr)["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("users = %v", users)
	}
	var aliceID int64
	for _, u := range users {
		m := u.(map[string]any)
		if m["username"] == "alice" {
			aliceID = int64(m["id"].(float64))
		}
	}

	rr = app.do(t, http.MethodPost, fmt.Sprintf("/staff/users/delete/%d", admin.ID), "", root)
	expectStatus(t, rr, http.StatusForbidden)

	// Deactivating alice ends her existing session.
	rr = app.do(t, http.MethodPost, fmt.Sprintf("/staff/users/edit/%d", aliceID), "username=alice&email=", root)
	expectStatus(t, rr, http.StatusOK)
	if jsonBody(t, rr)["message"] != "User alice updated." {
		t.Errorf("body = %s", rr.Body.String())
	}
	rr = app.do(t, http.MethodGet, "/", "", alice)
	expectStatus(t, rr, http.StatusUnauthorized)

	rr = app.do(t, http.MethodPost, fmt.Sprintf("/staff/users/delete/%d", aliceID), "", root)
	expectStatus(t, rr, http.StatusOK)
	rr = app.do(t, http.MethodGet, fmt.Sprintf("/staff/users/edit/%d", aliceID), "", root)
	expectStatus(t, rr, http.StatusNotFound)
}

func TestSuspiciousRequestRejected(t *testing.T) {
	app := newTestApp(t, 100)
	rr := app.do(t, http.MethodGet, "/../../etc/passwd", "", nil)
	expectStatus(t, rr, http.StatusBadRequest)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("User-Agent", "sqlmap/1.7")
	rec := httptest.NewRecorder()
	app.srv.Handler.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestRecovererReturns500(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	expectStatus(t, rr, http.StatusInternalServerError)
}
