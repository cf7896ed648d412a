package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contas/internal/auth"
	"contas/internal/middleware/ratelimit"
	"contas/internal/services"
	"contas/internal/storage/memory"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	store := memory.NewStore()
	generator := services.NewGenerator(store)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 10000, Burst: 100})
	t.Cleanup(limiter.Stop)

	srv := NewServer(Config{
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWT:           auth.NewJWTManager("test-secret-at-least-16ch", time.Hour),
		Cards:         services.NewCardService(store),
		Bills:         services.NewBillService(store, nil),
		Instances:     services.NewInstanceService(store, nil),
		Generator:     generator,
		Dashboard:     services.NewDashboardService(generator),
		Statements:    services.NewStatementService(store, generator, nil),
		Limiter:       limiter,
	})
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func registerUser(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email":       email,
		"displayName": "Test User",
		"password":    "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: got status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeInto[authResponse](t, rec).Token
}

func TestAuthFlow(t *testing.T) {
	h := newTestHandler(t)

	token := registerUser(t, h, "ana@example.com")
	if token == "" {
		t.Fatal("expected a token from register")
	}

	rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ana@example.com",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: got status %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/cards", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: got status %d, want 401", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/cards", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got status %d, want 401", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email":       "not-an-email",
		"displayName": "X",
		"password":    "hunter2hunter2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: got status %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email":       "bea@example.com",
		"displayName": "Bea",
		"password":    "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password: got status %d, want 400", rec.Code)
	}
}

func TestBillLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	token := registerUser(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", token, map[string]string{"name": "Nubank"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: got status %d, body %s", rec.Code, rec.Body.String())
	}
	card := decodeInto[cardView](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
		"description": "Internet",
		"category":    "casa",
		"amountCents": 9990,
		"type":        "recorrente",
		"startDate":   "2024-01-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill: got status %d, body %s", rec.Code, rec.Body.String())
	}
	bill := decodeInto[billView](t, rec)
	if bill.Version != 1 {
		t.Fatalf("new bill version = %d, want 1", bill.Version)
	}

	rec = doJSON(t, h, http.MethodGet, "/instances?year=2024&month=3", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list instances: got status %d, body %s", rec.Code, rec.Body.String())
	}
	instances := decodeInto[[]instanceView](t, rec)
	if len(instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(instances))
	}
	inst := instances[0]
	if inst.Period != "2024-03" || inst.AmountCents != 9990 || inst.Status != "pendente" {
		t.Fatalf("unexpected instance: %+v", inst)
	}

	rec = doJSON(t, h, http.MethodPost, "/instances/"+inst.ID+"/pay", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay: got status %d, body %s", rec.Code, rec.Body.String())
	}
	paid := decodeInto[instanceView](t, rec)
	if paid.Status != "pago" {
		t.Fatalf("status after pay = %s, want pago", paid.Status)
	}

	rec = doJSON(t, h, http.MethodGet, "/instances/"+inst.ID+"/payments", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list payments: got status %d", rec.Code)
	}
	payments := decodeInto[[]paymentView](t, rec)
	if len(payments) != 1 || payments[0].AmountCents != 9990 {
		t.Fatalf("unexpected payments: %+v", payments)
	}

	// Cancelling a paid-against instance is blocked by the payment guard.
	rec = doJSON(t, h, http.MethodPost, "/instances/"+inst.ID+"/cancel", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("cancel paid: got status %d, want 422", rec.Code)
	}
}

func TestUpdateBillVersionConflict(t *testing.T) {
	h := newTestHandler(t)
	token := registerUser(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", token, map[string]string{"name": "Nubank"})
	card := decodeInto[cardView](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
		"description": "Academia",
		"amountCents": 12000,
		"type":        "recorrente",
		"startDate":   "2024-01-05",
	})
	bill := decodeInto[billView](t, rec)

	rec = doJSON(t, h, http.MethodPatch, "/bills/"+bill.ID, token, map[string]any{
		"amountCents":     13000,
		"expectedVersion": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("first update: got status %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeInto[billView](t, rec)
	if updated.Version != 2 {
		t.Fatalf("version after update = %d, want 2", updated.Version)
	}

	rec = doJSON(t, h, http.MethodPatch, "/bills/"+bill.ID, token, map[string]any{
		"amountCents":     14000,
		"expectedVersion": 1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale update: got status %d, want 409", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPatch, "/bills/"+bill.ID, token, map[string]any{
		"amountCents": 14000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing expectedVersion: got status %d, want 400", rec.Code)
	}
}

func TestCreateBillValidationErrors(t *testing.T) {
	h := newTestHandler(t)
	token := registerUser(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", token, map[string]string{"name": "Nubank"})
	card := decodeInto[cardView](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
		"description": "",
		"amountCents": 0,
		"type":        "mensal",
		"startDate":   "2024-01-10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
	resp := decodeInto[errorResponse](t, rec)
	if len(resp.Issues) < 3 {
		t.Fatalf("got %d issues, want at least 3: %+v", len(resp.Issues), resp.Issues)
	}
}

func TestDecimalAmountsAccepted(t *testing.T) {
	h := newTestHandler(t)
	token := registerUser(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", token, map[string]string{"name": "Nubank"})
	card := decodeInto[cardView](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
		"description": "Internet",
		"amount":      "99,90",
		"type":        "recorrente",
		"startDate":   "2024-01-10",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create with decimal: got status %d, body %s", rec.Code, rec.Body.String())
	}
	bill := decodeInto[billView](t, rec)
	if bill.AmountCents != 9990 {
		t.Fatalf("amountCents = %d, want 9990", bill.AmountCents)
	}

	rec = doJSON(t, h, http.MethodPatch, "/bills/"+bill.ID, token, map[string]any{
		"amount":          "120.00",
		"expectedVersion": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch with decimal: got status %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeInto[billView](t, rec)
	if updated.AmountCents != 12000 {
		t.Fatalf("amountCents after patch = %d, want 12000", updated.AmountCents)
	}

	rec = doJSON(t, h, http.MethodGet, "/instances?year=2024&month=2", token, nil)
	instances := decodeInto[[]instanceView](t, rec)
	if len(instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(instances))
	}
	inst := instances[0]

	rec = doJSON(t, h, http.MethodPatch, "/instances/"+inst.ID+"/override", token, map[string]any{
		"amount": "50.00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("override with decimal: got status %d, body %s", rec.Code, rec.Body.String())
	}
	overridden := decodeInto[instanceView](t, rec)
	if overridden.EffectiveCents != 5000 {
		t.Fatalf("effective cents after override = %d, want 5000", overridden.EffectiveCents)
	}

	rec = doJSON(t, h, http.MethodPost, "/instances/"+inst.ID+"/payments", token, map[string]any{
		"amount": "20.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment with decimal: got status %d, body %s", rec.Code, rec.Body.String())
	}
	payment := decodeInto[paymentView](t, rec)
	if payment.AmountCents != 2000 {
		t.Fatalf("payment cents = %d, want 2000", payment.AmountCents)
	}
}

func TestDecimalAmountRejections(t *testing.T) {
	h := newTestHandler(t)
	token := registerUser(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", token, map[string]string{"name": "Nubank"})
	card := decodeInto[cardView](t, rec)

	// Cents and decimal at once.
	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
		"description": "Internet",
		"amountCents": 9990,
		"amount":      "99,90",
		"type":        "recorrente",
		"startDate":   "2024-01-10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("both amounts: got status %d, want 400", rec.Code)
	}

	// Garbage decimal.
	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
		"description": "Internet",
		"amount":      "abc",
		"type":        "recorrente",
		"startDate":   "2024-01-10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("garbage decimal: got status %d, want 400", rec.Code)
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	h := newTestHandler(t)
	owner := registerUser(t, h, "ana@example.com")
	stranger := registerUser(t, h, "bea@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", owner, map[string]string{"name": "Nubank"})
	card := decodeInto[cardView](t, rec)

	rec = doJSON(t, h, http.MethodGet, "/cards/"+card.ID, stranger, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("stranger get card: got status %d, want 404", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/shares", owner, map[string]string{
		"email": "bea@example.com",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("share: got status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/cards/"+card.ID, stranger, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("granted get card: got status %d, want 200", rec.Code)
	}
}

func TestDashboardSummary(t *testing.T) {
	h := newTestHandler(t)
	token := registerUser(t, h, "ana@example.com")

	rec := doJSON(t, h, http.MethodPost, "/cards", token, map[string]string{"name": "Nubank"})
	card := decodeInto[cardView](t, rec)

	for i, cents := range []int64{9990, 4500} {
		rec = doJSON(t, h, http.MethodPost, "/cards/"+card.ID+"/bills", token, map[string]any{
			"description": fmt.Sprintf("Conta %d", i),
			"amountCents": cents,
			"type":        "recorrente",
			"startDate":   "2024-01-01",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create bill %d: got status %d", i, rec.Code)
		}
	}

	rec = doJSON(t, h, http.MethodGet, "/dashboard?year=2024&month=2", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: got status %d, body %s", rec.Code, rec.Body.String())
	}
	summary := decodeInto[map[string]any](t, rec)
	if got := summary["open_cents"]; got != float64(14490) {
		t.Fatalf("open_cents = %v, want 14490", got)
	}
}

func TestRateLimit(t *testing.T) {
	store := memory.NewStore()
	generator := services.NewGenerator(store)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 2, Burst: 1})
	t.Cleanup(limiter.Stop)

	srv := NewServer(Config{
		Authenticator: auth.NewPasswordAuthenticator(store),
		JWT:           auth.NewJWTManager("test-secret-at-least-16ch", time.Hour),
		Cards:         services.NewCardService(store),
		Bills:         services.NewBillService(store, nil),
		Instances:     services.NewInstanceService(store, nil),
		Generator:     generator,
		Dashboard:     services.NewDashboardService(generator),
		Statements:    services.NewStatementService(store, generator, nil),
		Limiter:       limiter,
	})
	h := srv.Handler()

	var last int
	for i := 0; i < 4; i++ {
		rec := doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "x@example.com", "password": "whatever123",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("4th request: got status %d, want 429", last)
	}
}
