package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-client/internal/domain"
)

func testRouter(t *testing.T) (http.Handler, *Backend) {
	t.Helper()
	backend := NewBackend(domain.DefaultPricing)
	backend.SeedDemoCatalog()
	logger := log.New(io.Discard, "", 0)
	return buildRouter(logger, backend), backend
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, payload)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestCartRequiresAuth(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/api/cart", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/cart", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for bad token, got %d", rec.Code)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "dave", "email": "dave@example.com", "password": "pw",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "dave", "email": "dave@example.com", "password": "pw",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "dave", "password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/logout", loginResp.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/api/cart", loginResp.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected revoked token to be rejected, got %d", rec.Code)
	}
}

func TestMigrateMergesByProduct(t *testing.T) {
	router, backend := testRouter(t)
	_, token, err := backend.register("erin", "erin@example.com", "", "", "", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/cart/items", token, map[string]any{
		"productId": 1, "quantity": 1, "price": 150_000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add item status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/api/cart/migrate", token, map[string]any{
		"items": []map[string]any{
			{"id": 111, "productId": 1, "quantity": 2, "price": 150_000},
			{"id": 222, "productId": 3, "quantity": 1, "price": 750_000},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("migrate status = %d: %s", rec.Code, rec.Body.String())
	}
	var cart domain.Cart
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(cart.Items))
	}
	merged, ok := cart.ItemByProduct(1)
	if !ok || merged.Quantity != 3 {
		t.Fatalf("merged quantity = %d, want 3", merged.Quantity)
	}
	if cart.Subtotal != 3*150_000+750_000 {
		t.Fatalf("subtotal = %d", cart.Subtotal)
	}
}
