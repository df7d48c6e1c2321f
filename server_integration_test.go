package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// helper to perform requests with auth token
func performRequest(r http.Handler, method, path string, body io.Reader, token string, contentType string) *httptest.ResponseRecorder {
	// allow callers to pass nil for body safely
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func setupTestServer(t *testing.T) *gin.Engine {
	// integration tests are opt-in. Set DB_DSN_TEST=1 and DB_DSN to run them.
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	initDB()
	seedDB()
	r := gin.Default()
	setupRoutes(r)
	return r
}

func loginAs(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp := performRequest(r, http.MethodPost, "/register", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 && resp.Code != 409 {
		t.Fatalf("register failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodPost, "/login", bytes.NewBuffer(regBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}
	return token
}

func TestTagihanFullFlow(t *testing.T) {
	r := setupTestServer(t)
	token := loginAs(t, r, "tagihan_user1", "pass123")

	// 1. Create a recurring bill due this month
	due := time.Now().UTC().Format("2006-01-02")
	createBody, _ := json.Marshal(map[string]any{
		"title":                "Internet kantor",
		"amount":               "300",
		"due_date":             due,
		"is_recurring":         true,
		"recurrence_frequency": "monthly",
	})
	resp := performRequest(r, http.MethodPost, "/tagihan", bytes.NewBuffer(createBody), token, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create tagihan failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	id := fmt.Sprintf("%.0f", created["id"].(float64))
	if nd, _ := created["next_due_date"].(string); nd == "" {
		t.Fatalf("recurring bill missing next_due_date: %+v", created)
	}

	// 2. List for this month includes it
	resp = performRequest(r, http.MethodGet, "/tagihan?period=this-month", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list tagihan failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var list []map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &list)
	if len(list) == 0 {
		t.Fatalf("created bill not in this-month list")
	}

	// 3. Pay it: expect ledger link and a successor
	resp = performRequest(r, http.MethodPost, "/tagihan/"+id+"/pay", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("pay failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var payResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &payResp)
	if payResp["catatan_id"] == nil {
		t.Fatalf("pay response missing catatan_id: %+v", payResp)
	}
	if payResp["successor"] == nil {
		t.Fatalf("recurring pay spawned no successor: %+v", payResp)
	}

	// 4. Double pay is rejected
	resp = performRequest(r, http.MethodPost, "/tagihan/"+id+"/pay", nil, token, "")
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double pay, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 5. The payment shows up in the ledger
	resp = performRequest(r, http.MethodGet, "/catatan", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("list catatan failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("Internet kantor")) {
		t.Fatalf("ledger does not contain the paid bill: %s", resp.Body.String())
	}

	// 6. Rekap reflects one paid bill this month
	resp = performRequest(r, http.MethodGet, "/tagihan/rekap?period=this-month", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("rekap failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var metrics map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &metrics)
	if paid, _ := metrics["paid_count"].(float64); paid < 1 {
		t.Fatalf("rekap paid_count = %v, want >= 1", metrics["paid_count"])
	}

	// 7. Unpay removes the ledger row again
	resp = performRequest(r, http.MethodPost, "/tagihan/"+id+"/unpay", nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("unpay failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 8. Custom period needs a well-formed month
	resp = performRequest(r, http.MethodGet, "/tagihan?period=custom", nil, token, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for custom period without month, got %d body=%s", resp.Code, resp.Body.String())
	}
	resp = performRequest(r, http.MethodGet, "/tagihan/rekap?period=custom&month=March", nil, token, "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed month, got %d body=%s", resp.Code, resp.Body.String())
	}

	// 9. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/tagihan", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list tagihan got %d", unauth.Code)
	}
}

func TestTagihanOwnerIsolation(t *testing.T) {
	r := setupTestServer(t)
	tokenA := loginAs(t, r, "tagihan_owner_a", "pass123")
	tokenB := loginAs(t, r, "tagihan_owner_b", "pass123")

	createBody, _ := json.Marshal(map[string]any{
		"title":    "Sewa gudang",
		"amount":   "500",
		"due_date": time.Now().UTC().Format("2006-01-02"),
	})
	resp := performRequest(r, http.MethodPost, "/tagihan", bytes.NewBuffer(createBody), tokenA, "application/json")
	if resp.Code != 200 {
		t.Fatalf("create failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var created map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &created)
	id := fmt.Sprintf("%.0f", created["id"].(float64))

	// Another user cannot see, pay, or delete it.
	if resp := performRequest(r, http.MethodGet, "/tagihan/"+id, nil, tokenB, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign get, got %d", resp.Code)
	}
	if resp := performRequest(r, http.MethodPost, "/tagihan/"+id+"/pay", nil, tokenB, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign pay, got %d", resp.Code)
	}
	if resp := performRequest(r, http.MethodDelete, "/tagihan/"+id, nil, tokenB, ""); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign delete, got %d", resp.Code)
	}

	// Owner still can delete.
	if resp := performRequest(r, http.MethodDelete, "/tagihan/"+id, nil, tokenA, ""); resp.Code != 200 {
		t.Fatalf("owner delete failed status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	initDB()
}
