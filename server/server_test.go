package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	contractx "github.com/sornchai/shoptalk/agent/contract"
	orchestratorx "github.com/sornchai/shoptalk/agent/orchestrator"
	sessionx "github.com/sornchai/shoptalk/agent/session"
)

type fakeService struct {
	result contractx.TurnResult
	err    error
	gotReq orchestratorx.TurnRequest
}

func (f *fakeService) ProcessTurn(_ context.Context, req orchestratorx.TurnRequest) (contractx.TurnResult, error) {
	f.gotReq = req
	if f.err != nil {
		return contractx.TurnResult{}, f.err
	}
	return f.result, nil
}

func newTestServer(t *testing.T, svc ConversationService, debug bool) *echo.Echo {
	t.Helper()
	handler, err := NewHandler(svc, sessionx.NewStore(), debug)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	e := echo.New()
	handler.RegisterRoutes(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestChatSuccess(t *testing.T) {
	t.Parallel()

	svc := &fakeService{result: contractx.TurnResult{
		Reply:     "Found 2 pairs of jeans.",
		SessionID: "sess-1",
		UserType:  contractx.UserGuest,
		ToolsUsed: []string{"search_products"},
		Intent:    contractx.IntentProductSearch,
		CartID:    "cart-1",
	}}
	e := newTestServer(t, svc, false)

	rec := doJSON(e, http.MethodPost, "/api/chat",
		`{"message":"search jeans","sessionId":"sess-1","customerToken":"tok","cartId":"cart-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Success   bool     `json:"success"`
		Response  string   `json:"response"`
		SessionID string   `json:"sessionId"`
		UserType  string   `json:"userType"`
		ToolsUsed []string `json:"toolsUsed"`
		Intent    string   `json:"intent"`
		CartID    string   `json:"cartId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Fatal("success = false")
	}
	if resp.Response != "Found 2 pairs of jeans." || resp.SessionID != "sess-1" {
		t.Fatalf("response = %+v", resp)
	}
	if len(resp.ToolsUsed) != 1 || resp.ToolsUsed[0] != "search_products" {
		t.Fatalf("toolsUsed = %v", resp.ToolsUsed)
	}
	if resp.Intent != "product_search" || resp.CartID != "cart-1" {
		t.Fatalf("response = %+v", resp)
	}

	if svc.gotReq.CustomerToken != "tok" || svc.gotReq.CartID != "cart-1" {
		t.Fatalf("TurnRequest = %+v", svc.gotReq)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	t.Parallel()

	e := newTestServer(t, &fakeService{}, false)
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Success {
		t.Fatal("success = true for an invalid request")
	}
	if resp.Error != "message is required" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestChatMalformedBody(t *testing.T) {
	t.Parallel()

	e := newTestServer(t, &fakeService{}, false)
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatValidationErrorIsBadRequest(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: contractx.ErrValidation}
	e := newTestServer(t, svc, false)
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatInternalErrorHidesDetailByDefault(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: errors.New("pq: connection refused")}
	e := newTestServer(t, svc, false)
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("internal detail leaked: %s", rec.Body)
	}
}

func TestChatInternalErrorShowsDetailInDebug(t *testing.T) {
	t.Parallel()

	svc := &fakeService{err: errors.New("pq: connection refused")}
	e := newTestServer(t, svc, true)
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("debug detail missing: %s", rec.Body)
	}
}

func TestDeleteSession(t *testing.T) {
	t.Parallel()

	e := newTestServer(t, &fakeService{}, false)
	rec := doJSON(e, http.MethodDelete, "/api/sessions/sess-9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("body = %s", rec.Body)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e := newTestServer(t, &fakeService{}, false)
	rec := doJSON(e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
