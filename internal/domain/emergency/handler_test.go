package emergency

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newHandlerEnv(t *testing.T) (*echo.Echo, *grantEnv) {
	t.Helper()
	env := newGrantEnv(t)
	e := echo.New()
	NewHandler(env.svc).RegisterRoutes(e.Group("/api/v1"))
	return e, env
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestEmergencyAccessEndpoint(t *testing.T) {
	e, _ := newHandlerEnv(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/emergency/access", `{
		"card_id": "NFC-001",
		"accessor_name": "Paramedic Unit 7",
		"accessor_id": "EMS-7",
		"reason": "roadside collapse"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var result GrantResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Critical == nil || result.Critical.BloodGroup != "O-" {
		t.Fatalf("critical = %+v", result.Critical)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/v1/emergency/access", `{
		"card_id": "NFC-XXX",
		"accessor_name": "Paramedic Unit 7",
		"accessor_id": "EMS-7",
		"reason": "roadside collapse"
	}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown card = %d, want 404", rec.Code)
	}

	// A lost card exists but no longer grants access.
	rec = doJSON(t, e, http.MethodPost, "/api/v1/emergency/access", `{
		"card_id": "NFC-LOST",
		"accessor_name": "Paramedic Unit 7",
		"accessor_id": "EMS-7",
		"reason": "roadside collapse"
	}`)
	if rec.Code != http.StatusGone {
		t.Fatalf("lost card = %d, want 410", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/v1/emergency/access", `{"card_id": "NFC-001"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing accessor = %d, want 400", rec.Code)
	}
}

func TestEmergencyValidityEndpoint(t *testing.T) {
	e, env := newHandlerEnv(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/emergency/access", `{
		"card_id": "NFC-001",
		"accessor_name": "Paramedic Unit 7",
		"accessor_id": "EMS-7",
		"reason": "roadside collapse"
	}`)
	var result GrantResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := fmt.Sprintf("/api/v1/emergency/access/%s/valid", result.Grant.ID)

	rec = doJSON(t, e, http.MethodGet, path, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("fresh grant = %d, want 200", rec.Code)
	}

	env.now = env.now.Add(3 * time.Hour)
	rec = doJSON(t, e, http.MethodGet, path, "")
	if rec.Code != http.StatusGone {
		t.Fatalf("expired grant = %d, want 410", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/v1/emergency/access/not-a-uuid/valid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id = %d, want 400", rec.Code)
	}
}

func TestEmergencyRevokeEndpoint(t *testing.T) {
	e, _ := newHandlerEnv(t)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/emergency/access", `{
		"card_id": "NFC-001",
		"accessor_name": "Paramedic Unit 7",
		"accessor_id": "EMS-7",
		"reason": "roadside collapse"
	}`)
	var result GrantResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}

	path := fmt.Sprintf("/api/v1/emergency/access/%s/revoke", result.Grant.ID)
	rec = doJSON(t, e, http.MethodPost, path, `{"accessor_id": "EMS-7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("revoke = %d, body = %s", rec.Code, rec.Body)
	}

	var g Grant
	if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
		t.Fatalf("decode grant: %v", err)
	}
	if g.Status != GrantExpired {
		t.Fatalf("status = %s, want %s", g.Status, GrantExpired)
	}
}
