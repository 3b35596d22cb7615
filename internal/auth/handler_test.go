package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/medhub/gallery-backend/internal/config"
	"github.com/medhub/gallery-backend/internal/googledrive"
	"github.com/medhub/gallery-backend/internal/googledrive/drivetest"
	"github.com/medhub/gallery-backend/internal/session"
	"google.golang.org/api/option"
)

type callbackFixture struct {
	provider *fakeProvider
	drive    *drivetest.Server
	store    *session.Store
	registry *googledrive.Registry
	service  *Service
	echo     *echo.Echo
}

func newCallbackFixture(t *testing.T, env string) *callbackFixture {
	t.Helper()

	p := newFakeProvider(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600}`)
	t.Cleanup(p.srv.Close)
	srv := drivetest.New()
	t.Cleanup(srv.Close)

	store := session.NewStore()
	registry := googledrive.NewRegistry()
	cfg := config.Config{
		Env:              env,
		FrontendRedirect: "http://localhost:3000",
	}
	factory := googledrive.NewFactory(option.WithEndpoint(srv.URL()))

	service := NewService(p.config(), store)
	h := NewHandler(service, registry, factory, cfg)
	e := echo.New()
	h.RegisterRoutes(e)

	return &callbackFixture{provider: p, drive: srv, store: store, registry: registry, service: service, echo: e}
}

// mintState starts a consent flow and returns the state the callback must
// echo back.
func (f *callbackFixture) mintState(t *testing.T) string {
	t.Helper()
	raw, err := f.service.AuthURL()
	if err != nil {
		t.Fatalf("AuthURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("auth URL does not parse: %v", err)
	}
	return u.Query().Get("state")
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == CookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestHandleAuthURL(t *testing.T) {
	f := newCallbackFixture(t, "development")

	req := httptest.NewRequest(http.MethodGet, "/api/auth-url", nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if !strings.Contains(body["authUrl"], "prompt=consent") {
		t.Errorf("expected forced consent in auth URL, got %q", body["authUrl"])
	}
	if !strings.Contains(body["authUrl"], "access_type=offline") {
		t.Errorf("expected offline access in auth URL, got %q", body["authUrl"])
	}
	if !strings.Contains(body["authUrl"], "state=") {
		t.Errorf("expected a state in the auth URL, got %q", body["authUrl"])
	}
}

func TestHandleCallback_EstablishesSession(t *testing.T) {
	f := newCallbackFixture(t, "development")

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=auth-code&state="+f.mintState(t), nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "http://localhost:3000" {
		t.Errorf("expected redirect to dashboard, got %q", loc)
	}

	cookie := sessionCookieFrom(t, rec)
	if len(cookie.Value) != 64 {
		t.Errorf("expected 64-char session id, got %d chars", len(cookie.Value))
	}
	if !cookie.HttpOnly {
		t.Error("expected HttpOnly cookie")
	}
	if cookie.Secure {
		t.Error("expected non-Secure cookie outside production")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite=Lax outside production, got %v", cookie.SameSite)
	}
	if cookie.MaxAge != sessionMaxAge {
		t.Errorf("expected MaxAge %d, got %d", sessionMaxAge, cookie.MaxAge)
	}

	tok, err := f.store.Get(cookie.Value)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if tok.AccessToken != "at-1" || tok.RefreshToken != "rt-1" {
		t.Errorf("unexpected stored token: %+v", tok)
	}

	// Callback also bootstraps the category folders.
	if len(f.drive.CreatedFolders) != 3 {
		t.Errorf("expected 3 folders bootstrapped, got %v", f.drive.CreatedFolders)
	}
	for _, name := range googledrive.Categories {
		if _, ok := f.registry.FolderID(name); !ok {
			t.Errorf("expected %q registered after callback", name)
		}
	}
}

func TestHandleCallback_ProductionCookie(t *testing.T) {
	f := newCallbackFixture(t, "production")

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=auth-code&state="+f.mintState(t), nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookieFrom(t, rec)
	if !cookie.Secure {
		t.Error("expected Secure cookie in production")
	}
	if cookie.SameSite != http.SameSiteNoneMode {
		t.Errorf("expected SameSite=None in production, got %v", cookie.SameSite)
	}
}

func TestHandleCallback_ReusesExistingSession(t *testing.T) {
	f := newCallbackFixture(t, "development")

	first := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=code-1&state="+f.mintState(t), nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, first)
	cookie := sessionCookieFrom(t, rec)

	second := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=code-2&state="+f.mintState(t), nil)
	second.AddCookie(&http.Cookie{Name: CookieName, Value: cookie.Value})
	rec2 := httptest.NewRecorder()
	f.echo.ServeHTTP(rec2, second)

	if rec2.Code != http.StatusFound {
		t.Fatalf("expected 302 on re-auth, got %d", rec2.Code)
	}
	if got := sessionCookieFrom(t, rec2).Value; got != cookie.Value {
		t.Errorf("expected session id %q reused, got %q", cookie.Value, got)
	}
	if f.store.Len() != 1 {
		t.Errorf("expected a single credential entry after re-auth, got %d", f.store.Len())
	}
}

func TestHandleCallback_MissingCode(t *testing.T) {
	f := newCallbackFixture(t, "development")

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback", nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != "Missing code" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if f.store.Len() != 0 {
		t.Error("no session should be created without a code")
	}
}

func TestHandleCallback_InvalidState(t *testing.T) {
	f := newCallbackFixture(t, "development")

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=auth-code&state=forged", nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != "Invalid state" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if f.store.Len() != 0 {
		t.Error("no session should be created with a forged state")
	}
}

func TestHandleCallback_StateNotReplayable(t *testing.T) {
	f := newCallbackFixture(t, "development")
	state := f.mintState(t)

	first := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=code-1&state="+state, nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, first)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
	}

	replay := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=code-2&state="+state, nil)
	rec2 := httptest.NewRecorder()
	f.echo.ServeHTTP(rec2, replay)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replayed state, got %d", rec2.Code)
	}
}

func TestHandleCallback_ExchangeFailure(t *testing.T) {
	f := newCallbackFixture(t, "development")
	f.provider.status = http.StatusBadRequest
	f.provider.respBody = `{"error":"invalid_grant"}`

	req := httptest.NewRequest(http.MethodGet, "/oauth2callback?code=bad-code&state="+f.mintState(t), nil)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Authentication failed") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if f.store.Len() != 0 {
		t.Error("no session should be created when the exchange fails")
	}
}
