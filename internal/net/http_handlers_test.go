package net

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pixel-beach/server/internal/auth"
	"pixel-beach/server/internal/room"
)

func newTestHandler(t *testing.T, withAuth bool) (nethttp.Handler, *auth.SessionStore) {
	t.Helper()
	engine := room.NewEngine(room.Config{Seed: 42})

	cfg := HTTPHandlerConfig{}
	var sessions *auth.SessionStore
	if withAuth {
		accounts, err := auth.Open(filepath.Join(t.TempDir(), "accounts.db"))
		if err != nil {
			t.Fatalf("open accounts: %v", err)
		}
		t.Cleanup(func() { accounts.Close() })
		sessions = auth.NewSessionStore(time.Hour)
		cfg.Accounts = accounts
		cfg.Sessions = sessions
	}
	return NewHTTPHandler(engine, cfg), sessions
}

func postForm(t *testing.T, handler nethttp.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestDiagnosticsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/diagnostics", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("diagnostics status = %d", rec.Code)
	}

	var payload struct {
		Status     string     `json:"status"`
		ServerTime int64      `json:"serverTime"`
		Room       room.Stats `json:"room"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Status != "ok" || payload.ServerTime == 0 {
		t.Fatalf("payload = %+v", payload)
	}
	if payload.Room.Users != 0 || payload.Room.Connections != 0 {
		t.Fatalf("room stats = %+v", payload.Room)
	}
}

func TestAuthRoutesAbsentWhenDisabled(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	rec := postForm(t, handler, "/register", url.Values{"username": {"alice"}})
	if rec.Code != nethttp.StatusNotFound {
		t.Fatalf("register without auth = %d", rec.Code)
	}
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	handler, sessions := newTestHandler(t, true)

	rec := postForm(t, handler, "/register", url.Values{
		"username":   {"alice"},
		"password":   {"secret123"},
		"repassword": {"secret123"},
		"avatarId":   {"crab"},
	})
	if rec.Code != nethttp.StatusSeeOther {
		t.Fatalf("register = %d %q", rec.Code, rec.Body.String())
	}

	rec = postForm(t, handler, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret123"},
	})
	if rec.Code != nethttp.StatusSeeOther {
		t.Fatalf("login = %d %q", rec.Code, rec.Body.String())
	}

	var token string
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == auth.CookieName {
			token = cookie.Value
		}
	}
	if token == "" {
		t.Fatal("login did not set the session cookie")
	}
	session, ok := sessions.Resolve(token)
	if !ok || session.Username != "alice" || session.AvatarID != "crab" {
		t.Fatalf("session = %+v, %v", session, ok)
	}

	req := httptest.NewRequest(nethttp.MethodPost, "/logout", nil)
	req.AddCookie(&nethttp.Cookie{Name: auth.CookieName, Value: token})
	out := httptest.NewRecorder()
	handler.ServeHTTP(out, req)
	if out.Code != nethttp.StatusSeeOther {
		t.Fatalf("logout = %d", out.Code)
	}
	if _, ok := sessions.Resolve(token); ok {
		t.Fatal("session survived logout")
	}
}

func TestRegisterRejections(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	base := url.Values{
		"username":   {"alice"},
		"password":   {"secret123"},
		"repassword": {"secret123"},
		"avatarId":   {"crab"},
	}
	if rec := postForm(t, handler, "/register", base); rec.Code != nethttp.StatusSeeOther {
		t.Fatalf("first register = %d", rec.Code)
	}

	tests := []struct {
		name   string
		mutate func(url.Values)
		want   int
	}{
		{"duplicate username", func(url.Values) {}, nethttp.StatusConflict},
		{"password mismatch", func(f url.Values) {
			f.Set("username", "bob")
			f.Set("repassword", "different")
		}, nethttp.StatusBadRequest},
		{"bad password shape", func(f url.Values) {
			f.Set("username", "bob")
			f.Set("password", "has space")
			f.Set("repassword", "has space")
		}, nethttp.StatusBadRequest},
		{"empty username", func(f url.Values) {
			f.Set("username", "")
		}, nethttp.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			for k, v := range base {
				form[k] = append([]string(nil), v...)
			}
			tt.mutate(form)
			if rec := postForm(t, handler, "/register", form); rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	postForm(t, handler, "/register", url.Values{
		"username":   {"alice"},
		"password":   {"secret123"},
		"repassword": {"secret123"},
		"avatarId":   {"crab"},
	})

	rec := postForm(t, handler, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	})
	if rec.Code != nethttp.StatusUnauthorized {
		t.Fatalf("login = %d", rec.Code)
	}
}

func TestAuthRoutesRejectGet(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	for _, path := range []string{"/register", "/login"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, path, nil))
		if rec.Code != nethttp.StatusMethodNotAllowed {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
	}
}
