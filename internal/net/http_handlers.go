package net

import (
	"encoding/json"
	"errors"
	nethttp "net/http"
	"time"

	"pixel-beach/server/internal/auth"
	"pixel-beach/server/internal/net/ws"
	"pixel-beach/server/internal/room"
	"pixel-beach/server/internal/telemetry"
	"pixel-beach/server/logging"
)

// HTTPHandlerConfig wires the account store and session provider into the
// outer HTTP surface. Accounts and Sessions may be nil when auth is disabled;
// the auth routes then answer 404.
type HTTPHandlerConfig struct {
	ClientDir string
	Logger    telemetry.Logger
	Accounts  *auth.Store
	Sessions  *auth.SessionStore
	LogStats  func() logging.RouterStats
}

func NewHTTPHandler(engine *room.Engine, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string              `json:"status"`
			ServerTime int64               `json:"serverTime"`
			Room       room.Stats          `json:"room"`
			Logging    logging.RouterStats `json:"logging"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Room:       engine.DiagnosticsSnapshot(),
		}
		if cfg.LogStats != nil {
			payload.Logging = cfg.LogStats()
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	if cfg.Accounts != nil && cfg.Sessions != nil {
		mux.HandleFunc("/register", registerHandler(cfg.Accounts, logger))
		mux.HandleFunc("/login", loginHandler(cfg.Accounts, cfg.Sessions, logger))
		mux.HandleFunc("/logout", logoutHandler(cfg.Sessions))
	}

	wsHandler := ws.NewHandler(engine, ws.HandlerConfig{
		Sessions: cfg.Sessions,
		Logger:   logger,
	})
	mux.HandleFunc("/ws", wsHandler.Handle)

	if cfg.ClientDir != "" {
		mux.Handle("/", nethttp.FileServer(nethttp.Dir(cfg.ClientDir)))
	}

	return mux
}

// registerHandler creates an account from the signup form: username,
// password, repassword, and the chosen avatar id.
func registerHandler(accounts *auth.Store, logger telemetry.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		repassword := r.PostFormValue("repassword")
		avatarID := r.PostFormValue("avatarId")

		if password != repassword {
			httpError(w, "passwords do not match", nethttp.StatusBadRequest)
			return
		}

		err := accounts.Register(r.Context(), username, password, avatarID)
		switch {
		case errors.Is(err, auth.ErrInvalidUsername):
			httpError(w, "username must be 1 to 20 characters", nethttp.StatusBadRequest)
		case errors.Is(err, auth.ErrInvalidPassword):
			httpError(w, "password must be alphanumeric", nethttp.StatusBadRequest)
		case errors.Is(err, auth.ErrUsernameTaken):
			httpError(w, "username already exists", nethttp.StatusConflict)
		case err != nil:
			logger.Printf("register failed for %q: %v", username, err)
			httpError(w, "registration failed", nethttp.StatusInternalServerError)
		default:
			nethttp.Redirect(w, r, "/", nethttp.StatusSeeOther)
		}
	}
}

func loginHandler(accounts *auth.Store, sessions *auth.SessionStore, logger telemetry.Logger) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")

		account, err := accounts.Authenticate(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				logger.Printf("login failed for %q: %v", username, err)
			}
			httpError(w, "wrong username or password", nethttp.StatusUnauthorized)
			return
		}

		session := sessions.Create(account.Username, account.AvatarID)
		nethttp.SetCookie(w, &nethttp.Cookie{
			Name:     auth.CookieName,
			Value:    session.Token,
			Path:     "/",
			Expires:  session.ExpiresAt,
			HttpOnly: true,
			SameSite: nethttp.SameSiteLaxMode,
		})
		nethttp.Redirect(w, r, "/", nethttp.StatusSeeOther)
	}
}

func logoutHandler(sessions *auth.SessionStore) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if cookie, err := r.Cookie(auth.CookieName); err == nil {
			sessions.Revoke(cookie.Value)
		}
		nethttp.SetCookie(w, &nethttp.Cookie{
			Name:    auth.CookieName,
			Value:   "",
			Path:    "/",
			Expires: time.Unix(0, 0),
			MaxAge:  -1,
		})
		nethttp.Redirect(w, r, "/", nethttp.StatusSeeOther)
	}
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
