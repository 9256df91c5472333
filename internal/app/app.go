package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"pixel-beach/server/internal/auth"
	"pixel-beach/server/internal/config"
	servernet "pixel-beach/server/internal/net"
	"pixel-beach/server/internal/room"
	"pixel-beach/server/internal/telemetry"
	"pixel-beach/server/logging"
	loggingSinks "pixel-beach/server/logging/sinks"
)

// Config carries the command-line surface into the application.
type Config struct {
	ConfigPath string
	ListenAddr string
	Logger     telemetry.Logger
}

// Run wires the configuration, logging router, account store, room engine,
// and HTTP server together, then serves until the context is canceled.
func Run(ctx context.Context, appCfg Config) error {
	logger := appCfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}

	cfg, err := config.Load(appCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if appCfg.ListenAddr != "" {
		cfg.ListenAddr = appCfg.ListenAddr
	}

	router, err := buildLoggingRouter(cfg.Logging)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	var (
		accounts *auth.Store
		sessions *auth.SessionStore
	)
	if cfg.Auth.Enabled {
		accounts, err = auth.Open(cfg.Auth.DBPath)
		if err != nil {
			return fmt.Errorf("open account store: %w", err)
		}
		defer accounts.Close()
		sessions = auth.NewSessionStore(time.Duration(cfg.Auth.SessionTTLMinutes) * time.Minute)
	}

	engine := room.NewEngine(room.Config{
		Bounds: room.Bounds{
			X: room.Range{Min: cfg.World.XMin, Max: cfg.World.XMax},
			Y: room.Range{Min: cfg.World.YMin, Max: cfg.World.YMax},
		},
		Step:             cfg.World.Step,
		MessageTTL:       time.Duration(cfg.World.MessageTTLMs) * time.Millisecond,
		MaxMessageLength: cfg.World.MaxMessageLength,
		Seed:             cfg.World.Seed,
		Logger:           logger,
		Publisher:        router,
	})

	handler := servernet.NewHTTPHandler(engine, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    logger,
		Accounts:  accounts,
		Sessions:  sessions,
		LogStats:  router.Stats,
	})

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func buildLoggingRouter(cfg config.LoggingConfig) (*logging.Router, error) {
	logCfg := logging.DefaultConfig()
	if len(cfg.Sinks) > 0 {
		logCfg.EnabledSinks = cfg.Sinks
	}
	logCfg.MinimumSeverity = parseSeverity(cfg.MinSeverity)
	logCfg.JSON.FilePath = cfg.JSONPath

	var named []logging.NamedSink
	if logCfg.HasSink("console") {
		named = append(named, logging.NamedSink{
			Name: "console",
			Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") && logCfg.JSON.FilePath != "" {
		f, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		named = append(named, logging.NamedSink{
			Name: "json",
			Sink: loggingSinks.NewJSON(f, logCfg.JSON.FlushInterval),
		})
	}

	return logging.NewRouter(nil, logCfg, named)
}

func parseSeverity(value string) logging.Severity {
	switch value {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}
