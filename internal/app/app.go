// Package app assembles the prepforge client from its parts: config in,
// wired components out. Commands construct one App, use the services it
// exposes, and Close it on the way out.
package app

import (
	"context"

	"github.com/prepforge/prepforge/internal/api"
	"github.com/prepforge/prepforge/internal/auth"
	"github.com/prepforge/prepforge/internal/config"
	"github.com/prepforge/prepforge/internal/errors"
	"github.com/prepforge/prepforge/internal/event"
	"github.com/prepforge/prepforge/internal/generate"
	"github.com/prepforge/prepforge/internal/logging"
	"github.com/prepforge/prepforge/internal/progress"
	"github.com/prepforge/prepforge/internal/quota"
	"github.com/prepforge/prepforge/internal/realtime"
	"github.com/prepforge/prepforge/internal/session"
)

// App owns every long-lived component of the client.
type App struct {
	Config   *config.Config
	Log      *logging.Logger
	Bus      *event.Bus
	API      *api.Client
	Tokens   *auth.Store
	Prober   *realtime.Prober
	Conn     *realtime.Conn
	Tracker  *progress.Tracker
	Gate     *quota.Gate
	Sessions *session.Store
	Generate *generate.Client
}

// New wires an App from the given configuration.
func New(cfg *config.Config) (*App, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, config.ValidationErrors(errs)
	}
	dataDir := cfg.Paths.ResolveDataDir()

	log := logging.NopLogger()
	if cfg.Logging.Enabled {
		var err error
		log, err = logging.NewLogger(dataDir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		if err != nil {
			return nil, err
		}
	}

	bus := event.NewBus(log)
	tokens := auth.NewStore(dataDir, cfg.Auth.Remember)
	client := api.NewClient(cfg.Backend.BaseURL, tokens.Token, log)

	prober := realtime.NewProber(client, cfg.Backend.ProbeTimeout(), log)
	var conn *realtime.Conn
	if cfg.Realtime.Enabled {
		conn = realtime.NewConn(cfg.Backend.WebSocketURL(), prober, realtime.Options{
			HandshakeTimeout: cfg.Realtime.HandshakeTimeout(),
			Reconnect:        cfg.Realtime.Reconnect,
		}, bus, log)
	}

	tracker := progress.NewTracker(bus, log)
	ledger := quota.OpenLedger(dataDir)
	gate := quota.NewGate(ledger, client, tokens, quota.Limits{
		MaxQuestions: cfg.Quota.MaxQuestions,
		MaxAnswers:   cfg.Quota.MaxAnswers,
	}, bus, log)

	sessions := session.NewStore(client, cfg.Session.AutosaveDebounce(), bus, log)

	var transport generate.Transport
	if conn != nil {
		transport = conn
	}
	gen := generate.NewClient(transport, client, gate, sessions, tracker, bus, log)

	return &App{
		Config:   cfg,
		Log:      log,
		Bus:      bus,
		API:      client,
		Tokens:   tokens,
		Prober:   prober,
		Conn:     conn,
		Tracker:  tracker,
		Gate:     gate,
		Sessions: sessions,
		Generate: gen,
	}, nil
}

// Connect brings up the realtime channel for the session if the channel is
// enabled and the backend probes as reachable. Failure is not fatal; the
// caller simply works over the fallback.
func (a *App) Connect(ctx context.Context, sessionID string) bool {
	if a.Conn == nil {
		return false
	}
	if err := a.Conn.Connect(ctx, sessionID); err != nil {
		if !errors.IsTransportUnavailable(err) {
			a.Log.Warn("realtime connect failed", "session_id", sessionID, "error", err)
		}
		return false
	}
	return true
}

// Close flushes pending session saves, closes the channel, and releases the
// log file.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Sessions.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.Conn != nil {
		if err := a.Conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.Bus.Clear()
	if err := a.Log.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
