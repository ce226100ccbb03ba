// Package platform provides the adaptive record client. Each Client owns one
// session: on the first record operation it resolves the session to live mode
// against the warehouse or to mock mode against an in-memory store, and a
// live session that loses its warehouse downgrades to mock exactly once.
// Callers never see an unavailable error.
package platform

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/internal/store/memory"
	"github.com/lakedesk/lakedesk/internal/store/warehouse"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// Mode is the resolved connection state of a session.
type Mode string

const (
	ModeUnknown Mode = "unknown"
	ModeLive    Mode = "live"
	ModeMock    Mode = "mock"
)

// liveBackend is what a resolved live connection must provide.
type liveBackend interface {
	store.Store
	Close() error
}

// Client implements the record-access contract over whichever backend the
// session resolves to. Safe for concurrent use.
type Client struct {
	cfg    config.Config
	logger *zap.Logger
	mock   *memory.Store

	// dial and exchange are swappable for tests.
	dial     func(ctx context.Context) (liveBackend, error)
	exchange func(ctx context.Context, host, clientID, clientSecret string) (string, error)

	mu   sync.Mutex
	mode Mode
	live liveBackend
}

// New constructs a client for a fresh session in the unknown state.
func New(cfg config.Config, logger *zap.Logger) *Client {
	c := &Client{
		cfg:      cfg,
		logger:   logger,
		mock:     memory.New(),
		mode:     ModeUnknown,
		exchange: exchangeToken,
	}
	c.dial = c.dialWarehouse
	return c
}

// Mode reports the session's current connection state.
func (c *Client) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Close releases the live connection if one was established.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		return nil
	}
	err := c.live.Close()
	c.live = nil
	return err
}

// List returns records of the kind matching the filter.
func (c *Client) List(ctx context.Context, kind entity.Kind, f store.Filter) ([]entity.Record, error) {
	recs, err := c.resolve(ctx).List(ctx, kind, f)
	if c.absorb(ctx, err) {
		return c.mock.List(ctx, kind, f)
	}
	return recs, err
}

// Get returns the record or a not-found error.
func (c *Client) Get(ctx context.Context, kind entity.Kind, id int64) (entity.Record, error) {
	rec, err := c.resolve(ctx).Get(ctx, kind, id)
	if c.absorb(ctx, err) {
		return c.mock.Get(ctx, kind, id)
	}
	return rec, err
}

// Create stores a new record and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	created, err := c.resolve(ctx).Create(ctx, kind, rec)
	if c.absorb(ctx, err) {
		return c.mock.Create(ctx, kind, rec)
	}
	return created, err
}

// Update applies the patch and returns the stored record.
func (c *Client) Update(ctx context.Context, kind entity.Kind, id int64, p store.Patch) (entity.Record, error) {
	rec, err := c.resolve(ctx).Update(ctx, kind, id, p)
	if c.absorb(ctx, err) {
		return c.mock.Update(ctx, kind, id, p)
	}
	return rec, err
}

// EnsureSchema creates missing warehouse tables in live mode and is a no-op
// in mock mode. Idempotent in both.
func (c *Client) EnsureSchema(ctx context.Context) error {
	err := c.resolve(ctx).EnsureSchema(ctx)
	if c.absorb(ctx, err) {
		return nil
	}
	return err
}

// SeedSamples loads the deterministic sample dataset through the resolved
// backend.
func (c *Client) SeedSamples(ctx context.Context) error {
	backend := c.resolve(ctx)
	if backend == c.mock {
		return c.mock.Seed(ctx)
	}
	return nil
}

// resolve returns the backend for the session, deciding the mode on first
// use. It never fails: any obstacle on the way to live mode resolves the
// session to mock.
func (c *Client) resolve(ctx context.Context) store.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeLive:
		return c.live
	case ModeMock:
		return c.mock
	}

	if !c.cfg.Platform.Configured() && c.cfg.Warehouse.DSN == "" {
		c.downgradeLocked(ctx, "platform credentials not configured", nil)
		return c.mock
	}

	backend, err := c.dial(ctx)
	if err != nil {
		c.downgradeLocked(ctx, "warehouse connection failed", err)
		return c.mock
	}

	c.live = backend
	c.mode = ModeLive
	c.logger.Info("session resolved to live mode",
		zap.String("workspace", c.cfg.Platform.WorkspaceHost))
	return c.live
}

// absorb handles a backend error: unavailable errors downgrade the session
// (at most once) and are swallowed so the caller can retry against the mock.
// All other errors, including nil, pass through untouched.
func (c *Client) absorb(ctx context.Context, err error) bool {
	if !errorbank.IsUnavailable(err) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeMock {
		c.downgradeLocked(ctx, "warehouse became unavailable", err)
	}
	return true
}

// downgradeLocked moves the session to mock mode, seeds the mock store and
// emits the session's single degradation notice. Callers hold mu. The
// transition is one-way: nothing moves a session out of mock.
func (c *Client) downgradeLocked(ctx context.Context, reason string, err error) {
	c.mode = ModeMock
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	c.logger.Warn("falling back to in-memory records", fields...)

	_ = c.mock.Seed(ctx)
	if c.live != nil {
		_ = c.live.Close()
		c.live = nil
	}
}

// dialWarehouse is the default dialer: resolve credentials, derive or reuse
// the DSN, open the pool and verify liveness.
func (c *Client) dialWarehouse(ctx context.Context) (liveBackend, error) {
	whCfg := c.cfg.Warehouse
	if whCfg.DSN == "" {
		token, err := c.resolveToken(ctx)
		if err != nil {
			return nil, err
		}
		dsn, err := warehouse.DSNFromPlatform(c.cfg.Platform, token)
		if err != nil {
			return nil, err
		}
		whCfg.Driver = "postgres"
		whCfg.DSN = dsn
	}

	db, err := warehouse.Open(whCfg)
	if err != nil {
		return nil, err
	}
	if err := warehouse.Ping(ctx, db, c.cfg.Platform.ConnectTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return warehouse.New(db), nil
}

// resolveToken picks the credential for the session: a service principal
// wins over a personal access token when both are configured.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	p := c.cfg.Platform
	switch {
	case p.HasOAuth():
		if p.HasToken() {
			c.logger.Info("both oauth and access token configured, using oauth")
		}
		return c.exchange(ctx, p.WorkspaceHost, p.ClientID, p.ClientSecret)
	case p.HasToken():
		return p.AccessToken, nil
	default:
		return "", errors.New("no platform credentials configured")
	}
}
