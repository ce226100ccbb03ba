package platform

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lakedesk/lakedesk/internal/config"
	"github.com/lakedesk/lakedesk/internal/entity"
	"github.com/lakedesk/lakedesk/internal/store"
	"github.com/lakedesk/lakedesk/internal/store/memory"
	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

// fakeBackend stands in for a live warehouse connection.
type fakeBackend struct {
	store.Store
	listFn   func(ctx context.Context, kind entity.Kind, f store.Filter) ([]entity.Record, error)
	createFn func(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error)
	ensureFn func(ctx context.Context) error
	calls    int
	closed   int
}

func (f *fakeBackend) List(ctx context.Context, kind entity.Kind, fl store.Filter) ([]entity.Record, error) {
	f.calls++
	if f.listFn != nil {
		return f.listFn(ctx, kind, fl)
	}
	return f.Store.List(ctx, kind, fl)
}

func (f *fakeBackend) Create(ctx context.Context, kind entity.Kind, rec entity.Record) (entity.Record, error) {
	f.calls++
	if f.createFn != nil {
		return f.createFn(ctx, kind, rec)
	}
	return f.Store.Create(ctx, kind, rec)
}

func (f *fakeBackend) EnsureSchema(ctx context.Context) error {
	f.calls++
	if f.ensureFn != nil {
		return f.ensureFn(ctx)
	}
	return f.Store.EnsureSchema(ctx)
}

func (f *fakeBackend) Close() error {
	f.closed++
	return nil
}

func newTestClient(cfg config.Config) (*Client, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return New(cfg, zap.New(core)), logs
}

func liveConfig() config.Config {
	return config.Config{
		Platform: config.Platform{
			WorkspaceHost:  "https://ws.example.com",
			AccessToken:    "dapi-token",
			ClusterID:      "wh-42",
			ConnectTimeout: time.Second,
		},
	}
}

func warnCount(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}

func TestModeStartsUnknown(t *testing.T) {
	c, _ := newTestClient(config.Config{})
	assert.Equal(t, ModeUnknown, c.Mode())
}

func TestNoCredentialsResolvesToMock(t *testing.T) {
	ctx := context.Background()
	c, logs := newTestClient(config.Config{})
	c.dial = func(context.Context) (liveBackend, error) {
		t.Fatal("dial must not be attempted without credentials")
		return nil, nil
	}

	recs, err := c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 3, "mock store is seeded on downgrade")
	assert.Equal(t, ModeMock, c.Mode())
	assert.Equal(t, 1, warnCount(logs))

	// Subsequent operations stay in mock without further notices.
	_, err = c.Get(ctx, entity.KindOrder, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, warnCount(logs))
}

func TestDialFailureResolvesToMock(t *testing.T) {
	ctx := context.Background()
	c, logs := newTestClient(liveConfig())

	dials := 0
	c.dial = func(context.Context) (liveBackend, error) {
		dials++
		return nil, errors.New("connect: connection refused")
	}

	recs, err := c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, ModeMock, c.Mode())
	assert.Equal(t, 1, warnCount(logs))

	// The session never re-attempts the connection.
	_, err = c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, warnCount(logs))
}

func TestLiveModePassesThrough(t *testing.T) {
	ctx := context.Background()
	c, logs := newTestClient(liveConfig())

	backend := &fakeBackend{Store: memory.New()}
	c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

	created, err := c.Create(ctx, entity.KindOrder, &entity.Order{
		CustomerID: "CUST-A",
		Items:      []entity.LineItem{{SKU: "x", Quantity: 2, UnitPrice: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.RecordID())
	assert.Equal(t, ModeLive, c.Mode())
	assert.Zero(t, warnCount(logs))

	recs, err := c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 1, "live data is not the sample set")
}

func TestLiveErrorsPassThroughUnchanged(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(liveConfig())

	backend := &fakeBackend{Store: memory.New()}
	c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

	_, err := c.Get(ctx, entity.KindOrder, 99)
	assert.True(t, errorbank.IsNotFound(err))
	assert.Equal(t, ModeLive, c.Mode(), "not-found must not degrade the session")

	_, err = c.Create(ctx, entity.KindOrder, &entity.Order{})
	assert.True(t, errorbank.IsValidation(err))
	assert.Equal(t, ModeLive, c.Mode(), "validation must not degrade the session")
}

func TestUnavailableDowngradesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	c, logs := newTestClient(liveConfig())

	backend := &fakeBackend{
		Store: memory.New(),
		listFn: func(context.Context, entity.Kind, store.Filter) ([]entity.Record, error) {
			return nil, errorbank.Unavailable("warehouse unavailable")
		},
	}
	c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

	// The failing live call is absorbed and retried against the mock.
	recs, err := c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
	assert.Equal(t, ModeMock, c.Mode())
	assert.Equal(t, 1, warnCount(logs))
	assert.Equal(t, 1, backend.closed)

	// From now on the backend is never touched again.
	callsAfterDowngrade := backend.calls
	_, err = c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, callsAfterDowngrade, backend.calls)
	assert.Equal(t, 1, warnCount(logs))
}

func TestDowngradedClientBehavesLikeMockStore(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(liveConfig())
	c.dial = func(context.Context) (liveBackend, error) { return nil, errors.New("unreachable") }

	plain := memory.New()
	require.NoError(t, plain.Seed(ctx))

	// Trigger the downgrade, then mirror every operation on a plain store.
	clientRecs, err := c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	plainRecs, err := plain.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, plainRecs, clientRecs)

	newOrder := func() *entity.Order {
		return &entity.Order{CustomerID: "CUST-X", Items: []entity.LineItem{{SKU: "y", Quantity: 1, UnitPrice: 3}}}
	}
	fromClient, err := c.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)
	fromPlain, err := plain.Create(ctx, entity.KindOrder, newOrder())
	require.NoError(t, err)
	assert.Equal(t, fromPlain.RecordID(), fromClient.RecordID())
}

func TestCreateRetriedAgainstMockOnDowngrade(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(liveConfig())

	backend := &fakeBackend{
		Store: memory.New(),
		createFn: func(context.Context, entity.Kind, entity.Record) (entity.Record, error) {
			return nil, errorbank.Unavailable("warehouse unavailable")
		},
	}
	c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

	created, err := c.Create(ctx, entity.KindOrder, &entity.Order{
		CustomerID: "CUST-A",
		Items:      []entity.LineItem{{SKU: "x", Quantity: 2, UnitPrice: 5}},
	})
	require.NoError(t, err, "the caller never observes the degradation")
	// The mock was seeded with three sample orders before the retry.
	assert.Equal(t, int64(4), created.RecordID())
	assert.Equal(t, ModeMock, c.Mode())
}

func TestEnsureSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("mock is a no-op", func(t *testing.T) {
		c, _ := newTestClient(config.Config{})
		require.NoError(t, c.EnsureSchema(ctx))
		require.NoError(t, c.EnsureSchema(ctx))
		assert.Equal(t, ModeMock, c.Mode())
	})

	t.Run("live calls the backend", func(t *testing.T) {
		c, _ := newTestClient(liveConfig())
		backend := &fakeBackend{Store: memory.New()}
		c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

		require.NoError(t, c.EnsureSchema(ctx))
		require.NoError(t, c.EnsureSchema(ctx))
		assert.Equal(t, 2, backend.calls)
		assert.Equal(t, ModeLive, c.Mode())
	})

	t.Run("unavailable downgrades without error", func(t *testing.T) {
		c, logs := newTestClient(liveConfig())
		backend := &fakeBackend{
			Store:    memory.New(),
			ensureFn: func(context.Context) error { return errorbank.Unavailable("down") },
		}
		c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

		require.NoError(t, c.EnsureSchema(ctx))
		assert.Equal(t, ModeMock, c.Mode())
		assert.Equal(t, 1, warnCount(logs))
	})
}

func TestSeedSamples(t *testing.T) {
	ctx := context.Background()

	t.Run("mock session seeds the mock store", func(t *testing.T) {
		c, _ := newTestClient(config.Config{})
		require.NoError(t, c.SeedSamples(ctx))
		recs, err := c.List(ctx, entity.KindOrder, store.Filter{})
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("live session leaves seeding to the operator path", func(t *testing.T) {
		c, _ := newTestClient(liveConfig())
		backend := &fakeBackend{Store: memory.New()}
		c.dial = func(context.Context) (liveBackend, error) { return backend, nil }

		require.NoError(t, c.SeedSamples(ctx))
		recs, err := c.List(ctx, entity.KindOrder, store.Filter{})
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

func TestResolveTokenPrecedence(t *testing.T) {
	ctx := context.Background()

	t.Run("oauth wins over token", func(t *testing.T) {
		cfg := liveConfig()
		cfg.Platform.ClientID = "svc-id"
		cfg.Platform.ClientSecret = "svc-secret"
		c, logs := newTestClient(cfg)

		exchanged := 0
		c.exchange = func(_ context.Context, host, id, secret string) (string, error) {
			exchanged++
			assert.Equal(t, "https://ws.example.com", host)
			assert.Equal(t, "svc-id", id)
			assert.Equal(t, "svc-secret", secret)
			return "oauth-token", nil
		}

		token, err := c.resolveToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "oauth-token", token)
		assert.Equal(t, 1, exchanged)
		assert.Equal(t, 1, logs.FilterMessage("both oauth and access token configured, using oauth").Len())
	})

	t.Run("token without oauth", func(t *testing.T) {
		c, _ := newTestClient(liveConfig())
		c.exchange = func(context.Context, string, string, string) (string, error) {
			t.Fatal("exchange must not run without a client id and secret")
			return "", nil
		}

		token, err := c.resolveToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, "dapi-token", token)
	})

	t.Run("no credentials", func(t *testing.T) {
		c, _ := newTestClient(config.Config{})
		_, err := c.resolveToken(ctx)
		assert.ErrorContains(t, err, "no platform credentials")
	})

	t.Run("exchange failure propagates", func(t *testing.T) {
		cfg := liveConfig()
		cfg.Platform.AccessToken = ""
		cfg.Platform.ClientID = "svc-id"
		cfg.Platform.ClientSecret = "svc-secret"
		c, _ := newTestClient(cfg)
		c.exchange = func(context.Context, string, string, string) (string, error) {
			return "", errors.New("invalid_client")
		}

		_, err := c.resolveToken(ctx)
		assert.ErrorContains(t, err, "invalid_client")
	})
}

func TestExplicitDSNSkipsCredentials(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Warehouse: config.Warehouse{Driver: "sqlite", DSN: "file::memory:"}}
	c, _ := newTestClient(cfg)

	dialed := 0
	c.dial = func(context.Context) (liveBackend, error) {
		dialed++
		return &fakeBackend{Store: memory.New()}, nil
	}

	_, err := c.List(ctx, entity.KindOrder, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, dialed, "an explicit DSN is enough to attempt live mode")
	assert.Equal(t, ModeLive, c.Mode())
}
