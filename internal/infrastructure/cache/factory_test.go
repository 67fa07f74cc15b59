package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mosesmbadi/easymed-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFactory_RedisDisabled(t *testing.T) {
	stores, err := NewFactory(config.RedisConfig{Enabled: false}).Create(context.Background())
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, BackendMemory, stores.Backend)
	assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	assert.IsType(t, &InMemoryCache{}, stores.Cache)
	assert.NoError(t, stores.Ping(context.Background()))
}

func TestFactory_FallbackWhenUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	stores, err := NewFactory(cfg,
		WithLogger(zaptest.NewLogger(t)),
		WithSweepInterval(time.Second),
	).Create(context.Background())
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, BackendMemory, stores.Backend)
}

func TestFactory_NoFallback(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	cfg := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	_, err := NewFactory(cfg, WithInMemoryFallback(false)).Create(context.Background())
	assert.Error(t, err)
}
