package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/amirasaad/payconsole/infra/cache"
	infra_eventbus "github.com/amirasaad/payconsole/infra/eventbus"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEventBus_DefaultsToMemory(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: ""}}

	bus, err := initEventBus(cfg, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_RedisRequiresURL(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: ""},
		EventBus: &config.EventBus{Driver: "redis"},
	}

	_, err := initEventBus(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitEventBus_RedisUnreachableFallsBackToMemory(t *testing.T) {
	cfg := &config.App{
		Redis:    &config.Redis{URL: "redis://127.0.0.1:1/0"},
		EventBus: &config.EventBus{Driver: "redis", Stream: "s", Group: "g"},
	}

	bus, err := initEventBus(cfg, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_KafkaRequiresBrokers(t *testing.T) {
	cfg := &config.App{
		Kafka:    &config.Kafka{Brokers: " "},
		EventBus: &config.EventBus{Driver: "kafka"},
	}

	_, err := initEventBus(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitEventBus_KafkaUnreachableFallsBackToMemory(t *testing.T) {
	cfg := &config.App{
		Kafka:    &config.Kafka{Brokers: "127.0.0.1:1", GroupID: "console"},
		EventBus: &config.EventBus{Driver: "kafka"},
	}

	bus, err := initEventBus(cfg, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_UnsupportedDriver(t *testing.T) {
	cfg := &config.App{EventBus: &config.EventBus{Driver: "nope"}}

	_, err := initEventBus(cfg, discardLogger())
	require.Error(t, err)
}

func TestInitStore(t *testing.T) {
	store, err := initStore(&config.App{Query: &config.Query{Store: "memory"}}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, store)

	store, err = initStore(&config.App{
		Query: &config.Query{Store: "redis"},
		Redis: &config.Redis{URL: "redis://127.0.0.1:1/0"},
	}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, store)

	_, err = initStore(&config.App{Query: &config.Query{Store: "disk"}}, discardLogger())
	require.Error(t, err)
}

func TestInstanceGroup(t *testing.T) {
	g := instanceGroup("console")
	assert.True(t, strings.HasPrefix(g, "console"))
	assert.True(t, strings.HasPrefix(instanceGroup(""), "payconsole"))
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Level: -4})

	logger.Info("cache invalidated", "prefix", "fees")
	assert.Contains(t, buf.String(), `"prefix":"fees"`)
	assert.Contains(t, buf.String(), "cache invalidated")
}
