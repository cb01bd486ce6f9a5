package initializer

import (
	"testing"

	"github.com/amirasaad/payconsole/infra/repository/audit"
	"github.com/amirasaad/payconsole/infra/repository/schedule"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDependencies_WithoutDatabase(t *testing.T) {
	cfg := &config.App{
		Env:      "test",
		Log:      &config.Log{Format: "text"},
		DB:       &config.DB{},
		Backend:  &config.Backend{BaseURL: "http://backend.local", Token: "svc"},
		Query:    &config.Query{Store: "memory"},
		EventBus: &config.EventBus{Driver: "memory"},
	}

	deps, err := InitializeDependencies(cfg)
	require.NoError(t, err)
	assert.NotNil(t, deps.Client)
	assert.NotNil(t, deps.Cache)
	assert.NotNil(t, deps.Metrics)
	assert.IsType(t, &schedule.MemoryRepository{}, deps.Schedules)
	assert.IsType(t, &audit.MemoryRepository{}, deps.AuditLog)
}

func TestInitializeDependencies_InvalidBackendURL(t *testing.T) {
	cfg := &config.App{
		Log:     &config.Log{},
		Backend: &config.Backend{BaseURL: "not a url"},
	}

	_, err := InitializeDependencies(cfg)
	require.Error(t, err)
}
