package dashboard_test

import (
	"testing"

	"github.com/amirasaad/payconsole/pkg/domain/dashboard"
	"github.com/stretchr/testify/assert"
)

func TestGatewayPerformance_SuccessRate(t *testing.T) {
	assert.Zero(t, dashboard.GatewayPerformance{}.SuccessRate())
	assert.InDelta(t, 75.0, dashboard.GatewayPerformance{TransactionCount: 4, SuccessCount: 3}.SuccessRate(), 0.001)
}

func TestHealthMetrics_Healthy(t *testing.T) {
	h := dashboard.HealthMetrics{Services: []dashboard.ServiceHealth{{Name: "api", Status: "UP"}}}
	assert.True(t, h.Healthy())
	h.Services = append(h.Services, dashboard.ServiceHealth{Name: "mtn", Status: "DEGRADED"})
	assert.False(t, h.Healthy())
}
