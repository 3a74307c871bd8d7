package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordOnOwnRegistry(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordRequest("/v1/incidents", "POST", 201, 15*time.Millisecond)
	a.RecordIncidentCreated("WEB")
	a.RecordAutomationCall(false)
	a.RecordQuarantine(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.RequestCounter.WithLabelValues("POST", "/v1/incidents", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.IncidentsCreated.WithLabelValues("WEB")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.AutomationCalls.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.SessionsRevoked))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Quarantines))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, time.Millisecond)
		m.RecordError("/", "GET", "NOT_FOUND")
		m.RecordQuarantine(1)
	})
	assert.Nil(t, m.Registry())
}
