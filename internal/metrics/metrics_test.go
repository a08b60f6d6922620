package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SetPresence(2, 3)
	m.EventPushed("newMessage", 3)
	m.EventPushed("newMessage", 0)
	m.Admission("expired")
	m.SlowConsumer()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.OnlineUsers))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.Connections))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.EventsPushed.WithLabelValues("newMessage")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Admissions.WithLabelValues("expired")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SlowConsumers))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.SetPresence(1, 1)
		m.EventPushed("typing", 1)
		m.Admission("accepted")
		m.SlowConsumer()
	})
}
