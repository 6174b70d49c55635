package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestMetrics_Observe checks counters move and the handler exposes them.
func TestMetrics_Observe(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveDelivery("telegram", true, 10*time.Millisecond)
	m.ObserveDelivery("telegram", false, time.Millisecond)
	m.ObserveDelivery("telegram", true, time.Millisecond)
	m.ObserveReport("telegram", "ok")
	m.ObserveSubscription("subscribed")
	m.ObserveVisitor()
	m.SetOnlineUsers(3)

	require.InDelta(t, 2, testutil.ToFloat64(m.deliveries.WithLabelValues("telegram", "ok")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(m.deliveries.WithLabelValues("telegram", "error")), 0)
	require.InDelta(t, 3, testutil.ToFloat64(m.onlineUsers), 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `lost_alarm_reports_total{channel="telegram",result="ok"} 1`)
	require.Contains(t, string(body), "lost_alarm_visitors_logged_total 1")
}

// TestMetrics_Nil ensures a nil collector set is a no-op.
func TestMetrics_Nil(t *testing.T) {
	t.Parallel()

	var m *Metrics

	require.NotPanics(t, func() {
		m.ObserveDelivery("whatsapp", true, time.Second)
		m.ObserveReport("whatsapp", "ok")
		m.ObserveSubscription("failed")
		m.ObserveVisitor()
		m.SetOnlineUsers(1)
	})
	require.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
