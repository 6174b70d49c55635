package presence

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-alarm/internal/metrics"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	require.Equal(t, UpdateType, u.Type)

	return u
}

// TestHub_CountsConnections checks the count is pushed on join and leave.
func TestHub_CountsConnections(t *testing.T) {
	t.Parallel()

	hub := NewHub(metrics.New())
	srv := httptest.NewServer(hub)

	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})

	first := dial(t, srv)
	defer first.Close()

	require.Equal(t, 1, readUpdate(t, first).Count)

	second := dial(t, srv)
	require.Equal(t, 2, readUpdate(t, first).Count)
	require.Equal(t, 2, readUpdate(t, second).Count)
	require.Equal(t, 2, hub.Count())

	require.NoError(t, second.Close())
	require.Equal(t, 1, readUpdate(t, first).Count)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
}

// TestHub_RejectsPlainHTTP leaves the count untouched for non-websocket requests.
func TestHub_RejectsPlainHTTP(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	rec := httptest.NewRecorder()

	hub.ServeHTTP(rec, httptest.NewRequest("GET", "/socket", nil))
	require.Equal(t, 400, rec.Code)
	require.Zero(t, hub.Count())
}
