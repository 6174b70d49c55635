package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// TestNew_RequiresToken verifies a missing token is a backend init error.
func TestNew_RequiresToken(t *testing.T) {
	t.Parallel()

	_, err := New(config.Telegram{}, nil)
	require.ErrorIs(t, err, alert.ErrBackendInit)
}

// TestNew_RejectedToken verifies a failing getMe is a backend init error.
func TestNew_RejectedToken(t *testing.T) {
	t.Parallel()

	_, err := New(config.Telegram{
		Token:       "123:abc",
		APIEndpoint: "http://127.0.0.1:1/bot%s/%s",
		Timeout:     time.Second,
	}, nil)
	require.ErrorIs(t, err, alert.ErrBackendInit)
}

// TestBot_Send checks HTML parse mode and error propagation.
func TestBot_Send(t *testing.T) {
	t.Parallel()

	fake := &fakeAPI{failChat: "13"}
	bot := newTestBot(t, fake)
	ctx := context.Background()

	require.Equal(t, channel.Telegram, bot.Name())
	require.Equal(t, "bautismos_bot", bot.Username())

	require.NoError(t, bot.Send(ctx, "42", "<b>hi</b>"))
	require.Error(t, bot.Send(ctx, "13", "hi"))
	require.Error(t, bot.Send(ctx, "not-a-chat", "hi"))

	sent := fake.sentMessages()
	require.Len(t, sent, 2)
	require.Equal(t, "42", sent[0].Get("chat_id"))
	require.Equal(t, "HTML", sent[0].Get("parse_mode"))
	require.Equal(t, "<b>hi</b>", sent[0].Get("text"))
}

// TestBot_SendCanceled verifies a canceled context skips the request.
func TestBot_SendCanceled(t *testing.T) {
	t.Parallel()

	fake := new(fakeAPI)
	bot := newTestBot(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, bot.Send(ctx, "42", "hi"), context.Canceled)
	require.Empty(t, fake.sentMessages())
}

// TestCompose checks content and escaping of the HTML alert.
func TestCompose(t *testing.T) {
	t.Parallel()

	r := &alert.Report{
		Name:     "Ana <script>",
		Phone:    "600111222",
		Location: alert.Coordinates{Latitude: 38.5, Longitude: -0.15},
	}

	msg := Compose(r)
	require.Contains(t, msg, "<b>ALERTA: PERSONA PERDIDA</b>")
	require.Contains(t, msg, "Ana &lt;script&gt;")
	require.NotContains(t, msg, "<script>")
	require.Contains(t, msg, "600111222")
	require.Contains(t, msg, "38.500000, -0.150000")
	require.Contains(t, msg, `<a href="https://maps.google.com/?q=38.5,-0.15">`)
	require.True(t, strings.HasSuffix(msg, alert.CallToAction))
}
