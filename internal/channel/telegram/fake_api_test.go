package telegram

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-alarm/internal/config"
)

// fakeAPI imitates the subset of the Bot API the backend calls.
type fakeAPI struct {
	mu sync.Mutex
	// sent records sendMessage form values.
	sent []url.Values
	// commands records setMyCommands calls.
	commands []url.Values
	// failChat makes sendMessage fail for this chat_id.
	failChat string
	// updates is served once by getUpdates.
	updates string
	served  bool
}

// ServeHTTP dispatches on the method name at the end of /bot<token>/<method>.
func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch path.Base(r.URL.Path) {
	case "getMe":
		_, _ = fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Bot","username":"bautismos_bot"}}`)
	case "sendMessage":
		f.sent = append(f.sent, r.PostForm)
		if r.PostForm.Get("chat_id") == f.failChat {
			_, _ = fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}

		_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":%s,"type":"private"}}}`,
			r.PostForm.Get("chat_id"))
	case "setMyCommands":
		f.commands = append(f.commands, r.PostForm)
		_, _ = fmt.Fprint(w, `{"ok":true,"result":true}`)
	case "getUpdates":
		if !f.served && f.updates != "" {
			f.served = true
			_, _ = fmt.Fprintf(w, `{"ok":true,"result":[%s]}`, f.updates)

			return
		}

		f.mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		f.mu.Lock()

		_, _ = fmt.Fprint(w, `{"ok":true,"result":[]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

// sentMessages returns a copy of the recorded sendMessage calls.
func (f *fakeAPI) sentMessages() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]url.Values(nil), f.sent...)
}

// newTestBot starts fake and returns a Bot pointed at it.
func newTestBot(t *testing.T, fake *fakeAPI) *Bot {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	bot, err := New(config.Telegram{
		Token:       "123:abc",
		APIEndpoint: srv.URL + "/bot%s/%s",
		Timeout:     2 * time.Second,
		PollTimeout: 1,
	}, srv.Client())
	require.NoError(t, err)

	return bot
}
