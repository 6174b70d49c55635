package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/service/server"
)

// telegramAPI imitates the Bot API calls the server makes.
type telegramAPI struct {
	mu sync.Mutex
	// sent records sendMessage form values.
	sent []url.Values
	// updates is served once by getUpdates.
	updates string
	served  bool
}

func (f *telegramAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	w.Header().Set("Content-Type", "application/json")

	switch path.Base(r.URL.Path) {
	case "getMe":
		_, _ = fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Bot","username":"lost_alarm_bot"}}`)
	case "sendMessage":
		f.mu.Lock()
		f.sent = append(f.sent, r.PostForm)
		f.mu.Unlock()

		_, _ = fmt.Fprintf(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":%s,"type":"private"}}}`,
			r.PostForm.Get("chat_id"))
	case "setMyCommands":
		_, _ = fmt.Fprint(w, `{"ok":true,"result":true}`)
	case "getUpdates":
		f.mu.Lock()
		first := !f.served && f.updates != ""
		f.served = true
		f.mu.Unlock()

		if first {
			_, _ = fmt.Fprintf(w, `{"ok":true,"result":[%s]}`, f.updates)
			return
		}

		time.Sleep(20 * time.Millisecond)
		_, _ = fmt.Fprint(w, `{"ok":true,"result":[]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

// alerts returns the HTML messages sent to chatID.
func (f *telegramAPI) alerts(chatID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string

	for _, v := range f.sent {
		if v.Get("chat_id") == chatID && v.Get("parse_mode") == "HTML" {
			texts = append(texts, v.Get("text"))
		}
	}

	return texts
}

// replies returns the plain messages sent to chatID.
func (f *telegramAPI) replies(chatID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var texts []string

	for _, v := range f.sent {
		if v.Get("chat_id") == chatID && v.Get("parse_mode") == "" {
			texts = append(texts, v.Get("text"))
		}
	}

	return texts
}

// reservePort returns a free loopback address.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

// instance is a running server.
type instance struct {
	httpAddr string
	grpcAddr string
	dir      string
	settings *config.Config
}

// startServer writes settings pointing at endpoint and runs the server until the test ends.
func startServer(t *testing.T, endpoint string) *instance {
	t.Helper()

	dir := t.TempDir()

	inst := &instance{
		httpAddr: reservePort(t),
		grpcAddr: reservePort(t),
		dir:      dir,
	}

	settings := config.New()
	settings.JournalFile = filepath.Join(dir, "lost-persons.txt")
	settings.VisitorLogFile = filepath.Join(dir, "visitors.log")
	settings.HTTP.ListenAddress = inst.httpAddr
	settings.GRPC.ListenAddress = inst.grpcAddr
	settings.Telegram.Enabled = true
	settings.Telegram.Token = "123:abc"
	settings.Telegram.AdminChatID = "999"
	settings.Telegram.APIEndpoint = endpoint
	settings.Telegram.RegistryFile = filepath.Join(dir, "personas.txt")
	settings.Telegram.Timeout = 2 * time.Second
	settings.Telegram.PollTimeout = 1
	inst.settings = settings

	cfgPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, config.Save(cfgPath, settings))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{ConfigPath: cfgPath})
	}()

	t.Cleanup(func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not stop")
		}
	})

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + inst.httpAddr + "/api/online") //nolint:noctx // Readiness probe.
		if err != nil {
			return false
		}

		_ = resp.Body.Close()

		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	return inst
}

// startTelegram starts a fake Bot API and returns its endpoint template.
func startTelegram(t *testing.T, api *telegramAPI) string {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	return srv.URL + "/bot%s/%s"
}
