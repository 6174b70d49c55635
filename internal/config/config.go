package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// Config holds every setting of the lost-alarm server and CLI.
type Config struct {
	// LogLevel is parsed by logger.ParseLogLevel.
	LogLevel string `yaml:"log_level" default:"info"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format" default:"console"`
	// JournalFile is the append-only audit log of location reports.
	JournalFile string `yaml:"journal_file" default:"data/lost-persons.txt"`
	// VisitorLogFile stores one JSON object per visit.
	VisitorLogFile string `yaml:"visitor_log_file" default:"logs/visitors.log"`

	HTTP         HTTP         `yaml:"http"`
	GRPC         GRPC         `yaml:"grpc"`
	Broadcast    Broadcast    `yaml:"broadcast"`
	Subscription Subscription `yaml:"subscription"`
	Telegram     Telegram     `yaml:"telegram"`
	WhatsApp     WhatsApp     `yaml:"whatsapp"`
}

// HTTP configures the public web listener.
type HTTP struct {
	// ListenAddress is the TCP address of the HTTP API.
	ListenAddress string `yaml:"listen_addr" default:":3002"`
	// StaticDir optionally serves a pre-built front-end.
	StaticDir string `yaml:"static_dir"`
	// ReadHeaderTimeout bounds slow clients.
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" default:"5s"`
	// RequestTimeout bounds a whole API request, including the broadcast.
	RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// GRPC configures the health-check listener. An empty address disables it.
type GRPC struct {
	ListenAddress string `yaml:"listen_addr"`
}

// Broadcast tunes the dispatcher.
type Broadcast struct {
	// Concurrency caps simultaneous deliveries of one broadcast.
	Concurrency int `yaml:"concurrency" default:"8"`
}

// Subscription configures the inbound command handler.
type Subscription struct {
	// Keyword subscribes a chat when written as text or as /keyword.
	Keyword string `yaml:"keyword" default:"bautismos"`
}

// Telegram configures the Telegram bot backend.
type Telegram struct {
	Enabled bool `yaml:"enabled"`
	// Token is the bot API token; "${TELEGRAM_BOT_TOKEN}" is expanded from the environment.
	Token string `yaml:"token"`
	// AdminChatID receives every broadcast.
	AdminChatID string `yaml:"admin_chat_id"`
	// RegistryFile lists subscribed chat IDs, one per line.
	RegistryFile string `yaml:"registry_file" default:"data/personas.txt"`
	// APIEndpoint overrides the Bot API URL template (two %s verbs: token, method).
	APIEndpoint string `yaml:"api_endpoint"`
	// Timeout is the HTTP client timeout for Bot API calls.
	Timeout time.Duration `yaml:"timeout" default:"10s"`
	// PollTimeout is the long-polling timeout in seconds.
	PollTimeout int `yaml:"poll_timeout" default:"60"`
}

// WhatsApp configures the WhatsApp Cloud API backend.
type WhatsApp struct {
	Enabled       bool   `yaml:"enabled"`
	APIURL        string `yaml:"api_url" default:"https://graph.facebook.com/v19.0"`
	PhoneNumberID string `yaml:"phone_number_id"`
	AccessToken   string `yaml:"access_token"`
	// AdminPhone receives every broadcast.
	AdminPhone string `yaml:"admin_phone"`
	// VerifyToken answers the webhook verification handshake.
	VerifyToken string `yaml:"verify_token"`
	// RegistryFile lists subscribed phone numbers, one per line.
	RegistryFile string        `yaml:"registry_file" default:"data/whatsapp-personas.txt"`
	Timeout      time.Duration `yaml:"timeout" default:"10s"`
}

const (
	// DefaultConfigFilename is the default settings file.
	DefaultConfigFilename = "lost-alarm-settings.yaml"

	// DefaultFilePermissions is used for settings and data files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is used when data directories are created.
	DefaultDirPermissions = 0o750
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errListenAddressRequired is returned when the HTTP address is missing.
	errListenAddressRequired = errors.New("http listen address must be provided")
	// errNoChannel is returned when every messaging backend is disabled.
	errNoChannel = errors.New("at least one messaging channel must be enabled")
	// errMissingSetting is wrapped with the name of a required setting.
	errMissingSetting = errors.New("missing required setting")
)

// New returns a configuration filled with defaults.
func New() *Config {
	cfg := new(Config)
	if err := defaults.Set(cfg); err != nil {
		// Tags are static, a failure here is a programming error.
		panic(fmt.Sprintf("apply config defaults: %v", err))
	}

	return cfg
}

// Load reads configuration from the provided path, expands ${ENV} references,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := New()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(contents))), cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Settings hold bot tokens.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills zero values with defaults and checks required fields.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}

	if cfg.HTTP.ListenAddress == "" {
		return errListenAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.HTTP.ListenAddress); err != nil {
		return fmt.Errorf("invalid http listen address: %w", err)
	}

	if cfg.GRPC.ListenAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", cfg.GRPC.ListenAddress); err != nil {
			return fmt.Errorf("invalid grpc listen address: %w", err)
		}
	}

	if !cfg.Telegram.Enabled && !cfg.WhatsApp.Enabled {
		return errNoChannel
	}

	if cfg.Telegram.Enabled {
		if err := required(map[string]string{
			"telegram.token":         cfg.Telegram.Token,
			"telegram.admin_chat_id": cfg.Telegram.AdminChatID,
		}); err != nil {
			return err
		}
	}

	if cfg.WhatsApp.Enabled {
		// Webhooks identify senders without the plus sign.
		cfg.WhatsApp.AdminPhone = alert.CanonicalPhone(cfg.WhatsApp.AdminPhone)

		if err := required(map[string]string{
			"whatsapp.phone_number_id": cfg.WhatsApp.PhoneNumberID,
			"whatsapp.access_token":    cfg.WhatsApp.AccessToken,
			"whatsapp.admin_phone":     cfg.WhatsApp.AdminPhone,
		}); err != nil {
			return err
		}

		if _, err := url.ParseRequestURI(cfg.WhatsApp.APIURL); err != nil {
			return fmt.Errorf("invalid whatsapp api url: %w", err)
		}
	}

	return nil
}

// required returns an error naming the first empty setting in alphabetical order.
func required(settings map[string]string) error {
	var missing string

	for name, value := range settings {
		if value == "" && (missing == "" || name < missing) {
			missing = name
		}
	}

	if missing != "" {
		return fmt.Errorf("%w: %s", errMissingSetting, missing)
	}

	return nil
}
