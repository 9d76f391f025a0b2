package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rallypc/pccalc/pkg/timing"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultRefreshInterval   = 120 * time.Second
	DefaultWatchDebounce     = 500 * time.Millisecond
	DefaultBroadcastInterval = 5 * time.Second
	DefaultHTTPPort          = 8080
	DefaultGRPCPort          = 50051
	DefaultDir               = "csv"
	DefaultBranch            = "main"
	DefaultGitHubBaseURL     = "https://api.github.com"
	DefaultStorePath         = "results.json"
)

var sectionIDPattern = regexp.MustCompile(`^(PC|CO)[1-9][0-9]*$`)

// Config is the top-level configuration shared by pccalc and pccalc-server.
type Config struct {
	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	Event  EventConfig  `yaml:"event"`
	Source SourceConfig `yaml:"source"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Alerts AlertsConfig `yaml:"alerts"`
}

// EventConfig describes the event being timed.
type EventConfig struct {
	// Name is shown in logs and the API; it has no effect on computation.
	Name string `yaml:"name"`

	// BibOrder is ascending | descending (default).
	BibOrder string `yaml:"bib_order"`

	// Targets maps a section id ("PC1", "CO2") to its target time, written either
	// as a clock ("00:05:00.00") or as seconds ("300").
	Targets map[string]string `yaml:"targets"`
}

// Order returns the parsed bib order. Validation guarantees it is known.
func (e EventConfig) Order() timing.BibOrder {
	o, _ := timing.ParseBibOrder(e.BibOrder)
	return o
}

// TargetTable converts Targets to seconds. Validation guarantees every entry parses.
func (e EventConfig) TargetTable() timing.Targets {
	out := make(timing.Targets, len(e.Targets))
	for id, v := range e.Targets {
		secs, err := ParseTarget(v)
		if err != nil {
			continue
		}
		out[strings.ToUpper(id)] = secs
	}
	return out
}

// ParseTarget accepts a clock string or plain seconds.
func ParseTarget(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if strings.Contains(v, ":") {
		return timing.ParseClock(v)
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid target %q: want HH:MM:SS.ss or seconds", v)
	}
	return secs, nil
}

// SourceConfig selects where CSV files are read from.
type SourceConfig struct {
	// Type is one of: dir | github.
	Type string `yaml:"type"`

	// Dir is the local directory holding the CSV files (type dir).
	Dir string `yaml:"dir"`

	// Watch recomputes when files in Dir change (type dir only).
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces bursts of file events into one recompute.
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// RefreshInterval controls how often the source is re-read. Zero disables
	// periodic refresh.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	GitHub GitHubConfig `yaml:"github"`
}

// GitHubConfig points at a directory in a GitHub repository.
type GitHubConfig struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Dir    string `yaml:"dir"`

	// TokenEnv is the name of the environment variable holding a personal
	// access token. Public repositories need none.
	TokenEnv string `yaml:"token_env"`

	// BaseURL overrides the API root (GitHub Enterprise, tests).
	BaseURL string `yaml:"base_url"`
}

// Token returns the access token resolved from the environment.
func (g GitHubConfig) Token() string {
	if g.TokenEnv == "" {
		return ""
	}
	return os.Getenv(g.TokenEnv)
}

// ServerConfig holds pccalc-server settings.
type ServerConfig struct {
	// HTTPPort serves the REST API, /metrics and the WebSocket stream.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort serves the gRPC health service.
	GRPCPort int `yaml:"grpc_port"`

	Auth AuthConfig `yaml:"auth"`

	// BroadcastInterval controls how often the latest report is pushed to
	// WebSocket clients.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// AuthConfig controls client authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header / gRPC metadata key. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return strings.ToLower(a.Header)
	}
	return "x-api-key"
}

// StoreConfig controls report persistence.
type StoreConfig struct {
	// Path is the JSON file the last successful report is saved to.
	// Empty disables persistence.
	Path string `yaml:"path"`
}

// AlertsConfig holds data-quality rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// Alert condition vocabulary. CountFields compare numerically with any of
// CountOperators; "success" takes a boolean and only == or !=.
var (
	CountFields    = []string{"overlaps", "duplicates", "skipped_files", "bibs", "sections", "files"}
	CountOperators = []string{">", ">=", "<", "<=", "==", "!="}
)

// ValidateCondition checks that cond is "field op value" using a known field,
// an operator valid for it and a value of the right type.
func ValidateCondition(cond string) error {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return fmt.Errorf("condition %q must be \"field op value\"", cond)
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "success" {
		if op != "==" && op != "!=" {
			return fmt.Errorf("condition %q: success supports only == and !=", cond)
		}
		if _, err := strconv.ParseBool(rhs); err != nil {
			return fmt.Errorf("condition %q: success compares to true or false", cond)
		}
		return nil
	}

	if !contains(CountFields, field) {
		return fmt.Errorf("condition %q: unknown field %q, want success|%s", cond, field, strings.Join(CountFields, "|"))
	}
	if !contains(CountOperators, op) {
		return fmt.Errorf("condition %q: unknown operator %q", cond, op)
	}
	if _, err := strconv.ParseFloat(rhs, 64); err != nil {
		return fmt.Errorf("condition %q: %q is not a number", cond, rhs)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// AlertRule defines one threshold condition evaluated against every report.
type AlertRule struct {
	// Name is the human-readable identifier, also the deduplication key.
	Name string `yaml:"name"`

	// Condition is "field op value", e.g. "overlaps > 0", "success == false".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires. Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes with defaults applied, then validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Defaults returns a Config pre-populated with default values.
// It is also what the CLI runs with when no config file is given.
func Defaults() *Config {
	return &Config{
		LogLevel: "info",
		Event: EventConfig{
			BibOrder: string(timing.OrderDescending),
		},
		Source: SourceConfig{
			Type:            "dir",
			Dir:             DefaultDir,
			WatchDebounce:   DefaultWatchDebounce,
			RefreshInterval: DefaultRefreshInterval,
			GitHub: GitHubConfig{
				Branch:  DefaultBranch,
				Dir:     DefaultDir,
				BaseURL: DefaultGitHubBaseURL,
			},
		},
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			GRPCPort:          DefaultGRPCPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("log_level %q unknown: want debug|info|warn|error", cfg.LogLevel)
	}

	if _, err := timing.ParseBibOrder(cfg.Event.BibOrder); err != nil {
		return fmt.Errorf("event.bib_order: %w", err)
	}
	for id, v := range cfg.Event.Targets {
		if !sectionIDPattern.MatchString(strings.ToUpper(id)) {
			return fmt.Errorf("event.targets: %q is not a section id like PC1 or CO2", id)
		}
		if _, err := ParseTarget(v); err != nil {
			return fmt.Errorf("event.targets[%s]: %w", id, err)
		}
	}

	switch cfg.Source.Type {
	case "dir":
		if cfg.Source.Dir == "" {
			return fmt.Errorf("source.dir is required for type dir")
		}
	case "github":
		if cfg.Source.GitHub.Owner == "" || cfg.Source.GitHub.Repo == "" {
			return fmt.Errorf("source.github.owner and source.github.repo are required for type github")
		}
		if cfg.Source.Watch {
			return fmt.Errorf("source.watch is only supported for type dir")
		}
	default:
		return fmt.Errorf("source.type %q unknown: want dir|github", cfg.Source.Type)
	}
	if cfg.Source.RefreshInterval < 0 {
		return fmt.Errorf("source.refresh_interval must not be negative")
	}
	if cfg.Source.WatchDebounce < 0 {
		return fmt.Errorf("source.watch_debounce must not be negative")
	}

	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort <= 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [1, 65535]", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if err := ValidateCondition(r.Condition); err != nil {
			return fmt.Errorf("alerts.rules[%d] %q: %w", i, r.Name, err)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}
	return nil
}
