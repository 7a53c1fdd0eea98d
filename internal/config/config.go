package config

import "time"

// Config represents the application configuration
type Config struct {
	Auth    AuthConfig    `toml:"auth"`
	Query   QueryConfig   `toml:"query"`
	Gmail   GmailConfig   `toml:"gmail"`
	Output  OutputConfig  `toml:"output"`
	History HistoryConfig `toml:"history"`
	Log     LogConfig     `toml:"log"`
}

// Authorization code acquisition methods
const (
	MethodCallback = "callback"
	MethodManual   = "manual"
)

// AuthConfig contains OAuth client credentials and token cache settings
type AuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`

	// Optional Google "Desktop app" credentials file, used when client_id is empty
	CredentialsPath string `toml:"credentials_path"`
	TokenPath       string `toml:"token_path"`

	Method                 string `toml:"method"`
	CallbackPort           int    `toml:"callback_port"`
	CallbackPath           string `toml:"callback_path"`
	CallbackTimeoutSeconds int    `toml:"callback_timeout_seconds"`
	OpenBrowser            bool   `toml:"open_browser"`
}

// CallbackTimeout returns how long the local listener waits for the redirect
func (a AuthConfig) CallbackTimeout() time.Duration {
	return time.Duration(a.CallbackTimeoutSeconds) * time.Second
}

// QueryConfig describes which messages to select
type QueryConfig struct {
	Label        string `toml:"label"`
	Subject      string `toml:"subject"`
	LookbackDays int    `toml:"lookback_days"`
}

// GmailConfig contains Gmail API call settings
type GmailConfig struct {
	MaxResults            int `toml:"max_results"`
	MaxInFlight           int `toml:"max_in_flight"` // 0 = one request per message
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// RequestTimeout returns the per-call timeout as a duration
func (g GmailConfig) RequestTimeout() time.Duration {
	return time.Duration(g.RequestTimeoutSeconds) * time.Second
}

// OutputConfig contains output and cross-reference settings
type OutputConfig struct {
	Dir         string `toml:"dir"`
	MappingPath string `toml:"mapping_path"`
	Detail      bool   `toml:"detail"`
}

// HistoryConfig contains run history database settings
type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Auth: AuthConfig{
			TokenPath:              "token.json",
			Method:                 MethodCallback,
			CallbackPort:           3000,
			CallbackPath:           "/oauth2callback",
			CallbackTimeoutSeconds: 300,
			OpenBrowser:            true,
		},
		Query: QueryConfig{
			LookbackDays: 7,
		},
		Gmail: GmailConfig{
			MaxResults:            500,
			MaxInFlight:           0,
			RequestTimeoutSeconds: 30,
		},
		Output: OutputConfig{
			Dir:         "output",
			MappingPath: "data/phone_map.json",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "data/history.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
