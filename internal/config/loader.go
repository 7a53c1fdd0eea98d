package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override the [auth] section
const (
	EnvClientID     = "CLIENT_ID"
	EnvClientSecret = "CLIENT_SECRET"
	EnvRedirectURI  = "REDIRECT_URI"
)

// DefaultPath is used when no --config flag is given
const DefaultPath = "mailphone.toml"

// Load reads the configuration file (if present), applies environment
// overrides and validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// run on defaults + environment
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. Variables that are already set win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides credentials with values from the environment
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvClientID); v != "" {
		c.Auth.ClientID = v
	}
	if v := getenv(EnvClientSecret); v != "" {
		c.Auth.ClientSecret = v
	}
	if v := getenv(EnvRedirectURI); v != "" {
		c.Auth.RedirectURI = v
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.Auth.CredentialsPath,
		&c.Auth.TokenPath,
		&c.Output.Dir,
		&c.Output.MappingPath,
		&c.History.Path,
	} {
		expanded, err := expandPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Auth validation (credentials themselves are checked when authorizing)
	if c.Auth.TokenPath == "" {
		errs = append(errs, errors.New("auth.token_path is required"))
	}
	if c.Auth.Method != MethodCallback && c.Auth.Method != MethodManual {
		errs = append(errs, fmt.Errorf("auth.method must be '%s' or '%s', got '%s'", MethodCallback, MethodManual, c.Auth.Method))
	}
	if c.Auth.CallbackPort < 1 || c.Auth.CallbackPort > 65535 {
		errs = append(errs, errors.New("auth.callback_port must be between 1 and 65535"))
	}
	if !strings.HasPrefix(c.Auth.CallbackPath, "/") {
		errs = append(errs, errors.New("auth.callback_path must start with '/'"))
	}
	if c.Auth.CallbackTimeoutSeconds < 1 {
		errs = append(errs, errors.New("auth.callback_timeout_seconds must be at least 1"))
	}

	// Query validation
	if c.Query.LookbackDays < 0 {
		errs = append(errs, errors.New("query.lookback_days must not be negative"))
	}

	// Gmail validation
	if c.Gmail.MaxResults < 1 || c.Gmail.MaxResults > 500 {
		errs = append(errs, errors.New("gmail.max_results must be between 1 and 500"))
	}
	if c.Gmail.MaxInFlight < 0 {
		errs = append(errs, errors.New("gmail.max_in_flight must not be negative"))
	}
	if c.Gmail.RequestTimeoutSeconds < 1 {
		errs = append(errs, errors.New("gmail.request_timeout_seconds must be at least 1"))
	}

	// Output validation
	if c.Output.Dir == "" {
		errs = append(errs, errors.New("output.dir is required"))
	}
	if c.Output.MappingPath == "" {
		errs = append(errs, errors.New("output.mapping_path is required"))
	}

	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required when history is enabled"))
	}

	// Log validation
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got '%s'", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be 'console' or 'json', got '%s'", c.Log.Format))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// CallbackRedirectURL returns the redirect URL served by the local listener
func (c *Config) CallbackRedirectURL() string {
	return fmt.Sprintf("http://localhost:%d%s", c.Auth.CallbackPort, c.Auth.CallbackPath)
}

// EnsureDirectories creates parent directories for the token cache and history database
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Auth.TokenPath)}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
