package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		fmt.Printf("Config file already exists at %s\n", configPath)
		fmt.Println("Use 'mailphone config show' to view current configuration")
		return nil
	}

	// Write default config
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Create an OAuth client (Desktop app) in the Google Cloud console")
	fmt.Println("  2. Put CLIENT_ID and CLIENT_SECRET in .env or in the [auth] section")
	fmt.Println("  3. Set [query] label and subject")
	fmt.Println("  4. Run 'mailphone' to authenticate and fetch messages")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	// never echo the secret
	if cfg.Auth.ClientSecret != "" {
		cfg.Auth.ClientSecret = "********"
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	fmt.Printf("# Effective configuration (file: %s)\n\n", configPath)
	fmt.Print(string(data))
	return nil
}

const defaultConfig = `# mailphone configuration
# CLIENT_ID, CLIENT_SECRET and REDIRECT_URI in the environment (or .env) override [auth].

[auth]
client_id = ""
client_secret = ""
# credentials_path = "credentials.json"  # used when client_id is empty
token_path = "token.json"
method = "callback"          # callback | manual
callback_port = 3000
callback_path = "/oauth2callback"
callback_timeout_seconds = 300
open_browser = true

[query]
label = ""
subject = ""
lookback_days = 7

[gmail]
max_results = 500            # 1..500, one page only
max_in_flight = 0            # 0 = one request per message
request_timeout_seconds = 30

[output]
dir = "output"
mapping_path = "data/phone_map.json"
detail = false

[history]
enabled = true
path = "data/history.db"

[log]
level = "info"               # debug | info | warn | error
format = "console"           # console | json
`
