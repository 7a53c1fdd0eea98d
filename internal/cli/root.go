package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailphone/internal/config"
	"github.com/vijay-prabhu/mailphone/internal/logging"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	configPath string
	envPath    string
	logLevel   string
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

// rootCmd runs the pipeline when invoked without a subcommand
var rootCmd = &cobra.Command{
	Use:   "mailphone",
	Short: "Extract recipients of labeled Gmail messages and match them to phone numbers",
	Long: `mailphone searches your Gmail account for recent messages with a given
label and subject, extracts the To and Date headers of every match, writes
them to a timestamped JSON file and looks up each recipient in a local
address-to-phone mapping.

On first run, it will open a browser for Google authentication.

Examples:
  mailphone                       # Run with ./mailphone.toml and ./.env
  mailphone -c ~/mailphone.toml   # Run with another config file
  mailphone auth --reset          # Discard the cached token and authorize again
  mailphone history               # Show recent runs`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPipeline,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the run.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := logging.New(os.Stderr, "info", "console")
		log.Error().Err(err).Msg("mailphone failed")
		return err
	}
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath,
		"config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", ".env",
		"dotenv file with CLIENT_ID, CLIENT_SECRET and REDIRECT_URI")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the .env file and the config, then builds the logger
func loadConfig() (*config.Config, zerolog.Logger, error) {
	if err := config.LoadEnvFile(envPath); err != nil {
		return nil, zerolog.Nop(), err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	return cfg, log, nil
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mailphone %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
	},
}
