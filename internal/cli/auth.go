package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailphone/internal/auth"
)

var authReset bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail access and cache the token",
	Long: `Auth runs the OAuth authorization flow and caches the resulting token,
so later runs can start without a browser.

Examples:
  mailphone auth           # Authorize only if no token is cached
  mailphone auth --reset   # Discard the cached token and authorize again`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.Flags().BoolVar(&authReset, "reset", false, "Discard the cached token before authorizing")
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	store := auth.NewFileStore(cfg.Auth.TokenPath)
	if authReset {
		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to remove cached token: %w", err)
		}
		fmt.Printf("Removed cached token %s\n", cfg.Auth.TokenPath)
	}

	token, err := store.Load()
	if err != nil {
		return err
	}
	if token != nil {
		fmt.Printf("Token already cached at %s (use --reset to authorize again)\n", cfg.Auth.TokenPath)
		return nil
	}

	authorizer, err := auth.FromConfig(cfg, store, os.Stdin, os.Stdout, log)
	if err != nil {
		return err
	}

	if _, err := authorizer.Authorize(ctx); err != nil {
		return err
	}

	fmt.Printf("Authorized. Token saved to %s\n", cfg.Auth.TokenPath)
	return nil
}
