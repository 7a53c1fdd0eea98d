package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/mailphone/internal/auth"
	"github.com/vijay-prabhu/mailphone/internal/database"
	"github.com/vijay-prabhu/mailphone/internal/pipeline"
)

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// Ensure directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	authorizer, err := auth.FromConfig(cfg, auth.NewFileStore(cfg.Auth.TokenPath), os.Stdin, os.Stdout, log)
	if err != nil {
		return err
	}

	// Run history is optional
	var history pipeline.HistoryRecorder
	if cfg.History.Enabled {
		db, err := database.Open(cfg.History.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.History.Path).Msg("run history disabled")
		} else {
			defer db.Close()
			history = db
		}
	}

	terminal := NewTerminal()
	runner := pipeline.New(cfg, authorizer, pipeline.GmailSource, history, os.Stdout, log)

	res, err := runner.Run(ctx, time.Now(), pipeline.Options{Progress: terminal.ProgressPrinter()})
	if err != nil {
		return err
	}

	log.Debug().
		Str("run_id", res.RunID).
		Int("messages", len(res.Records)).
		Int("phones", len(res.Phones)).
		Msg("run finished")
	return nil
}
