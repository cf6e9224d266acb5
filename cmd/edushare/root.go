package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/phrazzld/edushare-api/internal/config"
	"github.com/phrazzld/edushare-api/internal/platform/logger"
	"github.com/phrazzld/edushare-api/internal/platform/sqlstore"
	"github.com/spf13/cobra"
)

// commandContext lazily loads what subcommands share: env files, config,
// and the logger.
type commandContext struct {
	envFiles []string

	once   sync.Once
	config *config.Config
	logger *slog.Logger
	err    error
}

func (c *commandContext) ensureConfig() (*config.Config, *slog.Logger, error) {
	c.once.Do(func() {
		if err := loadEnvFiles(c.envFiles); err != nil {
			c.err = err
			return
		}
		cfg, err := config.Load()
		if err != nil {
			c.err = err
			return
		}
		log, err := logger.Setup(cfg.Server)
		if err != nil {
			c.err = fmt.Errorf("failed to set up logger: %w", err)
			return
		}
		c.config = cfg
		c.logger = log
	})
	return c.config, c.logger, c.err
}

// openDatabase opens the configured database. Callers close it.
func (c *commandContext) openDatabase(ctx context.Context) (*sql.DB, sqlstore.Dialect, error) {
	cfg, log, err := c.ensureConfig()
	if err != nil {
		return nil, sqlstore.Dialect{}, err
	}
	return sqlstore.Open(ctx, cfg.Database, log)
}

// loadEnvFiles loads each file into the process environment without
// overriding variables already set. The default .env may be absent.
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	for _, f := range files {
		if err := godotenv.Load(strings.TrimSpace(f)); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "edushare",
		Short:         "Playlist enrichment API for mentors and students",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&ctx.envFiles, "env-file", nil,
		"Env file(s) to load before reading configuration (default .env if present)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newRecoverCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))

	return rootCmd
}
