// Package boardcmder provides the board command: a terminal dashboard over
// the customer memory store.
package boardcmder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dialpoint/memline/pkg/config"
	"github.com/dialpoint/memline/pkg/logger"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
	"github.com/dialpoint/memline/pkg/storage/postgres"
	"github.com/dialpoint/memline/pkg/storage/sqlite"
)

const boardLongDesc string = `Board is a terminal dashboard over the customer memory store.

Browse every known customer with their observation counts and drill down into
a single customer's history.

Examples:
  memline board
  memline board --storage sqlite --sqlite ./memline.sqlite
  memline board --phone +15550001111
  memline board --limit 50`

const boardShortDesc string = "Board - customer memory dashboard"

type boardCommander struct {
	provider    string
	sqlitePath  string
	postgresDSN string
	phone       string
	limit       int

	debug  bool
	logger *slog.Logger
}

var boardFlags = []string{
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewBoardCmd() *cobra.Command {
	cmder := &boardCommander{}

	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "board",
		Short: boardShortDesc,
		Long:  boardLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), boardFlags)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run(cmd.Context(), config.ConfigFromViper(v))
		},
	}

	fs := config.DefaultFlagSet()
	config.AddStringFlag(cmd, fs, config.FlagStorageProvider, &cmder.provider)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgresDSN)
	cmd.Flags().StringVar(&cmder.phone, "phone", "", "Drill into a specific customer phone")
	cmd.Flags().IntVar(&cmder.limit, "limit", 50, "Max observations shown per customer")

	return cmd
}

func (c *boardCommander) run(ctx context.Context, cfg *config.Config) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	if c.limit <= 0 {
		return fmt.Errorf("limit must be a positive integer")
	}

	driver, err := c.newStorageDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close()

	memories := memory.NewService(driver, c.logger)

	return runBoardTUI(ctx, driver, memories, c.phone, c.limit)
}

func (c *boardCommander) newStorageDriver(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	switch cfg.Storage.Provider {
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a connection string (--postgres or storage.postgres_dsn)")
		}
		return postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)

	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite storage requires a path (--sqlite or storage.sqlite_path)")
		}
		return sqlite.NewDriver(ctx, cfg.Storage.SQLitePath)

	case "", "memory":
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q (want memory, sqlite, or postgres)", cfg.Storage.Provider)
	}
}
