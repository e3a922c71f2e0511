// Package recallcmder provides the recall command for querying customer
// memories from the terminal.
package recallcmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dialpoint/memline/pkg/cliui"
	"github.com/dialpoint/memline/pkg/config"
	"github.com/dialpoint/memline/pkg/logger"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
	"github.com/dialpoint/memline/pkg/storage/postgres"
	"github.com/dialpoint/memline/pkg/storage/sqlite"
)

const recallLongDesc string = `Recall memories for a customer.

Without --query, prints the customer's most recent observations. With a
query, prints observations matching it, falling back to recent history when
nothing matches.

The output is the same context block the memory API hands to prompt builders,
rendered as markdown when stdout is a terminal.

Examples:
  memline recall +15550001111
  memline recall +15550001111 --query budget
  memline recall +15550001111 --storage sqlite --sqlite ./memline.sqlite`

const recallShortDesc string = "Recall memories for a customer"

type recallCommander struct {
	phone       string
	query       string
	provider    string
	sqlitePath  string
	postgresDSN string

	debug  bool
	logger *slog.Logger
}

var recallFlags = []string{
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgres,
}

func NewRecallCmd() *cobra.Command {
	cmder := &recallCommander{}

	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "recall <phone>",
		Short: recallShortDesc,
		Long:  recallLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), recallFlags)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.phone = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			return cmder.run(cmd.Context(), config.ConfigFromViper(v))
		},
	}

	fs := config.DefaultFlagSet()
	cmd.Flags().StringVarP(&cmder.query, "query", "q", "", "Search text; empty returns recent history")
	config.AddStringFlag(cmd, fs, config.FlagStorageProvider, &cmder.provider)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgresDSN)

	return cmd
}

func (c *recallCommander) run(ctx context.Context, cfg *config.Config) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	driver, err := newStorageDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close()

	memories := memory.NewService(driver, c.logger)

	result := memories.RecallMemories(ctx, c.phone, c.query, "")
	if result == nil {
		return fmt.Errorf("recall failed for %s", c.phone)
	}

	text := memory.FormatMemoriesForPrompt(result)
	if text == "" {
		fmt.Printf("No memories recorded for %s.\n", c.phone)
		return nil
	}

	// Render markdown only for humans; keep pipes machine-readable.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		rendered, err := cliui.RenderMarkdown(text)
		if err == nil {
			fmt.Print(rendered)
			return nil
		}
	}

	fmt.Print(text)
	return nil
}

func newStorageDriver(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
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
		// An in-memory store is empty by definition; still valid for
		// exercising the command in development.
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q (want memory, sqlite, or postgres)", cfg.Storage.Provider)
	}
}
