// Package servecmder provides the serve command for running the memline
// services: the memory API server, the MCP tool endpoint, and the optional
// Kafka ingest consumer.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dialpoint/memline/api"
	"github.com/dialpoint/memline/api/mcp"
	"github.com/dialpoint/memline/pkg/config"
	"github.com/dialpoint/memline/pkg/dotdir"
	"github.com/dialpoint/memline/pkg/ingest"
	"github.com/dialpoint/memline/pkg/logger"
	"github.com/dialpoint/memline/pkg/memory"
	"github.com/dialpoint/memline/pkg/storage"
	"github.com/dialpoint/memline/pkg/storage/inmemory"
	"github.com/dialpoint/memline/pkg/storage/postgres"
	"github.com/dialpoint/memline/pkg/storage/sqlite"
)

const serveLongDesc string = `Run the memline memory services.

Starts the memory API server and, depending on configuration, mounts the MCP
tool endpoint on it and consumes conversation-closed events from Kafka.

Examples:
  memline serve
  memline serve --listen :9090 --storage sqlite --sqlite ./memline.sqlite
  memline serve --storage postgres --postgres postgres://localhost/memline
  memline serve --ingest --brokers kafka-1:9092,kafka-2:9092`

const serveShortDesc string = "Run the memline memory services"

type ServeCommander struct {
	listen        string
	provider      string
	sqlitePath    string
	postgresDSN   string
	mcpEnabled    bool
	ingestEnabled bool
	brokers       string
	topic         string
	group         string

	debug     bool
	configDir string
	logger    *slog.Logger
}

// serveFlags are the registry keys bound by the serve command.
var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagMCP,
	config.FlagIngest,
	config.FlagIngestBrokers,
	config.FlagIngestTopic,
	config.FlagIngestGroup,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	var v *viper.Viper

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			var err error
			v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), serveFlags)
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
	config.AddStringFlag(cmd, fs, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, fs, config.FlagStorageProvider, &cmder.provider)
	config.AddStringFlag(cmd, fs, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, fs, config.FlagPostgres, &cmder.postgresDSN)
	config.AddBoolFlag(cmd, fs, config.FlagMCP, &cmder.mcpEnabled)
	config.AddBoolFlag(cmd, fs, config.FlagIngest, &cmder.ingestEnabled)
	config.AddStringFlag(cmd, fs, config.FlagIngestBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, fs, config.FlagIngestTopic, &cmder.topic)
	config.AddStringFlag(cmd, fs, config.FlagIngestGroup, &cmder.group)

	return cmd
}

func (c *ServeCommander) run(ctx context.Context, cfg *config.Config) error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	driver, err := c.newStorageDriver(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close()

	memories := memory.NewService(driver, c.logger)

	apiServer := api.NewServer(api.Config{
		ListenAddr: cfg.API.Listen,
	}, driver, memories, c.logger)

	if cfg.MCP.Enabled {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Memories: memories,
			Logger:   c.logger,
		})
		if err != nil {
			return fmt.Errorf("creating MCP server: %w", err)
		}
		apiServer.MountMCP(mcpServer.Handler())
		c.logger.Info("mounted MCP endpoint", "path", "/mcp")
	}

	// Channel to capture errors from goroutines
	errChan := make(chan error, 2)

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	ingestCtx, cancelIngest := context.WithCancel(ctx)
	defer cancelIngest()

	if cfg.Ingest.Enabled {
		consumer := ingest.NewConsumer(ingest.Config{
			Brokers: strings.Split(cfg.Ingest.Brokers, ","),
			Topic:   cfg.Ingest.Topic,
			GroupID: cfg.Ingest.GroupID,
		}, memories, c.logger)
		defer consumer.Close()

		go func() {
			if err := consumer.Run(ingestCtx); err != nil {
				errChan <- fmt.Errorf("ingest consumer error: %w", err)
			}
		}()
	}

	go c.watchConfigFile(ingestCtx)

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		cancelIngest()
		return apiServer.Shutdown()
	}
}

func (c *ServeCommander) newStorageDriver(ctx context.Context, cfg *config.Config) (storage.Driver, error) {
	switch cfg.Storage.Provider {
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres storage requires a connection string (--postgres or storage.postgres_dsn)")
		}
		driver, err := postgres.NewDriver(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres driver: %w", err)
		}
		c.logger.Info("using postgres storage")
		return driver, nil

	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite storage requires a path (--sqlite or storage.sqlite_path)")
		}
		driver, err := sqlite.NewDriver(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", cfg.Storage.SQLitePath)
		return driver, nil

	case "", "memory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q (want memory, sqlite, or postgres)", cfg.Storage.Provider)
	}
}

// watchConfigFile logs a notice when config.toml changes on disk. Serve reads
// its configuration once at startup; the notice tells the operator a restart
// is needed.
func (c *ServeCommander) watchConfigFile(ctx context.Context) {
	target, err := dotdir.NewManager().Target(c.configDir)
	if err != nil || target == "" {
		return
	}
	configPath := filepath.Join(target, "config.toml")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Debug("config watcher unavailable", "error", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(target); err != nil {
		c.logger.Debug("could not watch config dir", "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-watcher.Events:
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			c.logger.Warn("config file changed on disk; restart to apply", "path", configPath)
		case err := <-watcher.Errors:
			c.logger.Debug("config watcher error", "error", err)
			return
		}
	}
}
