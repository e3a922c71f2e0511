// Package configcmder provides the config command for managing persistent
// memline configuration stored in the .memline/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent memline configuration.

Configuration is stored as config.toml in the .memline/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  ingest.enabled, ingest.brokers, ingest.topic, ingest.group_id,
  mcp.enabled

Use subcommands to get, set, or list configuration values:
  memline config set <key> <value>    Set a configuration value
  memline config get <key>            Get a configuration value
  memline config list                 List all configuration values

Examples:
  memline config set storage.provider sqlite
  memline config set storage.sqlite_path ./memline.sqlite
  memline config get api.listen
  memline config list`

const configShortDesc string = "Manage persistent memline configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
