// Package memlinecmder
package memlinecmder

import (
	"github.com/spf13/cobra"

	boardcmder "github.com/dialpoint/memline/cmd/memline/board"
	configcmder "github.com/dialpoint/memline/cmd/memline/config"
	recallcmder "github.com/dialpoint/memline/cmd/memline/recall"
	servecmder "github.com/dialpoint/memline/cmd/memline/serve"
	versioncmder "github.com/dialpoint/memline/cmd/version"
)

const memlineLongDesc string = `Memline is the customer memory layer for support conversations.

Run services using:
  memline serve        Run the memory API server
  memline board        Open the customer dashboard TUI
  memline recall       Recall memories for a customer from the terminal`

const memlineShortDesc string = "Memline - Customer Memory"

func NewMemlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memline",
		Short: memlineShortDesc,
		Long:  memlineLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory holding the .memline/ config (default: walk up from cwd, then $HOME)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(boardcmder.NewBoardCmd())
	cmd.AddCommand(recallcmder.NewRecallCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
