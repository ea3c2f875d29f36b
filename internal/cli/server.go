package cli

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dutchd/dutchd/internal/config"
	"github.com/dutchd/dutchd/internal/node"
)

// serverCmd starts the daemon.
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the dutchd auction daemon",
	Long: `Start the dutchd server, which provides:
- HTTP JSON-RPC endpoints for auction operations
- WebSocket streams for auctions, bids, and block events
- Snapshot persistence and an optional relational audit trail`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server is the default action.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServer(cmd, args)
	}

	serverCmd.Flags().Bool("standalone", false, "advance blocks only via the advance method")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if standalone, _ := cmd.Flags().GetBool("standalone"); standalone {
		cfg.Chain.Standalone = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := node.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	if !quiet {
		fmt.Println("Starting dutchd - Dutch Auction Settlement Daemon")
		fmt.Printf("  - JSON-RPC:  http://%s:%d/\n", cfg.Server.RPCHost, cfg.Server.RPCPort)
		fmt.Printf("  - WebSocket: ws://%s:%d/\n", cfg.Server.WSHost, cfg.Server.WSPort)
		if cfg.Chain.Standalone {
			fmt.Println("  - Mode:      standalone (blocks advance via the advance method)")
		} else {
			fmt.Printf("  - Mode:      ticking, one block per %s\n", cfg.Chain.BlockInterval())
		}
	}

	if err := n.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	log.Println("dutchd stopped")
	return nil
}
