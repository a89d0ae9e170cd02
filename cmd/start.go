package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ringkeeper/gossipcore/config"
	"github.com/ringkeeper/gossipcore/logger"
	"github.com/ringkeeper/gossipcore/node"
)

var (
	address    string
	port       string
	nodeID     string
	seeds      []string
	configPath string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a gossip node",
	Long: `Start a gossip protocol node.

Examples:
  # Start a node
  cassandra start --node-id=node-1 --port=50051

  # Start a node with seeds (peers to gossip with)
  cassandra start --node-id=node-2 --port=50052 --seeds=127.0.0.1:50051`,
	Run: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	// Server flags
	startCmd.Flags().StringVarP(&address, "address", "a", node.DefaultAddress, "Address to bind the server to")
	startCmd.Flags().StringVarP(&port, "port", "p", node.DefaultPort, "Port to bind the server to")
	startCmd.Flags().StringVarP(&nodeID, "node-id", "n", node.DefaultNodeLabel, "Unique node label")

	// Gossip flags
	startCmd.Flags().StringSliceVarP(&seeds, "seeds", "s", []string{}, "Seed node addresses for gossip (comma-separated)")

	// Standalone flags: a config file brings up the full peers-db/snitch/
	// replication/management stack instead of the lightweight demo node.
	startCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a node config YAML file (enables the standalone stack)")
}

// runner is the subset of node.Node and node.Standalone runStart drives.
type runner interface {
	Start() error
	Stop() error
}

func runStart(cmd *cobra.Command, args []string) {
	// Initialize logger for non-interactive mode (write to stdout)
	logger.Init(logger.Options{WriteToStdout: true})

	var n runner
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if len(seeds) > 0 {
			cfg.Seeds = seeds
		}
		standalone, err := node.NewStandalone(cfg)
		if err != nil {
			log.Fatalf("failed to create node: %v", err)
		}
		n = standalone
	} else {
		cfg := node.DefaultConfig(nodeID)
		cfg.Address = address
		cfg.Port = port
		cfg.Seeds = seeds

		demo, err := node.New(cfg)
		if err != nil {
			log.Fatalf("failed to create node: %v", err)
		}
		n = demo
	}

	if err := n.Start(); err != nil {
		log.Fatalf("failed to start node: %v", err)
	}

	// Wait for interrupt signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if err := n.Stop(); err != nil {
		logger.Errorf("Error during shutdown: %v", err)
	}
}
