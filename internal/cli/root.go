package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/posrelay/internal/factory"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var opts serverOptions

	rootCmd := &cobra.Command{
		Use:   "posrelay [addr]",
		Short: "Real-time position relay for multiplayer sessions",
		Long: `posrelay relays player position updates between WebSocket clients.

Clients connect to /ws, announce a player identity with a display name, and
stream position updates that are fanned out to every other connected client.
A player that reconnects under the same display name gets their last-known
state back.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Addr = defaultAddr
			if len(args) > 0 {
				opts.Addr = args[0]
			}
			return runServer(cmd.Context(), opts)
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&opts.StorageType, "storage",
		getEnvOrDefault("POSRELAY_STORAGE", factory.StorageTypeMemory),
		"State store backend: memory, redis (env: POSRELAY_STORAGE)")
	rootCmd.Flags().StringVar(&opts.RedisURL, "redis-url",
		os.Getenv("POSRELAY_REDIS_URL"),
		"Redis URL, required with --storage=redis (env: POSRELAY_REDIS_URL)")
	rootCmd.Flags().StringVar(&opts.LogLevel, "log-level",
		getEnvOrDefault("POSRELAY_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: POSRELAY_LOG_LEVEL)")

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
