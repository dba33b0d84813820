package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/imrishuroy/widget-consumer/internal/config"
	"github.com/imrishuroy/widget-consumer/internal/logger"
)

// rootCmd drains widget requests until the source stays empty.
var rootCmd = &cobra.Command{
	Use:   "widget-consumer",
	Short: "Apply queued widget requests to the record store",
	Long: `widget-consumer polls a request bucket or an SQS queue, applies every
create, update and delete request to the widget record store and index, and
exits after the configured number of consecutive empty polls.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConsumer,
}

func init() {
	config.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().String("config-dir", ".", "directory holding the .env file")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l, logErr := logger.New(&logger.Config{Level: "info", Format: "console"})
		if logErr != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		l.Error("consumer failed", zap.Error(err))
		_ = l.Sync()
		os.Exit(1)
	}
}
