package cmd

import (
	"context"
	"log/slog"

	"github.com/fair-squares/go-fairsquares/internal/config"
	"github.com/fair-squares/go-fairsquares/pkg/logger"
	"github.com/fair-squares/go-fairsquares/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:  "fairsquares",
	Long: `Fair Squares node: a fractional real-estate chain with an HTTP API`,
}

func init() {
	// Add global flags
	flags := rootCmd.PersistentFlags()
	flags.Duration("block-time", 0, "block production interval, E.g. `6s`")

	// Bind flags to configuration
	config.BindPFlag("chain.block_time", flags.Lookup("block-time"))

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		conf := config.LoadConfig()

		if err := logger.Init(conf.Logger); err != nil {
			logger.Panic("Failed to initialize logger", slogx.Error(err), slog.Any("config", conf.Logger))
		}
	})
}

func Execute(ctx context.Context) {
	// Register sub-commands and handlers
	rootCmd.AddCommand(
		NewVersionCommand(),
		NewRunCommand(),
		NewMigrateCommand(),
		NewGenerateAccountCommand(),
	)

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Panic("Failed to execute root command", slogx.Error(err))
	}
}
