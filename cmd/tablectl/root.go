package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/tableside-backend/internal/bootstrap"
	"github.com/angelmondragon/tableside-backend/pkg/config"
	"github.com/angelmondragon/tableside-backend/pkg/logger"
)

// rootOptions holds flags shared by every command.
type rootOptions struct {
	Verbose bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "tablectl",
		Short:         "Operate a tableside ordering deployment",
		Long:          "Seed restaurant catalogs, print table QR codes and join table sessions from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log platform activity to stderr")

	cmd.AddCommand(newSeedCommand(opts))
	cmd.AddCommand(newQRCommand(opts))
	cmd.AddCommand(newJoinCommand(opts))

	return cmd
}

func (o *rootOptions) logger(cmd *cobra.Command) *logger.Logger {
	if !o.Verbose {
		return logger.Nop()
	}
	return logger.New(logger.Options{
		ServiceName: "tablectl",
		Format:      logger.FormatConsole,
		Output:      cmd.ErrOrStderr(),
	})
}

// openPlatform loads the environment configuration and connects the store it
// names.
func (o *rootOptions) openPlatform(ctx context.Context, cmd *cobra.Command) (*config.Config, *bootstrap.Platform, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	platform, err := bootstrap.Open(ctx, cfg, o.logger(cmd))
	if err != nil {
		return nil, nil, err
	}
	return cfg, platform, nil
}
