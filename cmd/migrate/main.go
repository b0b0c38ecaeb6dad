// migrate manages the postgres session store schema from the embedded SQL files.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rederly/client/internal/config"
	"rederly/client/internal/db/migrate"
	"rederly/client/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back the session store schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(directionCmd(migrate.Up, "Apply all pending migrations"))
	root.AddCommand(directionCmd(migrate.Down, "Roll back every applied migration"))
	return root
}

func directionCmd(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger := logging.New(cfg.LogLevel, cfg.LogFormat)
			err = migrate.Run(cfg.DatabaseURL, direction, logger)
			if errors.Is(err, migrate.ErrNoChange) {
				fmt.Fprintln(cmd.OutOrStdout(), "schema already up to date")
				return nil
			}
			return err
		},
	}
}
