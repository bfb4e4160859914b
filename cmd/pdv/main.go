package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pdv/internal/cli"
	"pdv/internal/config"
)

type rootFlags struct {
	envFiles []string
	port     string
}

// loadConfig reads the env files, then the environment, then the flags.
func (f *rootFlags) loadConfig() (*config.Config, error) {
	if err := cli.LoadEnvFile(f.envFiles...); err != nil {
		return nil, err
	}
	return cli.LoadAndValidateConfig(func(c *config.Config) {
		if f.port != "" {
			c.Port = f.port
		}
	})
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:           "pdv",
		Short:         "point of sale recorder for a market stand",
		Long:          `pdv serves the sale ledger, daily and weekly summaries and the note pad of a market stand.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), &flags)
		},
	}
	cmd.PersistentFlags().StringSliceVar(&flags.envFiles, "env-file", nil, "env files to load (default .env)")
	cmd.PersistentFlags().StringVarP(&flags.port, "port", "p", "", "listen port, overrides PORT")
	cmd.AddCommand(newConfigCmd(&flags))
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "pdv:", err)
		os.Exit(1)
	}
}
