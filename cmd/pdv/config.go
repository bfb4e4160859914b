package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "validate and print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "port:                     %s\n", cfg.Port)
			fmt.Fprintf(w, "store_name:               %s\n", cfg.StoreName)
			fmt.Fprintf(w, "products:                 %s\n", strings.Join(cfg.Products, ", "))
			fmt.Fprintf(w, "timezone:                 %s\n", cfg.Timezone)
			fmt.Fprintf(w, "ledger_backend:           %s\n", cfg.LedgerBackend)
			fmt.Fprintf(w, "session_ttl:              %s\n", cfg.SessionTTL)
			fmt.Fprintf(w, "session_max:              %d\n", cfg.SessionMax)
			fmt.Fprintf(w, "session_cleanup_interval: %s\n", cfg.SessionCleanupInterval)
			fmt.Fprintf(w, "rate_limit_per_minute:    %d\n", cfg.RateLimitPerMinute)
			fmt.Fprintf(w, "log_level:                %s\n", cfg.LogLevel)
			fmt.Fprintf(w, "log_format:               %s\n", cfg.LogFormat)
			return nil
		},
	}
}
