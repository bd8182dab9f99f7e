package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/config"
)

func newConfigCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective daemon configuration as TOML",
		Long: `Resolves defaults, config file, CLIPBRIDGE_* env vars and flags the same way
"clipbridge serve" does and prints the result. The output is a valid config
file:

  clipbridge config --peer 192.168.137.2 > ~/.config/clipbridge/clipbridge.toml`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromViper(v)
			if cfg.Source == "" {
				cfg.Source = defaultSource()
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}

	addDaemonFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}
