package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPBRIDGE_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPBRIDGE_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipbridge")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipbridge/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "clipbridge"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addDaemonFlags adds every key config.Config reads. Defaults mirror
// config.Default so --help shows the effective values.
func addDaemonFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.String("listen", d.Listen, "HTTP listen address")
	f.String("peer", "", "peer address, host[:port] or URL (port defaults to "+config.DefaultPort+")")
	f.StringSlice("allow", d.Allow, "caller address prefixes allowed to use the API (empty = everyone)")
	f.Duration("poll-interval", d.PollInterval, "local clipboard sampling interval")
	f.Duration("push-timeout", d.PushTimeout, "timeout for each push to the peer")
	f.String("clipboard", d.Clipboard, "clipboard backend: "+strings.Join(clip.Kinds, "|"))
	f.String("source", defaultSource(), "name for this host in requests to the peer")
	f.Int64("max-body-bytes", d.MaxBodyBytes, "largest accepted POST /clipboard body")
	f.Bool("seed-on-start", d.SeedOnStart, "treat the clipboard contents at start as already sent")
	f.Bool("ipc", d.IPC, "serve the API on the local IPC socket for copy/paste/status")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	resolveLogging(interactive, v.GetString("log-format"), v.GetString("log-level"))
}
