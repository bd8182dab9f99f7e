package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/remotepeer"
)

func newPasteCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the clipbridge clipboard to stdout (like pbpaste)",
		Long: `Retrieves the daemon's current clipboard text and writes it to stdout.

With --remote the configured peer is asked instead of the local daemon:

  clipbridge paste --remote --peer 192.168.137.2`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runPaste(cmd, v) },
	}

	addClientFlags(cmd)
	f := cmd.Flags()
	f.Bool("remote", false, "read the peer's clipboard instead of the local daemon's")
	f.String("peer", "", "peer address for --remote (defaults to the configured peer)")

	return cmd
}

func runPaste(cmd *cobra.Command, v *viper.Viper) error {
	var (
		client *remotepeer.Client
		err    error
	)
	if v.GetBool("remote") {
		cfg := config.FromViper(v)
		if cfg.PeerAddr() == "" {
			return errors.New("paste --remote: no peer configured (--peer or CLIPBRIDGE_PEER)")
		}
		client, err = remotepeer.New(cfg.PeerAddr(),
			remotepeer.WithSource(v.GetString("source")),
			remotepeer.WithTimeout(cliTimeout),
		)
	} else {
		var ep endpoint
		ep, err = daemonClient(cmd, v)
		client = ep.client
	}
	if err != nil {
		return err
	}

	text, err := client.Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), text)
	return err
}
