package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCopyCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy stdin to the clipbridge clipboard (like pbcopy)",
		Long: `Reads stdin and places it on the clipboard of the local daemon via the IPC
socket. The daemon treats it as a local copy and pushes it to its peer.

If no local daemon is running, or --server is given, the text is sent to
that daemon over HTTP the way its peer would send it: it lands on that
daemon's clipboard and is not forwarded further.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runCopy(cmd, v) },
	}

	addClientFlags(cmd)
	return cmd
}

func runCopy(cmd *cobra.Command, v *viper.Viper) error {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	ep, err := daemonClient(cmd, v)
	if err != nil {
		return err
	}
	// Only the IPC socket accepts a local copy. A daemon reached over the
	// network takes the text the way it takes a push from its peer.
	if ep.ipc {
		err = ep.client.Copy(cmd.Context(), string(data))
	} else {
		err = ep.client.Push(cmd.Context(), string(data))
	}
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
