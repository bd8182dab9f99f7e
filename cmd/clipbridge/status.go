package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon's sync state",
		Long: `Displays the daemon's current clipboard text, where it came from and the
push counters.

If a local daemon is running, the request is sent via the IPC Unix socket.
Pass --server to target a specific daemon directly over HTTP.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd, v) },
	}

	addClientFlags(cmd)
	cmd.Flags().Bool("json", false, "output raw JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	ep, err := daemonClient(cmd, v)
	if err != nil {
		return err
	}
	st, err := ep.client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return printStatus(out, st, ep.desc, time.Now())
}

func printStatus(out io.Writer, st message.StatusResponse, transport string, now time.Time) error {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)

	origin := st.Origin
	if origin == "" {
		origin = "-"
	}
	preview := st.Preview
	if preview == "" {
		preview = "-"
	}

	fmt.Fprintf(w, "Version:\t%s\n", st.Version)
	fmt.Fprintf(w, "Source:\t%s\n", st.Source)
	fmt.Fprintf(w, "Transport:\t%s\n", transport)
	fmt.Fprintf(w, "Peer:\t%s\n", st.Peer)
	fmt.Fprintf(w, "Backend:\t%s\n", st.Backend)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Origin:\t%s\n", origin)
	fmt.Fprintf(w, "Updated:\t%s\n", fmtAge(st.UpdatedAt, now))
	fmt.Fprintf(w, "Length:\t%d\n", st.Length)
	fmt.Fprintf(w, "Preview:\t%q\n", preview)
	fmt.Fprintf(w, "Echo pending:\t%t\n", st.FromPeer)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Received:\t%d\n", st.Received)
	fmt.Fprintf(w, "Pushed:\t%d\n", st.Pushed)
	fmt.Fprintf(w, "Push failed:\t%d\n", st.PushFailed)
	fmt.Fprintf(w, "Echoes:\t%d\n", st.Echoes)
	return w.Flush()
}

func fmtAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	age := now.Sub(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	return t.Local().Format("15:04:05")
}
