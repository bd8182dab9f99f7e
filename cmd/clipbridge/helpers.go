package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/config"
	"go.klb.dev/clipbridge/internal/ipc"
	"go.klb.dev/clipbridge/internal/remotepeer"
)

// cliTimeout bounds every request a CLI command makes.
const cliTimeout = 5 * time.Second

var (
	getenv   = os.Getenv
	hostname = os.Hostname
)

func isContainerID(s string) bool {
	if len(s) < 12 || len(s) > 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// defaultSource returns a human-readable identifier for this host.
func defaultSource() string {
	for _, env := range []string{
		"CLIPBRIDGE_SOURCE",
		"CONTAINER_NAME",
		"COMPOSE_SERVICE",
		"SERVICE_NAME",
		"HOSTNAME_FRIENDLY",
	} {
		if v := getenv(env); v != "" {
			return v
		}
	}
	h, err := hostname()
	if err != nil {
		return "unknown"
	}
	if isContainerID(h) {
		return "container-" + h[:8]
	}
	return h
}

// addClientFlags adds the flags shared by copy, paste and status.
func addClientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("server", "localhost:"+config.DefaultPort, "clipbridge daemon address (used when no local daemon is running)")
	f.String("source", defaultSource(), "source identifier")
	addConfigFlag(cmd)
}

// endpoint is the daemon a CLI command talks to.
type endpoint struct {
	client *remotepeer.Client
	desc   string // transport, for display
	ipc    bool
}

// daemonClient returns the local daemon over the IPC socket when one is
// listening and --server was not given, the --server address otherwise.
func daemonClient(cmd *cobra.Command, v *viper.Viper) (endpoint, error) {
	opts := []remotepeer.Option{
		remotepeer.WithSource(v.GetString("source")),
		remotepeer.WithTimeout(cliTimeout),
	}

	if !cmd.Flags().Changed("server") && ipc.IsRunning() {
		opts = append(opts, remotepeer.WithHTTPClient(ipc.HTTPClient()))
		c, err := remotepeer.New(ipc.BaseURL, opts...)
		if err != nil {
			return endpoint{}, err
		}
		return endpoint{client: c, desc: fmt.Sprintf("ipc (%s)", ipc.SocketPath()), ipc: true}, nil
	}

	c, err := remotepeer.New(v.GetString("server"), opts...)
	if err != nil {
		return endpoint{}, err
	}
	return endpoint{client: c, desc: fmt.Sprintf("http (%s)", c.Addr())}, nil
}
