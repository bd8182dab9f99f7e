// Package config turns the viper view of flags, environment and config file
// into a validated Config for the daemon.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/access"
	"go.klb.dev/clipbridge/internal/clip"
	"go.klb.dev/clipbridge/internal/httpapi"
	"go.klb.dev/clipbridge/internal/localpeer"
	"go.klb.dev/clipbridge/internal/remotepeer"
)

// Defaults shared by flags and validation.
const (
	DefaultListen = "0.0.0.0:5000"
	DefaultPort   = "5000"
)

// Config is the daemon configuration.
type Config struct {
	Listen       string
	Peer         string
	Allow        []string
	PollInterval time.Duration
	PushTimeout  time.Duration
	Clipboard    string
	Source       string
	MaxBodyBytes int64
	SeedOnStart  bool
	IPC          bool
	LogFormat    string
	LogLevel     string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:       DefaultListen,
		Allow:        []string{access.DefaultPrefix},
		PollInterval: localpeer.DefaultInterval,
		PushTimeout:  remotepeer.DefaultTimeout,
		Clipboard:    clip.KindSystem,
		MaxBodyBytes: httpapi.DefaultMaxBody,
		IPC:          true,
		LogFormat:    "auto",
	}
}

// FromViper reads every key from v. Keys missing from v keep their Default value.
func FromViper(v *viper.Viper) Config {
	cfg := Default()
	if v.IsSet("listen") {
		cfg.Listen = v.GetString("listen")
	}
	if v.IsSet("peer") {
		cfg.Peer = v.GetString("peer")
	}
	if v.IsSet("allow") {
		cfg.Allow = v.GetStringSlice("allow")
	}
	if v.IsSet("poll-interval") {
		cfg.PollInterval = v.GetDuration("poll-interval")
	}
	if v.IsSet("push-timeout") {
		cfg.PushTimeout = v.GetDuration("push-timeout")
	}
	if v.IsSet("clipboard") {
		cfg.Clipboard = v.GetString("clipboard")
	}
	if v.IsSet("source") {
		cfg.Source = v.GetString("source")
	}
	if v.IsSet("max-body-bytes") {
		cfg.MaxBodyBytes = v.GetInt64("max-body-bytes")
	}
	if v.IsSet("seed-on-start") {
		cfg.SeedOnStart = v.GetBool("seed-on-start")
	}
	if v.IsSet("ipc") {
		cfg.IPC = v.GetBool("ipc")
	}
	if v.IsSet("log-format") {
		cfg.LogFormat = v.GetString("log-format")
	}
	if v.IsSet("log-level") {
		cfg.LogLevel = v.GetString("log-level")
	}
	return cfg
}

// Validate checks the settings the daemon cannot run without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Peer) == "" {
		errs = append(errs, errors.New("peer address is required (--peer or CLIPBRIDGE_PEER)"))
	}
	if strings.TrimSpace(c.Listen) == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll-interval must be positive, got %s", c.PollInterval))
	}
	if c.PushTimeout <= 0 {
		errs = append(errs, fmt.Errorf("push-timeout must be positive, got %s", c.PushTimeout))
	} else if c.PollInterval > 0 && c.PushTimeout >= c.PollInterval {
		errs = append(errs, fmt.Errorf("push-timeout (%s) must be shorter than poll-interval (%s)", c.PushTimeout, c.PollInterval))
	}
	if !clip.ValidKind(c.Clipboard) {
		errs = append(errs, fmt.Errorf("clipboard must be one of %s, got %q", strings.Join(clip.Kinds, ", "), c.Clipboard))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("max-body-bytes must be positive, got %d", c.MaxBodyBytes))
	}
	return errors.Join(errs...)
}

// PeerAddr returns the peer address with the default port added when missing.
func (c Config) PeerAddr() string {
	p := strings.TrimSpace(c.Peer)
	if p == "" || strings.Contains(p, "://") {
		return p
	}
	if _, _, err := net.SplitHostPort(p); err == nil {
		return p
	}
	host := strings.TrimSuffix(strings.TrimPrefix(p, "["), "]")
	return net.JoinHostPort(host, DefaultPort)
}

// file mirrors Config with durations spelled the way viper reads them back.
type file struct {
	Listen       string   `toml:"listen"`
	Peer         string   `toml:"peer"`
	Allow        []string `toml:"allow"`
	PollInterval string   `toml:"poll-interval"`
	PushTimeout  string   `toml:"push-timeout"`
	Clipboard    string   `toml:"clipboard"`
	Source       string   `toml:"source"`
	MaxBodyBytes int64    `toml:"max-body-bytes"`
	SeedOnStart  bool     `toml:"seed-on-start"`
	IPC          bool     `toml:"ipc"`
	LogFormat    string   `toml:"log-format"`
	LogLevel     string   `toml:"log-level"`
}

// Encode writes c as TOML in the format the config file accepts.
func (c Config) Encode(w io.Writer) error {
	f := file{
		Listen:       c.Listen,
		Peer:         c.Peer,
		Allow:        c.Allow,
		PollInterval: c.PollInterval.String(),
		PushTimeout:  c.PushTimeout.String(),
		Clipboard:    c.Clipboard,
		Source:       c.Source,
		MaxBodyBytes: c.MaxBodyBytes,
		SeedOnStart:  c.SeedOnStart,
		IPC:          c.IPC,
		LogFormat:    c.LogFormat,
		LogLevel:     c.LogLevel,
	}
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
