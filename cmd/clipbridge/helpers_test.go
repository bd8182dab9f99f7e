package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"go.klb.dev/clipbridge/internal/message"
)

func TestIsContainerID(t *testing.T) {
	c := qt.New(t)

	c.Assert(isContainerID("3f4e9a1b2c7d"), qt.IsTrue)
	c.Assert(isContainerID("3f4e9a1b2c7"), qt.IsFalse)
	c.Assert(isContainerID("desk-workstation"), qt.IsFalse)
	c.Assert(isContainerID(strings.Repeat("a", 65)), qt.IsFalse)
}

func TestDefaultSource(t *testing.T) {
	c := qt.New(t)

	env := map[string]string{}
	c.Patch(&getenv, func(k string) string { return env[k] })
	host, hostErr := "desk", error(nil)
	c.Patch(&hostname, func() (string, error) { return host, hostErr })

	c.Assert(defaultSource(), qt.Equals, "desk")

	host = "3f4e9a1b2c7d5e6f"
	c.Assert(defaultSource(), qt.Equals, "container-3f4e9a1b")

	env["COMPOSE_SERVICE"] = "web"
	c.Assert(defaultSource(), qt.Equals, "web")

	env["CLIPBRIDGE_SOURCE"] = "laptop"
	c.Assert(defaultSource(), qt.Equals, "laptop")

	delete(env, "CLIPBRIDGE_SOURCE")
	delete(env, "COMPOSE_SERVICE")
	hostErr = errors.New("no hostname")
	c.Assert(defaultSource(), qt.Equals, "unknown")
}

func TestPrintStatus(t *testing.T) {
	c := qt.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	err := printStatus(&buf, message.StatusResponse{
		Version:   "1.2.3",
		Source:    "desk",
		Peer:      "http://192.168.137.2:5000",
		Backend:   "system",
		Origin:    "peer",
		Length:    5,
		Preview:   "hello",
		FromPeer:  true,
		UpdatedAt: now.Add(-7 * time.Second),
		Received:  3,
		Pushed:    2,
		Echoes:    1,
	}, "ipc (/run/user/1000/clipbridge.sock)", now)
	c.Assert(err, qt.IsNil)

	out := buf.String()
	for _, want := range []string{
		"Version:", "1.2.3",
		"ipc (/run/user/1000/clipbridge.sock)",
		"Origin:", "peer",
		"7s ago",
		`"hello"`,
		"Echo pending:", "true",
		"Received:", "3",
	} {
		c.Assert(out, qt.Contains, want)
	}
}

func TestPrintStatusEmpty(t *testing.T) {
	c := qt.New(t)

	var buf bytes.Buffer
	c.Assert(printStatus(&buf, message.StatusResponse{}, "http (http://localhost:5000)", time.Now()), qt.IsNil)
	c.Assert(buf.String(), qt.Matches, `(?s).*Updated:\s+-\n.*`)
}

func TestFmtAge(t *testing.T) {
	c := qt.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Assert(fmtAge(time.Time{}, now), qt.Equals, "-")
	c.Assert(fmtAge(now.Add(-42*time.Second), now), qt.Equals, "42s ago")
	c.Assert(fmtAge(now.Add(-5*time.Minute), now), qt.Equals, "5m ago")
}
