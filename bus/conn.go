// Copyright 2026 The Prometheus Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bus

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/godbus/dbus/v5"
)

// Conn is a Caller backed by a godbus connection.
type Conn struct {
	c      *dbus.Conn
	logger *slog.Logger
}

// NewSystemConn connects to the local system bus.
func NewSystemConn(logger *slog.Logger) (*Conn, error) {
	c, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("error connecting to system bus: %w", err)
	}
	return &Conn{c: c, logger: logger}, nil
}

// NewAddressConn connects to the bus listening on the given D-Bus address,
// e.g. "unix:path=/run/dbus/system_bus_socket".
func NewAddressConn(logger *slog.Logger, address string) (*Conn, error) {
	c, err := dbus.Connect(address)
	if err != nil {
		return nil, fmt.Errorf("error connecting to bus %s: %w", address, err)
	}
	return &Conn{c: c, logger: logger}, nil
}

// NewRemoteConn opens the system bus of a remote host by tunnelling the bus
// protocol through ssh to systemd-stdio-bridge.
func NewRemoteConn(logger *slog.Logger, host string) (*Conn, error) {
	cmd := exec.Command("ssh", "-xT", "--", host, "systemd-stdio-bridge")
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting ssh to %s: %w", host, err)
	}
	logger.Debug("Started bus bridge", "host", host, "pid", cmd.Process.Pid)

	c, err := dbus.NewConn(&pipeConn{r: stdout, w: stdin, cmd: cmd})
	if err != nil {
		return nil, fmt.Errorf("error opening bus on %s: %w", host, err)
	}
	if err := c.Auth(nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("error authenticating on %s: %w", host, err)
	}
	if err := c.Hello(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error registering on %s: %w", host, err)
	}
	return &Conn{c: c, logger: logger}, nil
}

func (c *Conn) Call(service string, path dbus.ObjectPath, iface, method string, args ...interface{}) ([]interface{}, error) {
	c.logger.Debug("Calling method", "service", service, "path", path, "method", iface+"."+method)
	st := time.Now()
	call := c.c.Object(service, path).Call(iface+"."+method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}
	c.logger.Debug("Method call completed", "method", iface+"."+method, "duration_seconds", time.Since(st).Seconds())
	return call.Body, nil
}

func (c *Conn) CallNoReply(service string, path dbus.ObjectPath, iface, method string, args ...interface{}) error {
	c.logger.Debug("Sending method call", "service", service, "path", path, "method", iface+"."+method)
	call := c.c.Object(service, path).Call(iface+"."+method, dbus.FlagNoReplyExpected, args...)
	return call.Err
}

func (c *Conn) Close() error {
	return c.c.Close()
}

// pipeConn joins the stdio of the bridge process into one stream.
type pipeConn struct {
	r   io.ReadCloser
	w   io.WriteCloser
	cmd *exec.Cmd
}

func (p *pipeConn) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeConn) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *pipeConn) Close() error {
	werr := p.w.Close()
	rerr := p.r.Close()
	// ssh exits once its stdin is closed.
	if err := p.cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return err
		}
	}
	if werr != nil {
		return werr
	}
	return rerr
}
