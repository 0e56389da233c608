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

package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/promslog"
	"github.com/prometheus/common/promslog/flag"
	"github.com/prometheus/common/version"

	"github.com/prometheus/snmp_trapmgr/bus"
	"github.com/prometheus/snmp_trapmgr/config"
	"github.com/prometheus/snmp_trapmgr/mapper"
	"github.com/prometheus/snmp_trapmgr/notifier"
	"github.com/prometheus/snmp_trapmgr/receiver"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// busConn is the process-wide bus connection.
type busConn interface {
	bus.Caller
	io.Closer
}

type busOptions struct {
	host    string
	address string
}

// dialFunc opens the bus connection. It is only called once the command
// line has been validated.
type dialFunc func(opts busOptions, logger *slog.Logger) (busConn, error)

func dialBus(opts busOptions, logger *slog.Logger) (busConn, error) {
	switch {
	case opts.host != "":
		return bus.NewRemoteConn(logger, opts.host)
	case opts.address != "":
		return bus.NewAddressConn(logger, opts.address)
	}
	return bus.NewSystemConn(logger)
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, dialBus))
}

func run(args []string, stdout, stderr io.Writer, dial dialFunc) int {
	app := kingpin.New("snmp_trapmgr", "SNMP trap receivers manager.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Version(version.Print("snmp_trapmgr"))
	app.HelpFlag.Short('h')

	var (
		configFile = app.Flag("config.file", "Path to an optional configuration file.").String()
		expandEnv  = app.Flag("config.expand-environment-variables", "Expand environment variables in the configuration file.").Default("false").Bool()
		host       = app.Flag("bus.host", "Operate on remote host, reached with ssh.").String()
		address    = app.Flag("bus.address", "Connect to this D-Bus address instead of the system bus.").String()
		snmpDebug  = app.Flag("snmp.debug", "Log SNMP packets at debug level.").Default("false").Bool()

		listCmd    = app.Command("list", "List configured receivers.")
		listOutput = listCmd.Flag("output", "Output format.").Short('o').Default(outputTable).Enum(outputTable, outputYAML, outputPrometheus)

		addCmd     = app.Command("add", "Add a new receiver.")
		addAddress = addCmd.Arg("address", "Receiver IPv4 address.").Required().String()
		addPort    = addCmd.Arg("port", "Receiver UDP port.").Uint16()

		dropCmd   = app.Command("drop", "Remove specified receiver.")
		dropIndex = dropCmd.Arg("index", "Receiver index in the list.").Required().Uint64()

		trapCmd   = app.Command("trap", "Send a test trap to specified receiver.")
		trapIndex = trapCmd.Arg("index", "Receiver index in the list.").Required().Uint64()
	)
	promslogConfig := &promslog.Config{}
	flag.AddFlags(app, promslogConfig)

	// kingpin exits the process after --help, --version and bare invocations;
	// record the status instead so run always returns.
	terminated, status := false, exitOK
	app.Terminate(func(code int) {
		terminated, status = true, code
	})

	command, err := app.Parse(args)
	if terminated {
		if command == "" && !asksForHelp(args) {
			fmt.Fprintf(stderr, "%s: error: command not specified, try --help\n", app.Name)
			return exitUsage
		}
		return status
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: error: %s, try --help\n", app.Name, err)
		app.Usage(usageArgs(app, args))
		return exitUsage
	}
	if command == "" {
		fmt.Fprintf(stderr, "%s: error: command not specified, try --help\n", app.Name)
		app.Usage(nil)
		return exitUsage
	}
	if command == addCmd.FullCommand() {
		if err := validateIPv4(*addAddress); err != nil {
			fmt.Fprintf(stderr, "%s: error: %s, try --help\n", app.Name, err)
			app.Usage([]string{"add"})
			return exitUsage
		}
	}

	logger := promslog.New(promslogConfig)

	cfg := config.DefaultConfig
	if *configFile != "" {
		c, err := config.LoadFile(*configFile, *expandEnv)
		if err != nil {
			logger.Error("Error loading config", "err", err)
			return exitError
		}
		cfg = *c
	}
	if *addPort == 0 {
		*addPort = cfg.SNMP.DefaultPort
	}

	if *host != "" {
		fmt.Fprintf(stderr, "Open D-Bus session on %s\n", *host)
	}
	conn, err := dial(busOptions{host: *host, address: *address}, logger)
	if err != nil {
		logger.Error("Error opening bus connection", "err", err)
		return exitError
	}
	defer conn.Close()

	resolver := mapper.NewObjectMapper(conn, cfg.Mapper, logger)
	manager := receiver.NewManager(conn, resolver, cfg.SNMP, logger)

	switch command {
	case listCmd.FullCommand():
		err = listReceivers(stdout, manager, *listOutput)
	case addCmd.FullCommand():
		err = addReceiver(stdout, manager, *addAddress, *addPort)
	case dropCmd.FullCommand():
		err = dropReceiver(stdout, manager, *dropIndex)
	case trapCmd.FullCommand():
		n := notifier.New(cfg.Trap, logger, *snmpDebug)
		err = sendTrap(stdout, manager, n, *trapIndex)
	}
	if err != nil {
		logger.Error("Command failed", "command", command, "err", err)
		return exitError
	}
	return exitOK
}

func asksForHelp(args []string) bool {
	for _, a := range args {
		switch a {
		case "-h", "--help", "--help-long", "--help-man", "--version":
			return true
		}
	}
	return false
}

// usageArgs picks the command named in args, if any, so usage is shown for
// it. Unparseable args are never handed back to kingpin.
func usageArgs(app *kingpin.Application, args []string) []string {
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		if app.GetCommand(a) != nil {
			return []string{a}
		}
		return nil
	}
	return nil
}

// validateIPv4 accepts dotted-decimal IPv4 literals only.
func validateIPv4(s string) error {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return &usageError{msg: fmt.Sprintf("address %q is not a valid IPv4 address", s)}
	}
	return nil
}

func listReceivers(w io.Writer, m *receiver.Manager, output string) error {
	receivers, err := m.List()
	if err != nil {
		return err
	}
	return writeReceivers(w, receivers, output)
}

func addReceiver(w io.Writer, m *receiver.Manager, address string, port uint16) error {
	r, err := m.Add(address, port)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Receiver #%s added: address=%s, port=%d\n", r.Index, r.Address, r.Port)
	return nil
}

func dropReceiver(w io.Writer, m *receiver.Manager, index uint64) error {
	if err := m.Drop(index); err != nil {
		return err
	}
	fmt.Fprintf(w, "SNMP trap receiver #%d removed!\n", index)
	return nil
}

func sendTrap(w io.Writer, m *receiver.Manager, n *notifier.Notifier, index uint64) error {
	r, err := m.Get(strconv.FormatUint(index, 10))
	if err != nil {
		return err
	}
	if err := n.Send(r.Address, r.Port); err != nil {
		return err
	}
	fmt.Fprintf(w, "Test trap sent to #%s %s:%d\n", r.Index, r.Address, r.Port)
	return nil
}
