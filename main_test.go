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
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/snmp_trapmgr/bus"
	"github.com/prometheus/snmp_trapmgr/config"
	"github.com/prometheus/snmp_trapmgr/receiver"
)

type testDialer struct {
	conn  busConn
	err   error
	dials int
	opts  busOptions
}

func (d *testDialer) dial(opts busOptions, _ *slog.Logger) (busConn, error) {
	d.dials++
	d.opts = opts
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func runCmd(t *testing.T, d *testDialer, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr, d.dial)
	return code, stdout.String(), stderr.String()
}

func TestListEmpty(t *testing.T) {
	bmc := receiver.NewMockBMC(config.DefaultMapper, config.DefaultSNMP)
	d := &testDialer{conn: bmc}

	code, out, _ := runCmd(t, d, "list")
	require.Equal(t, exitOK, code)
	require.Equal(t, "List configured SNMP trap receivers\n     (empty)\n", out)
	require.True(t, bmc.Closed)
}

func TestAddListDropRoundTrip(t *testing.T) {
	bmc := receiver.NewMockBMC(config.DefaultMapper, config.DefaultSNMP)
	d := &testDialer{conn: bmc}

	code, out, _ := runCmd(t, d, "add", "192.168.0.10")
	require.Equal(t, exitOK, code)
	require.Equal(t, "Receiver #1 added: address=192.168.0.10, port=162\n", out)

	code, out, _ = runCmd(t, d, "add", "10.0.0.5", "1620")
	require.Equal(t, exitOK, code)
	require.Equal(t, "Receiver #2 added: address=10.0.0.5, port=1620\n", out)

	code, out, _ = runCmd(t, d, "list")
	require.Equal(t, exitOK, code)
	require.Equal(t, "List configured SNMP trap receivers\n"+
		fmt.Sprintf("%5s %15s %d\n", "1", "192.168.0.10", 162)+
		fmt.Sprintf("%5s %15s %d\n", "2", "10.0.0.5", 1620), out)

	code, out, _ = runCmd(t, d, "drop", "2")
	require.Equal(t, exitOK, code)
	require.Equal(t, "SNMP trap receiver #2 removed!\n", out)

	code, out, _ = runCmd(t, d, "list")
	require.Equal(t, exitOK, code)
	require.Equal(t, "List configured SNMP trap receivers\n"+
		fmt.Sprintf("%5s %15s %d\n", "1", "192.168.0.10", 162), out)
	require.Equal(t, map[uint64]receiver.MockReceiver{1: {Address: "192.168.0.10", Port: 162}}, bmc.Receivers)
}

func TestInvalidInputMakesNoCalls(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{name: "no command", args: []string{}},
		{name: "unknown command", args: []string{"purge"}},
		{name: "address out of range", args: []string{"add", "999.999.999.999"}},
		{name: "IPv6 address", args: []string{"add", "fe80::1"}},
		{name: "hostname", args: []string{"add", "trap.example.com"}},
		{name: "missing address", args: []string{"add"}},
		{name: "port out of range", args: []string{"add", "10.0.0.5", "65536"}},
		{name: "negative index", args: []string{"drop", "-1"}},
		{name: "non-numeric index", args: []string{"drop", "first"}},
		{name: "missing index", args: []string{"drop"}},
		{name: "unknown output", args: []string{"list", "--output=json"}},
	}

	for _, c := range cases {
		tt := c
		t.Run(tt.name, func(t *testing.T) {
			mock := bus.NewMockCaller()
			d := &testDialer{conn: mock}

			code, out, errOut := runCmd(t, d, tt.args...)
			require.Equal(t, exitUsage, code)
			require.Empty(t, out)
			require.Contains(t, errOut, "snmp_trapmgr: error:")
			require.Contains(t, errOut, "usage: snmp_trapmgr")
			require.Equal(t, 0, d.dials)
			require.Empty(t, mock.Calls())
		})
	}
}

func TestHelpAndVersion(t *testing.T) {
	cases := [][]string{
		{"--help"},
		{"-h"},
		{"--version"},
		{"list", "--help"},
		{"drop", "--help"},
	}

	for _, args := range cases {
		args := args
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			mock := bus.NewMockCaller()
			d := &testDialer{conn: mock}

			code, out, _ := runCmd(t, d, args...)
			require.Equal(t, exitOK, code)
			require.Empty(t, out)
			require.Equal(t, 0, d.dials)
			require.Empty(t, mock.Calls())
		})
	}
}

func TestUsageArgs(t *testing.T) {
	app := kingpin.New("snmp_trapmgr", "")
	app.Command("drop", "")
	app.Command("list", "")

	require.Equal(t, []string{"drop"}, usageArgs(app, []string{"drop", "-1"}))
	require.Equal(t, []string{"list"}, usageArgs(app, []string{"--bus.host=bmc", "list", "--output=json"}))
	require.Nil(t, usageArgs(app, []string{"purge"}))
	require.Nil(t, usageArgs(app, nil))
}

func TestDropUnknownIndex(t *testing.T) {
	bmc := receiver.NewMockBMC(config.DefaultMapper, config.DefaultSNMP)
	d := &testDialer{conn: bmc}

	code, out, _ := runCmd(t, d, "drop", "42")
	require.Equal(t, exitError, code)
	require.Empty(t, out)
	for _, call := range bmc.Calls() {
		require.NotEqual(t, "Delete", call.Method)
	}
}

func TestMapperMissing(t *testing.T) {
	d := &testDialer{conn: bus.NewMockCaller()}

	code, out, _ := runCmd(t, d, "list")
	require.Equal(t, exitError, code)
	require.Empty(t, out)
}

func TestDialError(t *testing.T) {
	d := &testDialer{err: errors.New("no such file or directory")}

	code, _, errOut := runCmd(t, d, "--bus.host=bmc.example.com", "list")
	require.Equal(t, exitError, code)
	require.Equal(t, 1, d.dials)
	require.Equal(t, busOptions{host: "bmc.example.com"}, d.opts)
	require.Contains(t, errOut, "Open D-Bus session on bmc.example.com")
}

func TestConfigFileDefaultPort(t *testing.T) {
	bmc := receiver.NewMockBMC(config.DefaultMapper, config.DefaultSNMP)
	d := &testDialer{conn: bmc}

	code, out, _ := runCmd(t, d, "--config.file=testdata/trapmgr.yml", "add", "10.0.0.5")
	require.Equal(t, exitOK, code)
	require.Equal(t, "Receiver #1 added: address=10.0.0.5, port=1162\n", out)

	code, _, _ = runCmd(t, d, "--config.file=testdata/missing.yml", "list")
	require.Equal(t, exitError, code)
}

func TestListOutputFormats(t *testing.T) {
	bmc := receiver.NewMockBMC(config.DefaultMapper, config.DefaultSNMP)
	bmc.Receivers[1] = receiver.MockReceiver{Address: "10.0.0.5", Port: 1620}
	d := &testDialer{conn: bmc}

	code, out, _ := runCmd(t, d, "list", "--output=yaml")
	require.Equal(t, exitOK, code)
	require.Equal(t, `- index: "1"
  path: /xyz/openbmc_project/network/snmp/manager/1
  address: 10.0.0.5
  port: 1620
`, out)

	code, out, _ = runCmd(t, d, "list", "-o", "prometheus")
	require.Equal(t, exitOK, code)
	require.Contains(t, out, "# TYPE snmp_trap_receiver_info gauge\n")
	require.Contains(t, out, `snmp_trap_receiver_info{address="10.0.0.5",index="1",port="1620"} 1`+"\n")
	require.Contains(t, out, "snmp_trap_receivers 1\n")
}

func TestWriteMetricsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMetrics(&buf, []receiver.Receiver{}))
	require.Contains(t, buf.String(), "snmp_trap_receivers 0\n")
	require.False(t, strings.Contains(buf.String(), "snmp_trap_receiver_info{"))
}

func TestTrapUnknownIndex(t *testing.T) {
	bmc := receiver.NewMockBMC(config.DefaultMapper, config.DefaultSNMP)
	d := &testDialer{conn: bmc}

	code, out, _ := runCmd(t, d, "trap", "3")
	require.Equal(t, exitError, code)
	require.Empty(t, out)
}
