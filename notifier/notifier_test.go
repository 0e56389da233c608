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

package notifier

import (
	"errors"
	"testing"

	"github.com/gosnmp/gosnmp"
	"github.com/prometheus/common/promslog"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/snmp_trapmgr/config"
)

func TestBuildTrap(t *testing.T) {
	trap := BuildTrap(".1.3.6.1.6.3.1.1.5.1", 4200)
	require.Len(t, trap.Variables, 2)
	require.Equal(t, gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.1.3.0", Type: gosnmp.TimeTicks, Value: uint32(4200)}, trap.Variables[0])
	require.Equal(t, gosnmp.SnmpPDU{Name: ".1.3.6.1.6.3.1.1.4.1.0", Type: gosnmp.ObjectIdentifier, Value: ".1.3.6.1.6.3.1.1.5.1"}, trap.Variables[1])
}

func TestSend(t *testing.T) {
	cases := []struct {
		name       string
		connectErr error
		sendErr    error
		wantErr    string
		sent       int
	}{
		{
			name: "delivered",
			sent: 1,
		},
		{
			name:       "connect fails",
			connectErr: errors.New("error connecting to receiver 10.0.0.5:1620: no route"),
			wantErr:    "no route",
		},
		{
			name:    "send fails",
			sendErr: errors.New("error sending trap to 10.0.0.5:1620: refused"),
			wantErr: "refused",
		},
	}

	for _, c := range cases {
		tt := c
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockSender()
			mock.ConnectError = tt.connectErr
			mock.SendError = tt.sendErr

			var gotAddress string
			var gotPort uint16
			n := New(config.DefaultTrapParams, promslog.NewNopLogger(), false)
			n.newSender = func(address string, port uint16) Sender {
				gotAddress, gotPort = address, port
				return mock
			}

			err := n.Send("10.0.0.5", 1620)
			require.Equal(t, "10.0.0.5", gotAddress)
			require.Equal(t, uint16(1620), gotPort)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, mock.Traps(), tt.sent)
			if tt.sent > 0 {
				require.Equal(t, config.DefaultTrapParams.OID, mock.Traps()[0].Variables[1].Value)
			}
			// Close only follows a successful Connect.
			require.Equal(t, tt.connectErr == nil, mock.closed)
		})
	}
}

func TestNewGoSNMP(t *testing.T) {
	g := NewGoSNMP(promslog.NewNopLogger(), config.DefaultTrapParams, "10.0.0.5", 1620, false)
	require.Equal(t, "10.0.0.5", g.c.Target)
	require.Equal(t, uint16(1620), g.c.Port)
	require.Equal(t, "udp", g.c.Transport)
	require.Equal(t, gosnmp.Version2c, g.c.Version)
	require.Equal(t, "public", g.c.Community)
	require.NoError(t, g.Close())
}
