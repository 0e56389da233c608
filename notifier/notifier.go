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

// Package notifier sends test notifications to trap receivers.
package notifier

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/prometheus/snmp_trapmgr/config"
)

const (
	sysUpTimeOID   = ".1.3.6.1.2.1.1.3.0"
	snmpTrapOIDOID = ".1.3.6.1.6.3.1.1.4.1.0"
)

// Sender delivers one trap to one destination.
type Sender interface {
	Connect() error
	SendTrap(gosnmp.SnmpTrap) (*gosnmp.SnmpPacket, error)
	Close() error
}

type GoSNMPWrapper struct {
	c      *gosnmp.GoSNMP
	logger *slog.Logger
}

func NewGoSNMP(logger *slog.Logger, params config.TrapParams, address string, port uint16, debug bool) *GoSNMPWrapper {
	g := &gosnmp.GoSNMP{
		Transport: "udp",
		Target:    address,
		Port:      port,
	}
	params.ConfigureSNMP(g)
	if debug {
		g.Logger = gosnmp.NewLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	}
	return &GoSNMPWrapper{c: g, logger: logger}
}

func (g *GoSNMPWrapper) Connect() error {
	if err := g.c.Connect(); err != nil {
		return fmt.Errorf("error connecting to receiver %s:%d: %s", g.c.Target, g.c.Port, err)
	}
	return nil
}

func (g *GoSNMPWrapper) SendTrap(trap gosnmp.SnmpTrap) (*gosnmp.SnmpPacket, error) {
	g.logger.Debug("Sending trap", "target", g.c.Target, "port", g.c.Port, "version", g.c.Version.String())
	st := time.Now()
	result, err := g.c.SendTrap(trap)
	if err != nil {
		return nil, fmt.Errorf("error sending trap to %s:%d: %s", g.c.Target, g.c.Port, err)
	}
	g.logger.Debug("Trap sent", "target", g.c.Target, "duration_seconds", time.Since(st).Seconds())
	return result, nil
}

func (g *GoSNMPWrapper) Close() error {
	if g.c.Conn == nil {
		return nil
	}
	return g.c.Conn.Close()
}

// Notifier sends test traps with the configured notification OID.
type Notifier struct {
	params    config.TrapParams
	logger    *slog.Logger
	newSender func(address string, port uint16) Sender
	start     time.Time
}

func New(params config.TrapParams, logger *slog.Logger, debug bool) *Notifier {
	return &Notifier{
		params: params,
		logger: logger,
		newSender: func(address string, port uint16) Sender {
			return NewGoSNMP(logger, params, address, port, debug)
		},
		start: time.Now(),
	}
}

// Send delivers one notification to address:port. sysUpTime.0 counts from
// the creation of n, not from host boot, so it is close to zero.
func (n *Notifier) Send(address string, port uint16) error {
	s := n.newSender(address, port)
	if err := s.Connect(); err != nil {
		return err
	}
	defer s.Close()

	// TimeTicks are hundredths of a second.
	uptime := uint32(time.Since(n.start) / (10 * time.Millisecond))
	_, err := s.SendTrap(BuildTrap(n.params.OID, uptime))
	return err
}

// BuildTrap returns an SNMPv2 notification carrying sysUpTime.0 and
// snmpTrapOID.0 = oid.
func BuildTrap(oid string, uptime uint32) gosnmp.SnmpTrap {
	return gosnmp.SnmpTrap{
		Variables: []gosnmp.SnmpPDU{
			{
				Name:  sysUpTimeOID,
				Type:  gosnmp.TimeTicks,
				Value: uptime,
			},
			{
				Name:  snmpTrapOIDOID,
				Type:  gosnmp.ObjectIdentifier,
				Value: oid,
			},
		},
	}
}
