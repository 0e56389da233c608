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
	"github.com/gosnmp/gosnmp"
)

func NewMockSender() *mockSender {
	return &mockSender{
		traps: make([]gosnmp.SnmpTrap, 0),
	}
}

type mockSender struct {
	ConnectError error
	SendError    error

	traps  []gosnmp.SnmpTrap
	closed bool
}

func (m *mockSender) Traps() []gosnmp.SnmpTrap {
	return m.traps
}

func (m *mockSender) Connect() error {
	return m.ConnectError
}

func (m *mockSender) SendTrap(trap gosnmp.SnmpTrap) (*gosnmp.SnmpPacket, error) {
	if m.SendError != nil {
		return nil, m.SendError
	}
	m.traps = append(m.traps, trap)
	return nil, nil
}

func (m *mockSender) Close() error {
	m.closed = true
	return nil
}
