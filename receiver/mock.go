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

package receiver

import (
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/prometheus/snmp_trapmgr/bus"
	"github.com/prometheus/snmp_trapmgr/config"
)

const MockService = "xyz.openbmc_project.Network.SNMP"

// NewMockBMC returns a bus.MockCaller answering like an OpenBMC host running
// the object mapper and the SNMP configuration manager.
func NewMockBMC(mapperCfg config.Mapper, cfg config.SNMP) *MockBMC {
	m := &MockBMC{
		MockCaller: bus.NewMockCaller(),
		cfg:        cfg,
		Receivers:  make(map[uint64]MockReceiver),
		next:       1,
	}
	m.Handle(mapperCfg.Service, mapperCfg.Interface, "GetObject", m.getObject)
	m.Handle(MockService, bus.ObjectManagerInterface, "GetManagedObjects", m.getManagedObjects)
	m.Handle(MockService, cfg.CreateInterface, "Client", m.client)
	m.Handle(MockService, cfg.DeleteInterface, "Delete", m.delete)
	return m
}

type MockReceiver struct {
	Address string
	Port    uint16
}

type MockBMC struct {
	*bus.MockCaller
	cfg       config.SNMP
	Receivers map[uint64]MockReceiver
	next      uint64
}

func (m *MockBMC) notFound() error {
	return dbus.NewError("xyz.openbmc_project.Common.Error.ResourceNotFound",
		[]interface{}{"The resource is not found."})
}

func (m *MockBMC) index(path string) (uint64, bool) {
	s, ok := strings.CutPrefix(path, m.cfg.ManagerPath+"/")
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	_, ok = m.Receivers[i]
	return i, ok
}

func (m *MockBMC) getObject(call bus.MockCall) ([]interface{}, error) {
	path := call.Args[0].(string)
	ifaces := call.Args[1].([]string)

	var implemented []string
	switch {
	case path == m.cfg.ManagerPath:
		implemented = []string{bus.ObjectManagerInterface, m.cfg.CreateInterface}
	default:
		if _, ok := m.index(path); !ok {
			return nil, m.notFound()
		}
		implemented = []string{m.cfg.ReceiverInterface, m.cfg.DeleteInterface}
	}
	matched := []string{}
	for _, want := range ifaces {
		for _, have := range implemented {
			if want == have {
				matched = append(matched, have)
			}
		}
	}
	if len(ifaces) > 0 && len(matched) == 0 {
		return nil, m.notFound()
	}
	return []interface{}{map[string][]string{MockService: matched}}, nil
}

func (m *MockBMC) getManagedObjects(call bus.MockCall) ([]interface{}, error) {
	objects := map[dbus.ObjectPath]map[string]map[string]dbus.Variant{}
	for i, r := range m.Receivers {
		path := dbus.ObjectPath(m.cfg.ManagerPath + "/" + strconv.FormatUint(i, 10))
		objects[path] = map[string]map[string]dbus.Variant{
			m.cfg.ReceiverInterface: {
				"Address": dbus.MakeVariant(r.Address),
				"Port":    dbus.MakeVariant(r.Port),
			},
			m.cfg.DeleteInterface: {},
		}
	}
	return []interface{}{objects}, nil
}

func (m *MockBMC) client(call bus.MockCall) ([]interface{}, error) {
	i := m.next
	m.next++
	m.Receivers[i] = MockReceiver{Address: call.Args[0].(string), Port: call.Args[1].(uint16)}
	return []interface{}{dbus.ObjectPath(m.cfg.ManagerPath + "/" + strconv.FormatUint(i, 10))}, nil
}

func (m *MockBMC) delete(call bus.MockCall) ([]interface{}, error) {
	i, ok := m.index(string(call.Path))
	if !ok {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.UnknownObject", nil)
	}
	delete(m.Receivers, i)
	return nil, nil
}
