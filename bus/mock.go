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
	"github.com/godbus/dbus/v5"
)

// MockCall records one call made through a MockCaller.
type MockCall struct {
	Service   string
	Path      dbus.ObjectPath
	Interface string
	Method    string
	Args      []interface{}
	NoReply   bool
}

// MockHandler answers a call with a reply body or an error.
type MockHandler func(call MockCall) ([]interface{}, error)

func NewMockCaller() *MockCaller {
	return &MockCaller{
		handlers: make(map[string]map[string]MockHandler),
		calls:    make([]MockCall, 0),
	}
}

// MockCaller is an in-memory Caller. Calls to services without handlers fail
// the way the bus daemon fails them.
type MockCaller struct {
	handlers map[string]map[string]MockHandler
	calls    []MockCall
	Closed   bool
}

// Handle registers h for iface.method on service, for every object path.
func (m *MockCaller) Handle(service, iface, method string, h MockHandler) {
	if m.handlers[service] == nil {
		m.handlers[service] = make(map[string]MockHandler)
	}
	m.handlers[service][iface+"."+method] = h
}

func (m *MockCaller) Calls() []MockCall {
	return m.calls
}

func (m *MockCaller) Call(service string, path dbus.ObjectPath, iface, method string, args ...interface{}) ([]interface{}, error) {
	call := MockCall{Service: service, Path: path, Interface: iface, Method: method, Args: args}
	m.calls = append(m.calls, call)
	return m.dispatch(call)
}

func (m *MockCaller) CallNoReply(service string, path dbus.ObjectPath, iface, method string, args ...interface{}) error {
	call := MockCall{Service: service, Path: path, Interface: iface, Method: method, Args: args, NoReply: true}
	m.calls = append(m.calls, call)
	_, err := m.dispatch(call)
	return err
}

func (m *MockCaller) dispatch(call MockCall) ([]interface{}, error) {
	methods, ok := m.handlers[call.Service]
	if !ok {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.ServiceUnknown",
			[]interface{}{"The name " + call.Service + " was not provided by any .service files"})
	}
	h, ok := methods[call.Interface+"."+call.Method]
	if !ok {
		return nil, dbus.NewError("org.freedesktop.DBus.Error.UnknownMethod",
			[]interface{}{"Unknown method " + call.Method + " or interface " + call.Interface + "."})
	}
	return h(call)
}

func (m *MockCaller) Close() error {
	m.Closed = true
	return nil
}
