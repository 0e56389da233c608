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
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/prometheus/snmp_trapmgr/bus"
	"github.com/prometheus/snmp_trapmgr/config"
	"github.com/prometheus/snmp_trapmgr/mapper"
)

var (
	// ErrServiceNotFound means the mapper knows no service for the
	// requested object.
	ErrServiceNotFound = errors.New("SNMP config manager service not found")
	ErrMalformedData   = errors.New("malformed receiver data")
)

// MalformedDataError reports a receiver object whose properties do not match
// the published interface.
type MalformedDataError struct {
	Path     dbus.ObjectPath
	Property string
	// Value is the offending value, nil when the property is missing.
	Value *bus.Value
	Err   error
}

func (e *MalformedDataError) Error() string {
	msg := fmt.Sprintf("%s: receiver %s property %q: %s", ErrMalformedData, e.Path, e.Property, e.Err)
	if e.Value != nil {
		msg += fmt.Sprintf(" (value %q)", e.Value.String())
	}
	return msg
}

func (e *MalformedDataError) Unwrap() error { return e.Err }

func (e *MalformedDataError) Is(target error) bool { return target == ErrMalformedData }

// Receiver is one configured SNMP trap destination.
type Receiver struct {
	Index   string          `yaml:"index"`
	Path    dbus.ObjectPath `yaml:"path"`
	Address string          `yaml:"address"`
	Port    uint16          `yaml:"port"`
}

type Manager struct {
	caller   bus.Caller
	resolver mapper.Resolver
	cfg      config.SNMP
	logger   *slog.Logger
}

func NewManager(caller bus.Caller, resolver mapper.Resolver, cfg config.SNMP, logger *slog.Logger) *Manager {
	return &Manager{caller: caller, resolver: resolver, cfg: cfg, logger: logger}
}

func (m *Manager) managerService() (string, error) {
	service, err := mapper.GetService(m.resolver, m.cfg.ManagerPath, m.cfg.CreateInterface)
	if err != nil {
		return "", err
	}
	if service == "" {
		return "", ErrServiceNotFound
	}
	return service, nil
}

// List returns every configured receiver ordered by index.
func (m *Manager) List() ([]Receiver, error) {
	service, err := m.managerService()
	if err != nil {
		return nil, err
	}
	objects, err := bus.GetManagedObjects(m.caller, service, dbus.ObjectPath(m.cfg.ManagerPath))
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Enumerated managed objects", "service", service, "objects", len(objects))
	return FromObjects(objects, m.cfg.ManagerPath, m.cfg.ReceiverInterface)
}

// Get returns the receiver with the given index.
func (m *Manager) Get(index string) (Receiver, error) {
	receivers, err := m.List()
	if err != nil {
		return Receiver{}, err
	}
	for _, r := range receivers {
		if r.Index == index {
			return r, nil
		}
	}
	return Receiver{}, fmt.Errorf("receiver #%s: %w", index, ErrServiceNotFound)
}

// Add creates a receiver and returns it as the manager reported it.
func (m *Manager) Add(address string, port uint16) (Receiver, error) {
	service, err := m.managerService()
	if err != nil {
		return Receiver{}, err
	}
	body, err := m.caller.Call(service, dbus.ObjectPath(m.cfg.ManagerPath), m.cfg.CreateInterface, "Client", address, port)
	if err != nil {
		return Receiver{}, fmt.Errorf("error adding receiver %s:%d: %w", address, port, err)
	}
	var path dbus.ObjectPath
	if err := dbus.Store(body, &path); err != nil {
		return Receiver{}, fmt.Errorf("error adding receiver %s:%d, unexpected reply: %w", address, port, err)
	}
	m.logger.Debug("Receiver created", "path", path)
	return Receiver{
		Index:   indexOf(path, m.cfg.ManagerPath),
		Path:    path,
		Address: address,
		Port:    port,
	}, nil
}

// Drop deletes the receiver with the given index. The delete request is
// sent without waiting for a reply.
func (m *Manager) Drop(index uint64) error {
	path := m.cfg.ManagerPath + "/" + strconv.FormatUint(index, 10)
	service, err := mapper.GetService(m.resolver, path, m.cfg.ReceiverInterface)
	if err != nil {
		return err
	}
	if service == "" {
		return fmt.Errorf("receiver #%d: %w", index, ErrServiceNotFound)
	}
	if err := m.caller.CallNoReply(service, dbus.ObjectPath(path), m.cfg.DeleteInterface, "Delete"); err != nil {
		return fmt.Errorf("error removing receiver #%d: %w", index, err)
	}
	return nil
}

// FromObjects extracts the receivers from a managed object tree. Objects
// without iface are ignored; an object with iface but without a string
// Address or uint16 Port fails the whole extraction.
func FromObjects(objects bus.ManagedObjects, managerPath, iface string) ([]Receiver, error) {
	receivers := []Receiver{}
	for path, ifaces := range objects {
		props, ok := ifaces[iface]
		if !ok {
			continue
		}
		r, err := fromProperties(path, props)
		if err != nil {
			return nil, err
		}
		r.Index = indexOf(path, managerPath)
		receivers = append(receivers, r)
	}
	sort.Slice(receivers, func(i, j int) bool {
		return lessIndex(receivers[i].Index, receivers[j].Index)
	})
	return receivers, nil
}

func fromProperties(path dbus.ObjectPath, props bus.Properties) (Receiver, error) {
	r := Receiver{Path: path}
	v, ok := props["Address"]
	if !ok {
		return r, &MalformedDataError{Path: path, Property: "Address", Err: errors.New("missing")}
	}
	addr, err := v.AsString()
	if err != nil {
		return r, &MalformedDataError{Path: path, Property: "Address", Value: &v, Err: err}
	}
	v, ok = props["Port"]
	if !ok {
		return r, &MalformedDataError{Path: path, Property: "Port", Err: errors.New("missing")}
	}
	port, err := v.AsUint16()
	if err != nil {
		return r, &MalformedDataError{Path: path, Property: "Port", Value: &v, Err: err}
	}
	r.Address = addr
	r.Port = port
	return r, nil
}

func indexOf(path dbus.ObjectPath, managerPath string) string {
	return strings.TrimPrefix(string(path), managerPath+"/")
}

// Numeric indices sort numerically, everything else after them by name.
func lessIndex(a, b string) bool {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	}
	return a < b
}
