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

// Package mapper resolves which bus services implement an interface at an
// object path by asking the object mapper.
package mapper

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/godbus/dbus/v5"

	"github.com/prometheus/snmp_trapmgr/bus"
	"github.com/prometheus/snmp_trapmgr/config"
)

// ErrMapperNotFound means the object mapper itself is not on the bus, which
// almost always means the tool runs on the wrong host.
var ErrMapperNotFound = errors.New("object mapper service not found, are you running this tool on OpenBMC?")

// Error names the mapper answers with when it has nothing for a path.
var notFoundErrors = map[string]bool{
	"org.freedesktop.DBus.Error.FileNotFound":           true,
	"xyz.openbmc_project.Common.Error.ResourceNotFound": true,
}

// Error names the bus daemon answers with when the mapper is absent.
var absentErrors = map[string]bool{
	"org.freedesktop.DBus.Error.ServiceUnknown":   true,
	"org.freedesktop.DBus.Error.NameHasNoOwner":   true,
	"org.freedesktop.DBus.Error.UnknownObject":    true,
	"org.freedesktop.DBus.Error.UnknownInterface": true,
	"org.freedesktop.DBus.Error.UnknownMethod":    true,
}

// Services maps a service name to the interfaces it implements at the
// queried path.
type Services map[string][]string

// First returns the lowest-ordered service name, or "" if there is none.
func (s Services) First() string {
	if len(s) == 0 {
		return ""
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0]
}

type Resolver interface {
	// GetObject returns the services implementing any of ifaces at path.
	// An empty result is not an error.
	GetObject(path string, ifaces []string) (Services, error)
}

type ObjectMapper struct {
	caller bus.Caller
	cfg    config.Mapper
	logger *slog.Logger
}

func NewObjectMapper(caller bus.Caller, cfg config.Mapper, logger *slog.Logger) *ObjectMapper {
	return &ObjectMapper{caller: caller, cfg: cfg, logger: logger}
}

func (m *ObjectMapper) GetObject(path string, ifaces []string) (Services, error) {
	if ifaces == nil {
		ifaces = []string{}
	}
	body, err := m.caller.Call(m.cfg.Service, dbus.ObjectPath(m.cfg.Path), m.cfg.Interface, "GetObject", path, ifaces)
	if err != nil {
		name, _ := bus.ErrorName(err)
		switch {
		case notFoundErrors[name]:
			m.logger.Debug("No service found", "path", path, "interfaces", ifaces)
			return Services{}, nil
		case absentErrors[name]:
			return nil, fmt.Errorf("%w (%s)", ErrMapperNotFound, err)
		default:
			return nil, fmt.Errorf("GetObject failed for %s: %w", path, err)
		}
	}

	services := Services{}
	if err := dbus.Store(body, (*map[string][]string)(&services)); err != nil {
		return nil, fmt.Errorf("GetObject failed for %s, unexpected reply: %w", path, err)
	}
	m.logger.Debug("Resolved services", "path", path, "interfaces", ifaces, "services", services)
	return services, nil
}

// GetService returns the service implementing iface at path, or "" if no
// service does. Deciding whether "" is an error is up to the caller.
func GetService(r Resolver, path, iface string) (string, error) {
	services, err := r.GetObject(path, []string{iface})
	if err != nil {
		return "", err
	}
	return services.First(), nil
}
