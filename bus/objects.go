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

	"github.com/godbus/dbus/v5"
)

const (
	ObjectManagerInterface = "org.freedesktop.DBus.ObjectManager"
)

// GetManagedObjects asks service for every object it manages at or below
// path, together with their properties grouped by interface.
func GetManagedObjects(c Caller, service string, path dbus.ObjectPath) (ManagedObjects, error) {
	body, err := c.Call(service, path, ObjectManagerInterface, "GetManagedObjects")
	if err != nil {
		// The provider was just resolved, so it should be answering.
		return nil, fmt.Errorf("GetManagedObjects failed, %w", err)
	}
	var raw map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := dbus.Store(body, &raw); err != nil {
		return nil, fmt.Errorf("GetManagedObjects failed, unexpected reply: %w", err)
	}

	objects := make(ManagedObjects, len(raw))
	for p, ifaces := range raw {
		ip := make(InterfaceProperties, len(ifaces))
		for iface, props := range ifaces {
			ps := make(Properties, len(props))
			for name, v := range props {
				ps[name] = FromVariant(v)
			}
			ip[iface] = ps
		}
		objects[p] = ip
	}
	return objects, nil
}
