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
	"errors"

	"github.com/godbus/dbus/v5"
)

// Caller issues method calls on the bus. Every call blocks until the peer
// replies or the transport fails.
type Caller interface {
	// Call invokes iface.method on the object at path owned by service and
	// returns the reply body.
	Call(service string, path dbus.ObjectPath, iface, method string, args ...interface{}) ([]interface{}, error)
	// CallNoReply sends the call without waiting for a reply.
	CallNoReply(service string, path dbus.ObjectPath, iface, method string, args ...interface{}) error
}

// ErrorName returns the D-Bus error name carried by err, if any.
func ErrorName(err error) (string, bool) {
	var e dbus.Error
	if errors.As(err, &e) {
		return e.Name, true
	}
	var pe *dbus.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Name, true
	}
	return "", false
}
