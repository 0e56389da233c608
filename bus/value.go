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
	"fmt"
	"strconv"

	"github.com/godbus/dbus/v5"
)

// ErrKindMismatch is returned when a Value is read as a kind it does not hold.
var ErrKindMismatch = errors.New("property value kind mismatch")

// Kind tags the variant held by a Value.
type Kind int

const (
	KindUnsupported Kind = iota
	KindUint16
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUint16:
		return "uint16"
	case KindString:
		return "string"
	default:
		return "unsupported"
	}
}

// Value is a property value as received from the bus. Only the variants the
// SNMP configuration objects publish are represented; anything else is kept
// as KindUnsupported together with its signature and fails when read.
type Value struct {
	kind      Kind
	u16       uint16
	str       string
	signature string
}

func Uint16Value(v uint16) Value {
	return Value{kind: KindUint16, u16: v, signature: "q"}
}

func StringValue(v string) Value {
	return Value{kind: KindString, str: v, signature: "s"}
}

// FromVariant tags a variant. It never fails.
func FromVariant(v dbus.Variant) Value {
	switch x := v.Value().(type) {
	case uint16:
		return Uint16Value(x)
	case string:
		return StringValue(x)
	}
	return Value{kind: KindUnsupported, signature: v.Signature().String()}
}

func (v Value) Kind() Kind { return v.kind }

// Signature is the D-Bus type signature the value arrived with.
func (v Value) Signature() string { return v.signature }

func (v Value) AsUint16() (uint16, error) {
	if v.kind != KindUint16 {
		return 0, fmt.Errorf("%w: want %s, have %s (signature %q)", ErrKindMismatch, KindUint16, v.kind, v.signature)
	}
	return v.u16, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: want %s, have %s (signature %q)", ErrKindMismatch, KindString, v.kind, v.signature)
	}
	return v.str, nil
}

func (v Value) String() string {
	switch v.kind {
	case KindUint16:
		return strconv.Itoa(int(v.u16))
	case KindString:
		return v.str
	}
	return "<" + v.signature + ">"
}

// Properties maps property names to values.
type Properties map[string]Value

// InterfaceProperties groups properties by the interface declaring them.
type InterfaceProperties map[string]Properties

// ManagedObjects is the reply of ObjectManager.GetManagedObjects.
type ManagedObjects map[dbus.ObjectPath]InterfaceProperties
