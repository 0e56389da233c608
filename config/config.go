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

package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
	"go.yaml.in/yaml/v2"
)

// LoadFile reads and validates the configuration at filename. When
// expandEnvironmentVariables is set, ${VAR} references are substituted first.
func LoadFile(filename string, expandEnvironmentVariables bool) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if expandEnvironmentVariables {
		content = []byte(os.ExpandEnv(string(content)))
	}
	c := DefaultConfig
	cfg := &c
	err = yaml.UnmarshalStrict(content, cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing config file %s: %w", filename, err)
	}
	return cfg, nil
}

var (
	DefaultMapper = Mapper{
		Service:   "xyz.openbmc_project.ObjectMapper",
		Path:      "/xyz/openbmc_project/object_mapper",
		Interface: "xyz.openbmc_project.ObjectMapper",
	}
	DefaultSNMP = SNMP{
		ManagerPath:       "/xyz/openbmc_project/network/snmp/manager",
		CreateInterface:   "xyz.openbmc_project.Network.Client.Create",
		ReceiverInterface: "xyz.openbmc_project.Network.Client",
		DeleteInterface:   "xyz.openbmc_project.Object.Delete",
		DefaultPort:       162,
	}
	DefaultAuth = Auth{
		Community:     "public",
		SecurityLevel: "noAuthNoPriv",
		AuthProtocol:  "MD5",
		PrivProtocol:  "DES",
	}
	DefaultTrapParams = TrapParams{
		Version: 2,
		Retries: 0,
		Timeout: time.Second * 5,
		// coldStart
		OID:  ".1.3.6.1.6.3.1.1.5.1",
		Auth: DefaultAuth,
	}
	DefaultConfig = Config{
		Mapper: DefaultMapper,
		SNMP:   DefaultSNMP,
		Trap:   DefaultTrapParams,
	}
)

// Config for snmp_trapmgr. Every field has a default matching a stock
// OpenBMC image, so the file is optional.
type Config struct {
	Mapper Mapper     `yaml:"mapper,omitempty"`
	SNMP   SNMP       `yaml:"snmp,omitempty"`
	Trap   TrapParams `yaml:"trap,omitempty"`
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig
	type plain Config
	return unmarshal((*plain)(c))
}

// Mapper locates the object mapper, the bus directory service.
type Mapper struct {
	Service   string `yaml:"service,omitempty"`
	Path      string `yaml:"path,omitempty"`
	Interface string `yaml:"interface,omitempty"`
}

func (c *Mapper) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultMapper
	type plain Mapper
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if c.Service == "" || c.Interface == "" {
		return fmt.Errorf("mapper service and interface must not be empty")
	}
	if !strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("mapper path must be absolute, got %q", c.Path)
	}
	return nil
}

// SNMP describes the objects published by the SNMP configuration manager.
type SNMP struct {
	ManagerPath       string `yaml:"manager_path,omitempty"`
	CreateInterface   string `yaml:"create_interface,omitempty"`
	ReceiverInterface string `yaml:"receiver_interface,omitempty"`
	DeleteInterface   string `yaml:"delete_interface,omitempty"`
	DefaultPort       uint16 `yaml:"default_port,omitempty"`
}

func (c *SNMP) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultSNMP
	type plain SNMP
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}
	if !strings.HasPrefix(c.ManagerPath, "/") || strings.HasSuffix(c.ManagerPath, "/") {
		return fmt.Errorf("manager_path must be absolute without a trailing slash, got %q", c.ManagerPath)
	}
	if c.DefaultPort == 0 {
		return fmt.Errorf("default_port must not be 0")
	}
	return nil
}

// TrapParams configures test notifications sent with "trap".
type TrapParams struct {
	Version  int           `yaml:"version,omitempty"`
	Retries  int           `yaml:"retries,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
	OID      string        `yaml:"oid,omitempty"`
	EngineID string        `yaml:"engine_id,omitempty"` // hex, e.g. "8000000001020304"
	Auth     Auth          `yaml:"auth,omitempty"`
}

func (c *TrapParams) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultTrapParams
	type plain TrapParams
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	if c.Version != 2 && c.Version != 3 {
		return fmt.Errorf("SNMP trap version must be 2 or 3. Got: %d", c.Version)
	}
	if !strings.HasPrefix(c.OID, ".") {
		return fmt.Errorf("trap oid must be absolute (start with '.'), got %q", c.OID)
	}
	if c.Version == 3 {
		if c.EngineID == "" {
			return fmt.Errorf("engine_id is missing, required for SNMPv3 traps")
		}
		if _, err := hex.DecodeString(c.EngineID); err != nil {
			return fmt.Errorf("engine_id must be a hex string: %w", err)
		}
		switch c.Auth.SecurityLevel {
		case "authPriv":
			if c.Auth.PrivPassword == "" {
				return fmt.Errorf("priv password is missing, required for SNMPv3 with priv")
			}
			if c.Auth.PrivProtocol != "DES" && c.Auth.PrivProtocol != "AES" {
				return fmt.Errorf("priv protocol must be DES or AES")
			}
			fallthrough
		case "authNoPriv":
			if c.Auth.Password == "" {
				return fmt.Errorf("auth password is missing, required for SNMPv3 with auth")
			}
			if c.Auth.AuthProtocol != "MD5" && c.Auth.AuthProtocol != "SHA" {
				return fmt.Errorf("auth protocol must be SHA or MD5")
			}
			fallthrough
		case "noAuthNoPriv":
			if c.Auth.Username == "" {
				return fmt.Errorf("auth username is missing, required for SNMPv3")
			}
		default:
			return fmt.Errorf("security level must be one of authPriv, authNoPriv or noAuthNoPriv")
		}
	}
	return nil
}

// ConfigureSNMP sets the version and auth settings.
func (c TrapParams) ConfigureSNMP(g *gosnmp.GoSNMP) {
	g.Timeout = c.Timeout
	g.Retries = c.Retries
	switch c.Version {
	case 2:
		g.Version = gosnmp.Version2c
		g.Community = string(c.Auth.Community)
		return
	case 3:
		g.Version = gosnmp.Version3
	}

	g.SecurityModel = gosnmp.UserSecurityModel
	// Validated as hex on load.
	engineID, _ := hex.DecodeString(c.EngineID)
	usm := &gosnmp.UsmSecurityParameters{
		UserName:              c.Auth.Username,
		AuthoritativeEngineID: string(engineID),
	}
	auth, priv := false, false
	switch c.Auth.SecurityLevel {
	case "noAuthNoPriv":
		g.MsgFlags = gosnmp.NoAuthNoPriv
	case "authNoPriv":
		g.MsgFlags = gosnmp.AuthNoPriv
		auth = true
	case "authPriv":
		g.MsgFlags = gosnmp.AuthPriv
		auth = true
		priv = true
	}
	if auth {
		usm.AuthenticationPassphrase = string(c.Auth.Password)
		switch c.Auth.AuthProtocol {
		case "SHA":
			usm.AuthenticationProtocol = gosnmp.SHA
		case "MD5":
			usm.AuthenticationProtocol = gosnmp.MD5
		}
	}
	if priv {
		usm.PrivacyPassphrase = string(c.Auth.PrivPassword)
		switch c.Auth.PrivProtocol {
		case "DES":
			usm.PrivacyProtocol = gosnmp.DES
		case "AES":
			usm.PrivacyProtocol = gosnmp.AES
		}
	}
	g.SecurityParameters = usm
}

// Secret is a string that must not be revealed on marshaling.
type Secret string

// MarshalYAML implements the yaml.Marshaler interface.
func (s Secret) MarshalYAML() (interface{}, error) {
	if s != "" {
		return "<secret>", nil
	}
	return nil, nil
}

type Auth struct {
	Community     Secret `yaml:"community,omitempty"`
	SecurityLevel string `yaml:"security_level,omitempty"`
	Username      string `yaml:"username,omitempty"`
	Password      Secret `yaml:"password,omitempty"`
	AuthProtocol  string `yaml:"auth_protocol,omitempty"`
	PrivProtocol  string `yaml:"priv_protocol,omitempty"`
	PrivPassword  Secret `yaml:"priv_password,omitempty"`
}
