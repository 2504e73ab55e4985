package arch

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the platform configuration: the persisted-layout byte
// order, the device identifiers PPID checks compare against, and the
// bound on a single authentication hand-off.
type Profile struct {
	ByteOrder     string `yaml:"byte_order"` // "little" or "big", defaults to little
	PPID          string `yaml:"ppid"`
	PFID          string `yaml:"pfid"`
	PCID          string `yaml:"pcid"`
	AuthTimeoutMs int64  `yaml:"auth_timeout_ms"`
}

// LoadProfile reads a platform profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if _, err := p.Order(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Order maps the profile's byte order name onto the codec byte order.
func (p *Profile) Order() (binary.ByteOrder, error) {
	switch p.ByteOrder {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("unknown byte order %q, want little or big", p.ByteOrder)
	}
}

// Identity returns the device identifiers for PPID checks.
func (p *Profile) Identity() DeviceIdentity {
	return DeviceIdentity{PPID: p.PPID, PFID: p.PFID, PCID: p.PCID}
}

// AuthTimeout returns the configured authentication bound, zero when
// unset.
func (p *Profile) AuthTimeout() time.Duration {
	if p.AuthTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(p.AuthTimeoutMs) * time.Millisecond
}
