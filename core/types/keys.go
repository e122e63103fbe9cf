package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyLength is the byte length of coldkey and hotkey identifiers.
const KeyLength = 32

// ColdKey identifies a custodial account that owns funds and hotkeys.
type ColdKey [KeyLength]byte

// HotKey identifies an operational account that receives delegated stake.
type HotKey [KeyLength]byte

// SubnetID names an independently accounted sub-ledger.
type SubnetID uint16

// Mechanism selects how a subnet prices its units against the base currency.
type Mechanism uint16

const (
	// MechanismFixed treats subnet units and base-currency units as identical.
	MechanismFixed Mechanism = 1
	// MechanismDynamic prices subnet units through the subnet reserves.
	MechanismDynamic Mechanism = 2
)

// RootSubnet is the fixed-mechanism root ledger.
const RootSubnet SubnetID = 0

func (m Mechanism) String() string {
	switch m {
	case MechanismDynamic:
		return "dynamic"
	case MechanismFixed:
		return "fixed"
	default:
		return fmt.Sprintf("mechanism(%d)", uint16(m))
	}
}

// ParseMechanism accepts either the symbolic name or the numeric id.
func ParseMechanism(value string) (Mechanism, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "fixed", "1":
		return MechanismFixed, nil
	case "dynamic", "2":
		return MechanismDynamic, nil
	default:
		return 0, fmt.Errorf("unknown subnet mechanism %q", value)
	}
}

func parseKey(value string) ([KeyLength]byte, error) {
	var out [KeyLength]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, fmt.Errorf("invalid key %q: %w", value, err)
	}
	if len(raw) != KeyLength {
		return out, fmt.Errorf("invalid key %q: expected %d bytes, got %d", value, KeyLength, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ParseColdKey decodes a 0x-prefixed (or bare) hex coldkey.
func ParseColdKey(value string) (ColdKey, error) {
	raw, err := parseKey(value)
	return ColdKey(raw), err
}

// ParseHotKey decodes a 0x-prefixed (or bare) hex hotkey.
func ParseHotKey(value string) (HotKey, error) {
	raw, err := parseKey(value)
	return HotKey(raw), err
}

func (c ColdKey) String() string { return "0x" + hex.EncodeToString(c[:]) }

func (h HotKey) String() string { return "0x" + hex.EncodeToString(h[:]) }

// Bytes returns a copy of the identifier bytes.
func (c ColdKey) Bytes() []byte { return append([]byte(nil), c[:]...) }

// Bytes returns a copy of the identifier bytes.
func (h HotKey) Bytes() []byte { return append([]byte(nil), h[:]...) }

// IsZero reports whether the key is the all-zero identifier.
func (c ColdKey) IsZero() bool { return c == ColdKey{} }

// IsZero reports whether the key is the all-zero identifier.
func (h HotKey) IsZero() bool { return h == HotKey{} }

// AsHotKey reinterprets the coldkey bytes as a hotkey. Both identifiers share
// the same key space, so a coldkey may collide with a registered hotkey.
func (c ColdKey) AsHotKey() HotKey { return HotKey(c) }
