// Package resid defines Android resource identifiers and the remap
// table a resource shrinker produces when it rewrites the resource
// table of an application.
package resid

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a 32-bit Android resource identifier laid out as 0xPPTTEEEE:
// the high byte selects the package, the next byte the resource type
// and the low 16 bits the entry within that type.
type ID uint32

// Make builds an identifier from its package, type and entry parts.
func Make(pkg, typ uint8, entry uint16) ID {
	return ID(uint32(pkg)<<24 | uint32(typ)<<16 | uint32(entry))
}

// Parse parses an identifier from its canonical hex form, e.g.
// "0x7f010000". A bare hex string without the 0x prefix is accepted.
func Parse(s string) (ID, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	v, err := strconv.ParseUint(raw, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid resource id %q: %w", s, err)
	}
	return ID(v), nil
}

// PackageID returns the package byte of the identifier.
func (id ID) PackageID() uint8 {
	return uint8(id >> 24)
}

// TypeID returns the resource type byte of the identifier.
func (id ID) TypeID() uint8 {
	return uint8(id >> 16)
}

// EntryID returns the entry index within the package and type.
func (id ID) EntryID() uint16 {
	return uint16(id)
}

// SameType reports whether both identifiers name the same package and
// resource type. Arrays in resource holder classes group identifiers
// of one type, so this is the grouping relation.
func (id ID) SameType(other ID) bool {
	return id>>16 == other>>16
}

// String renders the canonical hex form, e.g. "0x7f010000".
func (id ID) String() string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

// MarshalText implements encoding.TextMarshaler so identifiers keep
// their hex form inside JSON artifacts.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(data []byte) error {
	v, err := Parse(string(data))
	if err != nil {
		return err
	}
	*id = v
	return nil
}
