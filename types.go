package eixgo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// StringPool is an ordered, 0-indexed sequence of interned strings decoded
// once per header. Duplicates are permitted; entries are referenced by index
// from package and version records.
type StringPool struct {
	entries []string
}

// NewStringPool wraps entries without copying. Exposed for tests; regular
// callers receive pools from ReadHeader.
func NewStringPool(entries []string) *StringPool {
	return &StringPool{entries: entries}
}

// Len returns the number of entries.
func (p *StringPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Lookup returns the entry at index i, bounds-checked. Out-of-range indices
// fail with ErrIndexOutOfRange instead of clamping, so corruption surfaces
// instead of silently altering package identity.
func (p *StringPool) Lookup(i uint64) (string, error) {
	if p == nil || i >= uint64(len(p.entries)) {
		return "", fmt.Errorf("%w: index %d, pool size %d", ErrIndexOutOfRange, i, p.Len())
	}
	return p.entries[i], nil
}

// At returns the entry at index i. It panics when i is out of range; use
// Lookup for indices read from the wire.
func (p *StringPool) At(i int) string {
	return p.entries[i]
}

// Strings returns a copy of all entries in pool order.
func (p *StringPool) Strings() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.entries))
	copy(out, p.entries)
	return out
}

// indexOf returns the first index holding s, or -1.
func (p *StringPool) indexOf(s string) int {
	if p == nil {
		return -1
	}
	for i, e := range p.entries {
		if e == s {
			return i
		}
	}
	return -1
}

// Category is a transient view of the category the reader cursor is on.
// It is only valid until the reader advances.
type Category struct {
	// Name is the category name, e.g. "app-editors".
	Name string

	// PackageCount is the number of package records the category declares.
	PackageCount int
}

// Package is a fully decoded package record. It is a detached snapshot owned
// by the caller; advancing the reader does not invalidate it.
type Package struct {
	Category    string     `json:"category"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Homepage    string     `json:"homepage,omitempty"`
	Licenses    []string   `json:"licenses,omitempty"`
	Versions    []*Version `json:"versions"`
}

// Atom returns the qualified "category/name" form.
func (p *Package) Atom() string {
	return p.Category + "/" + p.Name
}

// Version is one decoded version record.
type Version struct {
	// ID is the literal version string, e.g. "1.70.0".
	ID string `json:"version"`

	// Slot names the installation slot. Unslotted versions carry the
	// canonical slot "0".
	Slot string `json:"slot"`

	// Keywords holds the per-architecture stability plane.
	Keywords KeywordSet `json:"keywords"`

	// Masks carries the administrative mask flags.
	Masks MaskFlags `json:"masks"`

	// UseFlags holds the optional-feature planes.
	UseFlags FeatureSet `json:"use"`

	// Raw dependency strings, unparsed.
	Depend  string `json:"depend,omitempty"`
	RDepend string `json:"rdepend,omitempty"`
	PDepend string `json:"pdepend,omitempty"`

	// Overlay is the overlay path of the segment this version came from;
	// Segment is that segment's index within the file.
	Overlay string `json:"overlay"`
	Segment int    `json:"segment"`
}

// HardMasked reports whether the version is package-masked.
func (v *Version) HardMasked() bool { return v.Masks.HardMasked() }

// ProfileMasked reports whether the version is masked by the profile.
func (v *Version) ProfileMasked() bool { return v.Masks.ProfileMasked() }

// MaskFlags is the administrative flag byte of a version record.
type MaskFlags uint8

const (
	// MaskPackage marks a version hard-masked via package.mask.
	MaskPackage MaskFlags = 0x01
	// MaskProfile marks a version masked by the active profile.
	MaskProfile MaskFlags = 0x02
	// MaskSystem marks a version as part of the system set.
	MaskSystem MaskFlags = 0x04
	// MaskWorld marks a version as part of the world file.
	MaskWorld MaskFlags = 0x08
	// MaskWorldSets marks a version as part of a world set.
	MaskWorldSets MaskFlags = 0x10
	// MaskInProfile marks the version as provided by the profile.
	MaskInProfile MaskFlags = 0x20
	// MaskMarked marks the version as installed/marked.
	MaskMarked MaskFlags = 0x40
)

var maskNames = []struct {
	flag MaskFlags
	name string
}{
	{MaskPackage, "package"},
	{MaskProfile, "profile"},
	{MaskSystem, "system"},
	{MaskWorld, "world"},
	{MaskWorldSets, "world-sets"},
	{MaskInProfile, "in-profile"},
	{MaskMarked, "marked"},
}

// HardMasked reports the package.mask bit.
func (m MaskFlags) HardMasked() bool { return m&MaskPackage != 0 }

// ProfileMasked reports the profile mask bit.
func (m MaskFlags) ProfileMasked() bool { return m&MaskProfile != 0 }

// Masked reports whether either mask bit is set.
func (m MaskFlags) Masked() bool { return m&(MaskPackage|MaskProfile) != 0 }

// System reports the system-set bit.
func (m MaskFlags) System() bool { return m&MaskSystem != 0 }

// InWorld reports the world-file bit.
func (m MaskFlags) InWorld() bool { return m&MaskWorld != 0 }

// InWorldSets reports the world-sets bit.
func (m MaskFlags) InWorldSets() bool { return m&MaskWorldSets != 0 }

// InProfile reports the profile-provided bit.
func (m MaskFlags) InProfile() bool { return m&MaskInProfile != 0 }

// Marked reports the marked/installed bit.
func (m MaskFlags) Marked() bool { return m&MaskMarked != 0 }

// Installed reports whether the version is recorded as installed.
func (m MaskFlags) Installed() bool { return m.InProfile() || m.Marked() }

// Names returns the names of all set flags in fixed order.
func (m MaskFlags) Names() []string {
	var out []string
	for _, mn := range maskNames {
		if m&mn.flag != 0 {
			out = append(out, mn.name)
		}
	}
	return out
}

// String renders the set flags as a comma-joined list, or "-" when none are
// set. Suitable for one-line listings.
func (m MaskFlags) String() string {
	names := m.Names()
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

// MarshalJSON renders the flag byte as a list of flag names.
func (m MaskFlags) MarshalJSON() ([]byte, error) {
	names := m.Names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// KeywordSet is a version's stability plane over the header's keyword pool.
// A set bit means the version is accepted on that keyword token. Testing
// keywords are separate pool entries spelled with a leading "~"
// (e.g. "amd64" vs "~amd64"), so one plane covers both.
//
// The zero value is an empty set.
type KeywordSet struct {
	bits *bitset.BitSet
	pool *StringPool
}

// Has reports whether the named keyword token is accepted.
func (k KeywordSet) Has(token string) bool {
	if k.bits == nil {
		return false
	}
	i := k.pool.indexOf(token)
	if i < 0 {
		return false
	}
	return k.bits.Test(uint(i))
}

// Contains reports whether pool index i is set.
func (k KeywordSet) Contains(i int) bool {
	if k.bits == nil || i < 0 {
		return false
	}
	return k.bits.Test(uint(i))
}

// Stable reports whether the plain arch token is accepted, e.g. "amd64".
func (k KeywordSet) Stable(arch string) bool {
	return k.Has(arch)
}

// Testing reports whether the testing variant ("~" + arch) is accepted.
func (k KeywordSet) Testing(arch string) bool {
	return k.Has("~" + arch)
}

// Count returns the number of accepted tokens.
func (k KeywordSet) Count() int {
	if k.bits == nil {
		return 0
	}
	return int(k.bits.Count())
}

// Slice returns the accepted tokens in pool order.
func (k KeywordSet) Slice() []string {
	if k.bits == nil {
		return nil
	}
	// Plane decoding never sets bits at or beyond the pool length.
	out := make([]string, 0, k.bits.Count())
	for i, ok := k.bits.NextSet(0); ok; i, ok = k.bits.NextSet(i + 1) {
		out = append(out, k.pool.At(int(i)))
	}
	return out
}

// MarshalJSON renders the accepted tokens as a string list.
func (k KeywordSet) MarshalJSON() ([]byte, error) {
	s := k.Slice()
	if s == nil {
		s = []string{}
	}
	return json.Marshal(s)
}

// FeatureState is the tri-state of one optional feature on a version.
type FeatureState uint8

const (
	// FeatureUnavailable means the version does not know the feature.
	FeatureUnavailable FeatureState = iota
	// FeatureOff means the feature exists but is disabled by default.
	FeatureOff
	// FeatureOn means the feature is enabled by default.
	FeatureOn
)

// String implements fmt.Stringer.
func (s FeatureState) String() string {
	switch s {
	case FeatureOff:
		return "off"
	case FeatureOn:
		return "on"
	default:
		return "unavailable"
	}
}

// FeatureSet holds a version's optional-feature planes over the header's
// feature pool: one plane marks which features the version offers at all,
// a second marks which of those are enabled by default.
//
// The zero value is an empty set.
type FeatureSet struct {
	available *bitset.BitSet
	enabled   *bitset.BitSet
	pool      *StringPool
}

// State returns the tri-state of the named feature.
func (f FeatureSet) State(name string) FeatureState {
	if f.available == nil {
		return FeatureUnavailable
	}
	i := f.pool.indexOf(name)
	if i < 0 {
		return FeatureUnavailable
	}
	return f.StateAt(i)
}

// StateAt returns the tri-state of pool index i.
func (f FeatureSet) StateAt(i int) FeatureState {
	if f.available == nil || i < 0 || !f.available.Test(uint(i)) {
		return FeatureUnavailable
	}
	if f.enabled != nil && f.enabled.Test(uint(i)) {
		return FeatureOn
	}
	return FeatureOff
}

// Count returns the number of available features.
func (f FeatureSet) Count() int {
	if f.available == nil {
		return 0
	}
	return int(f.available.Count())
}

// Available returns all offered feature names in pool order.
func (f FeatureSet) Available() []string {
	return f.names(f.available)
}

// EnabledByDefault returns the feature names enabled by default, in pool
// order.
func (f FeatureSet) EnabledByDefault() []string {
	return f.names(f.enabled)
}

func (f FeatureSet) names(bits *bitset.BitSet) []string {
	if bits == nil {
		return nil
	}
	out := make([]string, 0, bits.Count())
	for i, ok := bits.NextSet(0); ok; i, ok = bits.NextSet(i + 1) {
		out = append(out, f.pool.At(int(i)))
	}
	return out
}

// MarshalJSON renders the two planes as resolved name lists.
func (f FeatureSet) MarshalJSON() ([]byte, error) {
	av, en := f.Available(), f.EnabledByDefault()
	if av == nil {
		av = []string{}
	}
	if en == nil {
		en = []string{}
	}
	return json.Marshal(struct {
		Available []string `json:"available"`
		Default   []string `json:"default"`
	}{av, en})
}
