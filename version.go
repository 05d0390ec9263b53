package eixgo

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/eixgo/internal/numio"
)

// UnslottedSlot is the canonical slot name of versions whose record carries
// no slot reference.
const UnslottedSlot = "0"

// Version record wire layout, in order: version string; slot reference
// (0 = unslotted, n>0 = slot pool index n-1); keyword plane over the keyword
// pool; one mask flag byte; two useflag planes over the feature pool
// (available, enabled-by-default); three dependency strings (build, run,
// post-merge).
//
// Bit planes are ceil(pool/8) bytes, bit j of byte i addressing pool index
// i*8+j. Plane bits beyond the pool length are padding and ignored. All pool
// index references are bounds-checked; out-of-range references fail with
// ErrIndexOutOfRange rather than clamping.
func decodeVersion(r *numio.Reader, h *Header, base int64) (*Version, error) {
	v := &Version{
		Overlay: h.Overlay,
		Segment: h.Segment,
	}

	var err error
	if v.ID, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "version string")
	}

	slotRef, err := r.Uvarint()
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "slot reference")
	}
	if slotRef == 0 {
		v.Slot = UnslottedSlot
	} else {
		if v.Slot, err = h.Slots.Lookup(slotRef - 1); err != nil {
			return nil, translateError(err, h.Segment, base+r.Offset(), "slot reference")
		}
	}

	keywordPlane, err := r.Plane(h.Keywords.Len())
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "keyword plane")
	}
	v.Keywords = KeywordSet{
		bits: planeBitset(keywordPlane, h.Keywords.Len()),
		pool: h.Keywords,
	}

	mask, err := r.Byte()
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "mask flags")
	}
	v.Masks = MaskFlags(mask)

	available, err := r.Plane(h.UseFlags.Len())
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "useflag availability plane")
	}
	enabled, err := r.Plane(h.UseFlags.Len())
	if err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "useflag default plane")
	}
	v.UseFlags = FeatureSet{
		available: planeBitset(available, h.UseFlags.Len()),
		enabled:   planeBitset(enabled, h.UseFlags.Len()),
		pool:      h.UseFlags,
	}

	if v.Depend, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "depend string")
	}
	if v.RDepend, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "rdepend string")
	}
	if v.PDepend, err = r.String(); err != nil {
		return nil, translateError(err, h.Segment, base+r.Offset(), "pdepend string")
	}

	return v, nil
}

// skipVersion discards one version record without materializing it.
// Pool references are not resolved here; a later full decode of the same
// record still performs every bounds check.
func skipVersion(r *numio.Reader, h *Header, base int64) error {
	if err := r.SkipString(); err != nil {
		return translateError(err, h.Segment, base+r.Offset(), "version string")
	}
	if _, err := r.Uvarint(); err != nil {
		return translateError(err, h.Segment, base+r.Offset(), "slot reference")
	}
	if err := r.Skip(numio.PlaneSize(h.Keywords.Len()) + 1 + 2*numio.PlaneSize(h.UseFlags.Len())); err != nil {
		return translateError(err, h.Segment, base+r.Offset(), "version planes")
	}
	for _, what := range []string{"depend string", "rdepend string", "pdepend string"} {
		if err := r.SkipString(); err != nil {
			return translateError(err, h.Segment, base+r.Offset(), what)
		}
	}
	return nil
}

// planeBitset converts a raw LSB-first bit plane into a BitSet over n bits.
func planeBitset(plane []byte, n int) *bitset.BitSet {
	bs := bitset.New(uint(n))
	for i := 0; i < n; i++ {
		if plane[i/8]&(1<<(i%8)) != 0 {
			bs.Set(uint(i))
		}
	}
	return bs
}
