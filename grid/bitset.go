package grid

import "math/bits"

// tagWords is the number of uint64 words backing a BitSet256: 256 tags max.
const tagWords = 4

// MaxTags is the fixed capacity of a BitSet256.
const MaxTags = tagWords * 64

// BitSet256 is a fixed-capacity bitset used for an object's tag_bits.
type BitSet256 [tagWords]uint64

// Set adds tag id to the set. IDs outside [0, MaxTags) are ignored.
func (b *BitSet256) Set(id TagID) {
	if id < 0 || int(id) >= MaxTags {
		return
	}
	b[id/64] |= 1 << (uint(id) % 64)
}

// Clear removes tag id from the set.
func (b *BitSet256) Clear(id TagID) {
	if id < 0 || int(id) >= MaxTags {
		return
	}
	b[id/64] &^= 1 << (uint(id) % 64)
}

// Has reports whether tag id is a member.
func (b BitSet256) Has(id TagID) bool {
	if id < 0 || int(id) >= MaxTags {
		return false
	}
	return b[id/64]&(1<<(uint(id)%64)) != 0
}

// Cardinality returns the number of set tags.
func (b BitSet256) Cardinality() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// HasAny reports whether any of the given tags are members (used by
// TagPrefix/SharedTagPrefix style filters).
func (b BitSet256) HasAny(ids []TagID) bool {
	for _, id := range ids {
		if b.Has(id) {
			return true
		}
	}
	return false
}

// Intersects reports whether two bitsets share any member tag.
func (a BitSet256) Intersects(b BitSet256) bool {
	for i := range a {
		if a[i]&b[i] != 0 {
			return true
		}
	}
	return false
}

// ForEach calls fn for every set tag id, in ascending order.
func (b BitSet256) ForEach(fn func(TagID)) {
	for w, word := range b {
		for word != 0 {
			i := bits.TrailingZeros64(word)
			fn(TagID(w*64 + i))
			word &^= 1 << uint(i)
		}
	}
}
