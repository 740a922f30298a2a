package tenkai

import (
	"math/bits"

	"github.com/kelindar/bitmap"
)

// extendSlice extends a slice by n elements, reallocating if necessary.
func extendSlice[T any](s []T, n int) []T {
	newLen := len(s) + n
	if cap(s) >= newLen {
		return s[:newLen]
	}
	newCap := max(2*cap(s), newLen)
	ns := make([]T, newLen, newCap)
	copy(ns, s)
	return ns
}

// maskIntersects reports whether two bitmaps share any set bit. Word-wise,
// no allocation.
func maskIntersects(a, b bitmap.Bitmap) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i]&b[i] != 0 {
			return true
		}
	}
	return false
}

// bitCursor iterates the intersection of several bitmaps in ascending index
// order without allocating.
type bitCursor struct {
	masks   []bitmap.Bitmap
	wordIdx int
	word    uint64
}

func newBitCursor(masks ...bitmap.Bitmap) bitCursor {
	return bitCursor{masks: masks, wordIdx: -1}
}

// next returns the next index present in every mask, or ok=false when the
// intersection is exhausted.
func (c *bitCursor) next() (uint32, bool) {
	for {
		if c.word != 0 {
			tz := bits.TrailingZeros64(c.word)
			c.word &= c.word - 1
			return uint32(c.wordIdx*64 + tz), true
		}
		c.wordIdx++
		w, ok := c.intersectWord(c.wordIdx)
		if !ok {
			return 0, false
		}
		c.word = w
	}
}

// intersectWord ANDs word i of every mask; ok=false past the shortest mask.
func (c *bitCursor) intersectWord(i int) (uint64, bool) {
	w := ^uint64(0)
	for _, m := range c.masks {
		if i >= len(m) {
			return 0, false
		}
		w &= m[i]
	}
	return w, true
}
