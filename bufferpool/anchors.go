package bufferpool

import "sync"

// defaultAnchorStripes is the default number of striped locks guarding
// per-block pin admission. A prime modulus spreads hashed block
// identities evenly across buckets even when block numbers within a
// file cluster on round values.
const defaultAnchorStripes = 1009

// anchorStripe serializes every Pin/Unpin for every block that hashes
// to the same bucket, without serializing the whole pool: two
// unrelated blocks almost always land in different buckets and can be
// pinned concurrently. Pin holds its stripe for the full call,
// including the disk read on a miss, so that two concurrent Pins of
// the same block can't both decide it's a miss and swap it in twice.
// The FrameTable's own lock (ft.mu) is never held during that I/O;
// only the frame's latch is.
type anchorStripe struct {
	mu sync.Mutex
}

// anchorTable is the fixed array of stripes a BufferPool hashes
// BlockIds against.
type anchorTable struct {
	stripes []anchorStripe
}

func newAnchorTable(n int) *anchorTable {
	if n <= 0 {
		n = defaultAnchorStripes
	}
	return &anchorTable{stripes: make([]anchorStripe, n)}
}

func (a *anchorTable) stripeFor(blk BlockId) *anchorStripe {
	return &a.stripes[blk.HashCode()%uint32(len(a.stripes))]
}
