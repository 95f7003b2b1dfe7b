package bufferpool

import (
	"fmt"
	"hash/fnv"
)

// BlockId identifies a disk block by file name and block number.
// Equality and hashing are defined over that pair alone; the
// reference-history fields below are mutable bookkeeping the
// replacement policy attaches to an otherwise-immutable identity.
type BlockId struct {
	fileName    string
	blockNumber int

	// lastReferenceTime is the monotonic timestamp (nanoseconds) of the
	// most recent reference, including references inside a correlated
	// burst.
	lastReferenceTime int64

	// hist holds the K most recent non-correlated reference
	// timestamps, newest at index 0. hist[k-1] is the backward
	// K-distance key; 0 means "fewer than k historical references".
	hist []int64
}

// NewBlockId returns the identity of block number blockNumber in file
// fileName, with an empty reference history.
func NewBlockId(fileName string, blockNumber int) BlockId {
	return BlockId{fileName: fileName, blockNumber: blockNumber}
}

func (b BlockId) FileName() string { return b.fileName }
func (b BlockId) Number() int      { return b.blockNumber }

func (b BlockId) String() string {
	return fmt.Sprintf("[file %s, block %d]", b.fileName, b.blockNumber)
}

// Equals reports whether two BlockIds name the same disk block.
// History is not part of identity.
func (b BlockId) Equals(other BlockId) bool {
	return b.fileName == other.fileName && b.blockNumber == other.blockNumber
}

// identity strips history so a BlockId can be used as a map key that
// ignores the mutable bookkeeping fields.
type blockIdentity struct {
	fileName    string
	blockNumber int
}

func (b BlockId) identity() blockIdentity {
	return blockIdentity{fileName: b.fileName, blockNumber: b.blockNumber}
}

// HashCode is used by the anchor stripes to bucket a block independent
// of the map/slice representation FrameTable happens to use.
func (b BlockId) HashCode() uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(b.fileName))
	h.Write([]byte{
		byte(b.blockNumber >> 24),
		byte(b.blockNumber >> 16),
		byte(b.blockNumber >> 8),
		byte(b.blockNumber),
	})
	return h.Sum32()
}

// ensureHist lazily allocates the K-sized history array the first
// time this block is referenced.
func (b *BlockId) ensureHist(k int) {
	if b.hist == nil {
		b.hist = make([]int64, k)
	}
}

// order is the victim key: the backward K-distance. Smaller is
// colder. A value of 0 means "insufficient history" and is always the
// coldest possible key.
func (b BlockId) order(k int) int64 {
	if len(b.hist) < k {
		return 0
	}
	return b.hist[k-1]
}

// hasFullHistory reports whether the K-th history slot holds a nonzero
// timestamp. Pin's miss path does not consult it: it calls updateHistM
// on every miss.
func (b BlockId) hasFullHistory(k int) bool {
	return len(b.hist) >= k && b.hist[k-1] != 0
}

// updateHistM records a miss reference: the block was just loaded into
// a frame, or this is its first-ever reference. The history array
// shifts right and the newest slot takes now.
func (b *BlockId) updateHistM(k int, now int64) {
	b.ensureHist(k)
	for i := k - 1; i >= 1; i-- {
		b.hist[i] = b.hist[i-1]
	}
	b.hist[0] = now
	b.lastReferenceTime = now
}

// updateHist records a hit reference against a block already resident
// in a frame. Within the correlated reference period the burst is
// collapsed into advancing lastReferenceTime only; once the burst
// closes, the just-elapsed correlated period is folded into every
// historical slot so a page that was actively used moments ago isn't
// penalized for looking stale.
func (b *BlockId) updateHist(k int, now, crtMillis int64) {
	b.ensureHist(k)

	elapsedMillis := (now - b.lastReferenceTime) / int64(1_000_000)
	if elapsedMillis <= crtMillis {
		b.lastReferenceTime = now
		return
	}

	delta := b.lastReferenceTime - b.hist[0]
	for i := k - 1; i >= 1; i-- {
		b.hist[i] = b.hist[i-1] + delta
	}
	b.hist[0] = now
	b.lastReferenceTime = now
}
