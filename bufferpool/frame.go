package bufferpool

import (
	"sync"
)

// Frame is a fixed-size in-memory slot that may hold a resident
// block. Its latch guards residence, pin count, and dirty state
// during swap-in and flush; blocking I/O runs inside assignToBlock,
// assignToNew, and flush with the latch held and the FrameTable lock
// not held. Pin keeps its anchor stripe held across assignToBlock.
type Frame struct {
	latch sync.Mutex

	fm FileManager
	lm LogManager

	page    *Page
	block   *BlockId // nil when the frame is empty
	pinCnt  int
	dirty   bool
	lsn     int
	modTxs  map[int64]struct{}
}

// newFrame allocates an empty frame backed by fm/lm, sized to fm's
// block size.
func newFrame(fm FileManager, lm LogManager) *Frame {
	return &Frame{
		fm:     fm,
		lm:     lm,
		page:   NewPage(fm.BlockSize()),
		lsn:    -1,
		modTxs: make(map[int64]struct{}),
	}
}

// Contents returns the frame's page buffer.
func (f *Frame) Contents() *Page {
	f.latch.Lock()
	defer f.latch.Unlock()
	return f.page
}

// Block returns the block currently resident in this frame, or nil if
// the frame is empty.
func (f *Frame) Block() *BlockId {
	f.latch.Lock()
	defer f.latch.Unlock()
	return f.block
}

func (f *Frame) blockUnlocked() *BlockId { return f.block }

// IsPinned reports whether the frame has at least one live pin.
func (f *Frame) IsPinned() bool {
	f.latch.Lock()
	defer f.latch.Unlock()
	return f.pinCnt > 0
}

// IsModifiedBy reports whether txNum has an outstanding write against
// this frame's current contents.
func (f *Frame) IsModifiedBy(txNum int64) bool {
	f.latch.Lock()
	defer f.latch.Unlock()
	_, ok := f.modTxs[txNum]
	return ok
}

// MarkModified records that txNum wrote to the frame at the given LSN
// (or at no new LSN, if lsn < 0) and marks the frame dirty.
func (f *Frame) MarkModified(txNum int64, lsn int) {
	f.latch.Lock()
	defer f.latch.Unlock()
	f.modTxs[txNum] = struct{}{}
	if lsn >= 0 {
		f.lsn = lsn
	}
	f.dirty = true
}

// pin increments the pin count. The caller (FrameTable) is
// responsible for the membership-change signal to the victim set
// when the count crosses zero.
func (f *Frame) pin() {
	f.latch.Lock()
	defer f.latch.Unlock()
	f.pinCnt++
}

// pinReportingIdle increments the pin count and reports whether the
// frame was idle (pinCnt == 0) beforehand, which is the signal
// FrameTable uses to decrement its available-frame count.
func (f *Frame) pinReportingIdle() (wasIdle bool) {
	f.latch.Lock()
	defer f.latch.Unlock()
	wasIdle = f.pinCnt == 0
	f.pinCnt++
	return
}

// unpin decrements the pin count and reports whether it just dropped
// to zero. Unpinning an already-unpinned frame is a programming error.
func (f *Frame) unpin() (justUnpinned bool) {
	f.latch.Lock()
	defer f.latch.Unlock()
	if f.pinCnt <= 0 {
		invariantViolation("unpin called on frame with pinCount %d", f.pinCnt)
	}
	f.pinCnt--
	return f.pinCnt == 0
}

// claimForEviction reserves an unpinned frame for reuse by setting
// pinCnt to 1, so nothing else can win a race to evict or reclaim it
// between the victim-selection decision and the assignToBlock or
// assignToNew call that follows. It reports false if the frame was
// pinned again since it was queued as a candidate, in which case the
// caller must discard it and try the next candidate.
func (f *Frame) claimForEviction() bool {
	f.latch.Lock()
	defer f.latch.Unlock()
	if f.pinCnt != 0 {
		return false
	}
	f.pinCnt = 1
	return true
}

// releaseClaim undoes claimForEviction for a candidate that turned out
// ineligible (e.g. still inside its correlated reference window)
// before any reassignment happened, leaving its resident block and
// dirty state exactly as they were.
func (f *Frame) releaseClaim() {
	f.latch.Lock()
	defer f.latch.Unlock()
	f.pinCnt = 0
}

// assignToBlock flushes whatever this frame currently holds, then
// reads blk from the file manager. The caller must already have
// removed the frame's old block (if any) from FrameTable.index and
// must have called claimForEviction (or otherwise established
// pinCnt == 1) so no other goroutine can observe or reclaim the frame
// mid-assignment. assignToBlock does not itself touch pinCnt.
func (f *Frame) assignToBlock(blk BlockId) error {
	f.latch.Lock()
	defer f.latch.Unlock()

	if err := f.flushLocked(); err != nil {
		return err
	}

	page := NewPage(f.fm.BlockSize())
	if err := f.fm.Read(blk, page); err != nil {
		f.block = nil
		return newStorageError("assignToBlock", err)
	}
	f.block = &blk
	f.page = page
	f.dirty = false
	f.lsn = -1
	f.modTxs = make(map[int64]struct{})
	return nil
}

// PageFormatter initializes a freshly allocated page, e.g. writing a
// header. It is supplied by the record layer, which this package does
// not depend on otherwise.
type PageFormatter func(page *Page)

// assignToNew extends fileName by one block, applies formatter to
// initialize it, and marks the frame dirty so it will be written back.
func (f *Frame) assignToNew(fileName string, formatter PageFormatter) (BlockId, error) {
	f.latch.Lock()
	defer f.latch.Unlock()

	if err := f.flushLocked(); err != nil {
		return BlockId{}, err
	}

	page := NewPage(f.fm.BlockSize())
	if formatter != nil {
		formatter(page)
	}

	blk, err := f.fm.Append(fileName)
	if err != nil {
		return BlockId{}, newStorageError("assignToNew", err)
	}
	if err := f.fm.Write(blk, page); err != nil {
		return BlockId{}, newStorageError("assignToNew", err)
	}

	f.block = &blk
	f.page = page
	f.dirty = true
	f.lsn = -1
	f.modTxs = make(map[int64]struct{})
	return blk, nil
}

// flush ensures the log manager has durably persisted records up to
// this frame's LSN, then writes the page to the file manager. A clean
// frame is a no-op.
func (f *Frame) flush() error {
	f.latch.Lock()
	defer f.latch.Unlock()
	return f.flushLocked()
}

func (f *Frame) flushLocked() error {
	if !f.dirty || f.block == nil {
		return nil
	}
	if f.lm != nil {
		if err := f.lm.FlushTo(f.lsn); err != nil {
			return newStorageError("flush", err)
		}
	}
	if err := f.fm.Write(*f.block, f.page); err != nil {
		return newStorageError("flush", err)
	}
	f.dirty = false
	f.modTxs = make(map[int64]struct{})
	return nil
}

// CompressedSnapshot gzips a copy of the frame's current page
// contents for diagnostics or export, leaving the live page
// untouched. Disk writes always go through the file manager
// uncompressed, since blocks on disk are fixed-size and a gzip
// stream is not.
func (f *Frame) CompressedSnapshot() ([]byte, error) {
	f.latch.Lock()
	defer f.latch.Unlock()

	snap := NewPage(len(f.page.Contents()))
	copy(snap.Contents(), f.page.Contents())
	if err := snap.Compress(); err != nil {
		return nil, err
	}
	return snap.Contents(), nil
}

// reset returns the frame to the empty state after an I/O failure, so
// the pool remains consistent even though the caller's operation
// failed.
func (f *Frame) reset() {
	f.latch.Lock()
	defer f.latch.Unlock()
	f.block = nil
	f.dirty = false
	f.pinCnt = 0
	f.modTxs = make(map[int64]struct{})
}
