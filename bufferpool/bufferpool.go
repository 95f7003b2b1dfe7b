// Package bufferpool implements an LRU-K buffer pool manager: a fixed
// set of in-memory frames caching disk blocks, replacing the least
// valuable resident block (by backward K-distance, with a correlated
// reference period that absorbs bursts) when a miss needs a frame and
// none is free.
package bufferpool

// BufferPool is the public façade over a FrameTable: it resolves a
// Pin request to a resident frame or a freshly swapped-in one,
// updates the LRU-K history for whichever block it returns, and
// exposes the pool-wide flush and availability operations.
type BufferPool struct {
	fm      FileManager
	lm      LogManager
	clock   Clock
	table   *FrameTable
	anchors *anchorTable

	k         int
	crtMillis int64
}

// NewBufferPool constructs a pool of cfg.BufferCount frames backed by
// fm and lm. A nil clock defaults to SystemClock.
func NewBufferPool(fm FileManager, lm LogManager, cfg Config, clock Clock) (*BufferPool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &BufferPool{
		fm:        fm,
		lm:        lm,
		clock:     clock,
		table:     newFrameTable(fm, lm, cfg.BufferCount),
		anchors:   newAnchorTable(cfg.AnchorStripes),
		k:         cfg.K,
		crtMillis: cfg.CRT.Milliseconds(),
	}, nil
}

// Pin returns the frame holding blk, pinning it and loading it from
// disk first if it is not already resident. Concurrent Pin calls for
// the same block are serialized by an anchor stripe so they agree on
// whether it was a hit or a miss; unrelated blocks proceed in
// parallel.
//
// lookup and pinExisting are two separate FrameTable-locked steps, so
// a concurrent miss for an unrelated block (a different anchor) can
// claim and reassign the looked-up frame in the gap between them. The
// loop below detects that with a post-pin residence check and retries
// rather than handing back a frame holding the wrong block.
func (bp *BufferPool) Pin(blk BlockId) (*Frame, error) {
	anchor := bp.anchors.stripeFor(blk)
	anchor.mu.Lock()
	defer anchor.mu.Unlock()

	for {
		if frame, idx, ok := bp.table.lookup(blk); ok {
			bp.table.pinExisting(idx)
			resident := frame.Block()
			if resident == nil || !resident.Equals(blk) {
				if frame.unpin() {
					key := int64(0)
					if resident != nil {
						key = resident.order(bp.k)
					}
					bp.table.markUnpinned(idx, key)
				}
				continue
			}
			resident.updateHist(bp.k, bp.clock.Now(), bp.crtMillis)
			return frame, nil
		}

		idx, err := bp.table.selectVictim(bp.clock.Now(), bp.crtMillis)
		if err != nil {
			return nil, err
		}
		frame := bp.table.frameAt(idx)
		if err := frame.assignToBlock(blk); err != nil {
			bp.table.abortClaim(idx)
			return nil, err
		}
		resident := frame.Block()
		resident.updateHistM(bp.k, bp.clock.Now())
		bp.table.bind(idx, blk)
		return frame, nil
	}
}

// PinNew extends fileName by one block, formats it, and pins it. It
// never participates in anchor striping: the block did not exist
// before this call, so no other Pin could already be racing for it.
func (bp *BufferPool) PinNew(fileName string, formatter PageFormatter) (*Frame, BlockId, error) {
	idx, err := bp.table.selectVictim(bp.clock.Now(), bp.crtMillis)
	if err != nil {
		return nil, BlockId{}, err
	}
	frame := bp.table.frameAt(idx)
	blk, err := frame.assignToNew(fileName, formatter)
	if err != nil {
		bp.table.abortClaim(idx)
		return nil, BlockId{}, err
	}
	resident := frame.Block()
	resident.updateHistM(bp.k, bp.clock.Now())
	bp.table.bind(idx, blk)
	return frame, blk, nil
}

// Unpin releases one pin on frame. When the pin count drops to zero
// the frame's block becomes eligible for eviction again, keyed by its
// current backward K-distance.
//
// This takes the same anchor stripe Pin does for blk, so a concurrent
// Pin of the same block can't race between frame.unpin() crossing to
// zero and the frame being pushed back into the victim set.
func (bp *BufferPool) Unpin(frame *Frame) {
	blk := frame.Block()
	if blk == nil {
		invariantViolation("unpin called on an empty frame")
	}

	anchor := bp.anchors.stripeFor(*blk)
	anchor.mu.Lock()
	defer anchor.mu.Unlock()

	if !frame.unpin() {
		return
	}
	_, idx, ok := bp.table.lookup(*blk)
	if !ok {
		invariantViolation("unpinned frame for block %s missing from frame table index", blk.String())
	}
	bp.table.markUnpinned(idx, blk.order(bp.k))
}

// FlushAll writes every dirty frame to disk, log-ahead first.
func (bp *BufferPool) FlushAll() error {
	for _, f := range bp.table.frames {
		if err := f.flush(); err != nil {
			return err
		}
	}
	return nil
}

// FlushAllForTx writes every frame txNum has modified. It is the
// Go-idiomatic stand-in for an overloaded flushAll(txNum): Go has no
// overloading, so it gets its own name rather than shadowing FlushAll.
func (bp *BufferPool) FlushAllForTx(txNum int64) error {
	for _, f := range bp.table.frames {
		if f.IsModifiedBy(txNum) {
			if err := f.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Available reports how many frames currently have no pins.
func (bp *BufferPool) Available() int {
	return bp.table.availableCount()
}

// BlockSize returns the fixed block size frames are sized to.
func (bp *BufferPool) BlockSize() int {
	return bp.fm.BlockSize()
}
