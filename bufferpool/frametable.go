package bufferpool

import "sync"

// FrameTable owns the fixed array of frames a BufferPool manages, the
// index mapping resident blocks to their frame, and the lazy victim
// heap used to pick a replacement on a miss. Its mutex is the middle
// tier of the anchor -> table -> frame-latch lock hierarchy: it
// guards index and available bookkeeping, never blocking I/O, which
// always happens with only a frame's own latch held.
type FrameTable struct {
	mu      sync.Mutex
	frames  []*Frame
	index   map[blockIdentity]int
	victims *victimSet

	available int
}

func newFrameTable(fm FileManager, lm LogManager, numFrames int) *FrameTable {
	ft := &FrameTable{
		frames:    make([]*Frame, numFrames),
		index:     make(map[blockIdentity]int, numFrames),
		victims:   newVictimSet(),
		available: numFrames,
	}
	for i := range ft.frames {
		ft.frames[i] = newFrame(fm, lm)
		ft.victims.push(i, 0, true)
	}
	return ft
}

func (ft *FrameTable) numFrames() int { return len(ft.frames) }

func (ft *FrameTable) frameAt(idx int) *Frame { return ft.frames[idx] }

// lookup reports the frame currently holding blk, if any.
func (ft *FrameTable) lookup(blk BlockId) (*Frame, int, bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	idx, ok := ft.index[blk.identity()]
	if !ok {
		return nil, 0, false
	}
	return ft.frames[idx], idx, true
}

// bind records that frame idx now holds blk. The available count was
// already decremented when the frame was claimed in selectVictim.
func (ft *FrameTable) bind(idx int, blk BlockId) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.index[blk.identity()] = idx
}

// pinExisting increments the pin count of an already-resident frame,
// decrementing the available count if the frame had been idle.
func (ft *FrameTable) pinExisting(idx int) {
	if ft.frames[idx].pinReportingIdle() {
		ft.mu.Lock()
		ft.available--
		ft.mu.Unlock()
	}
}

// unbindLocked removes idx's previous block (if any) from the index.
// Caller must hold ft.mu.
func (ft *FrameTable) unbindLocked(idx int) {
	if blk := ft.frames[idx].blockUnlocked(); blk != nil {
		delete(ft.index, blk.identity())
	}
}

// selectVictim pops candidates from the victim heap until it finds
// one that is still genuinely unpinned and, if it holds a resident
// block, outside that block's correlated reference window, claiming
// it in the same step so no concurrent Pin can steal it. Candidates
// that are merely inside their correlated window are deferred rather
// than discarded: they are still legitimate unpinned frames, just not
// eligible for eviction against this particular now, so they are
// pushed back once the scan is done. It returns ErrNoBufferAvailable
// if every candidate the heap knows about turns out to be pinned or
// still correlated.
func (ft *FrameTable) selectVictim(now, crtMillis int64) (int, error) {
	ft.mu.Lock()

	var deferred []victimEntry
	for {
		entry, ok := ft.victims.pop()
		if !ok {
			ft.mu.Unlock()
			ft.pushBack(deferred)
			return -1, ErrNoBufferAvailable
		}

		frame := ft.frames[entry.frameIdx]
		if !frame.claimForEviction() {
			continue // repinned since it was queued; try the next one
		}

		if resident := frame.Block(); resident != nil {
			elapsedMillis := (now - resident.lastReferenceTime) / 1_000_000
			if elapsedMillis <= crtMillis {
				frame.releaseClaim()
				deferred = append(deferred, entry)
				continue
			}
		}

		ft.unbindLocked(entry.frameIdx)
		ft.available--
		ft.mu.Unlock()
		ft.pushBack(deferred)
		return entry.frameIdx, nil
	}
}

// pushBack returns deferred candidates to the victim heap. Called
// without ft.mu held, matching markUnpinned/abortClaim's convention of
// touching the victim heap outside the table lock.
func (ft *FrameTable) pushBack(deferred []victimEntry) {
	for _, e := range deferred {
		ft.victims.push(e.frameIdx, e.key, e.empty)
	}
}

// markUnpinned returns idx to the victim pool with the given
// replacement key once its pin count has dropped to zero.
func (ft *FrameTable) markUnpinned(idx int, key int64) {
	ft.mu.Lock()
	ft.available++
	ft.mu.Unlock()
	ft.victims.push(idx, key, false)
}

// abortClaim restores idx to the empty victim pool after a claimed
// frame's I/O failed, so a failed swap-in doesn't leak a permanently
// unavailable frame.
func (ft *FrameTable) abortClaim(idx int) {
	ft.frames[idx].reset()
	ft.mu.Lock()
	ft.available++
	ft.mu.Unlock()
	ft.victims.push(idx, 0, true)
}

func (ft *FrameTable) availableCount() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.available
}
