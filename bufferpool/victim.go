package bufferpool

import (
	"container/heap"
	"sync"
)

// victimEntry is a snapshot of a frame's replacement key at the
// moment it became eligible for eviction. Entries go stale the
// instant the frame is repinned or referenced again, and are never
// updated in place, which is what keeps the heap itself lock-cheap to
// maintain. selectVictim discards a popped entry whose frame is pinned
// at that moment; an entry whose frame has been unpinned again is used
// with the key it was pushed with, even if a later reference changed
// the block's backward K-distance.
type victimEntry struct {
	frameIdx int
	key      int64
	empty    bool // never-assigned frame: always the coldest candidate
}

// victimHeap orders candidates coldest-first: empty frames before any
// assigned frame, then ascending backward K-distance.
type victimHeap []victimEntry

func (h victimHeap) Len() int { return len(h) }

func (h victimHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.empty != b.empty {
		return a.empty
	}
	return a.key < b.key
}

func (h victimHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *victimHeap) Push(x any) { *h = append(*h, x.(victimEntry)) }

func (h *victimHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// victimSet holds lazily-invalidated eviction candidates for a
// FrameTable. A frame is pushed here as soon as it becomes unpinned;
// it is popped when the pool needs to evict something. Every popped
// candidate is only a hint — the caller must re-verify under the
// frame's own latch that the frame is still unpinned, since that may
// have changed since the entry was pushed, and that its resident
// block (if any) is outside its correlated reference window before
// treating it as an eviction target. The heap orders by backward
// K-distance alone; it has no notion of "now" and cannot enforce the
// CRT filter itself.
type victimSet struct {
	mu   sync.Mutex
	heap victimHeap
}

func newVictimSet() *victimSet {
	vs := &victimSet{}
	heap.Init(&vs.heap)
	return vs
}

func (vs *victimSet) push(frameIdx int, key int64, empty bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	heap.Push(&vs.heap, victimEntry{frameIdx: frameIdx, key: key, empty: empty})
}

// pop removes and returns the coldest remaining candidate.
func (vs *victimSet) pop() (victimEntry, bool) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.heap.Len() == 0 {
		return victimEntry{}, false
	}
	return heap.Pop(&vs.heap).(victimEntry), true
}

func (vs *victimSet) len() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return vs.heap.Len()
}
