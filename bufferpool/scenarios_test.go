package bufferpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Cold miss sequence: pinning N distinct blocks into an N-frame pool
// fills every frame from empty, with no eviction needed.
func TestScenarioColdMissSequenceFillsEveryFrame(t *testing.T) {
	bp, _, _ := newTestPool(t, 3, 2)

	seen := make(map[*Frame]bool)
	for i := 0; i < 3; i++ {
		f, _, err := bp.PinNew("data.dat", nil)
		require.NoError(t, err)
		require.False(t, seen[f], "each cold miss must land in a distinct frame")
		seen[f] = true
	}

	require.Equal(t, 0, bp.Available())
}

// CRT burst absorption: repeated pins of the same block within the
// correlated reference period only advance lastReferenceTime; the
// K-history is untouched, so the backward K-distance key doesn't
// change mid-burst.
func TestScenarioCRTBurstAbsorption(t *testing.T) {
	bp, _, clock := newTestPool(t, 2, 2)
	bp.crtMillis = 1000 // 1s correlated window

	_, blk, err := bp.PinNew("data.dat", nil)
	require.NoError(t, err)
	frame, err := bp.Pin(blk)
	require.NoError(t, err)
	bp.Unpin(frame)
	bp.Unpin(frame)

	resident := frame.Block()
	histBefore := append([]int64(nil), resident.hist...)

	for i := 0; i < 5; i++ {
		clock.Advance(100 * time.Millisecond)
		f, err := bp.Pin(blk)
		require.NoError(t, err)
		bp.Unpin(f)
	}

	require.Equal(t, histBefore, resident.hist, "references inside the correlated window must not shift history")
}

// Uncorrelated hit updates history: a reference after the correlated
// window has closed folds the elapsed time into the K-history instead
// of leaving it where the last burst left it.
func TestScenarioUncorrelatedHitUpdatesHistory(t *testing.T) {
	bp, _, clock := newTestPool(t, 2, 2)
	bp.crtMillis = 50

	_, blk, err := bp.PinNew("data.dat", nil)
	require.NoError(t, err)
	f1, err := bp.Pin(blk)
	require.NoError(t, err)
	bp.Unpin(f1)
	bp.Unpin(f1)

	resident := f1.Block()
	histBefore := append([]int64(nil), resident.hist...)

	clock.Advance(2 * time.Second) // well past the 50ms correlated window

	f2, err := bp.Pin(blk)
	require.NoError(t, err)
	bp.Unpin(f2)

	require.NotEqual(t, histBefore, resident.hist, "a reference outside the correlated window must update history")
}

// CRT guard blocks premature eviction: the sole unpinned block in a
// full pool is still inside its correlated reference window, so a
// miss for a different block must fail with ErrNoBufferAvailable
// rather than evict it early. Once the window has elapsed the same
// miss succeeds and takes over the frame.
func TestScenarioCRTGuardBlocksEvictionWithinWindow(t *testing.T) {
	bp, _, clock := newTestPool(t, 1, 2)
	bp.crtMillis = 1000 // 1s correlated window

	_, blkA, err := bp.PinNew("a.dat", nil)
	require.NoError(t, err)
	frameA, err := bp.Pin(blkA)
	require.NoError(t, err)
	bp.Unpin(frameA)
	bp.Unpin(frameA)

	clock.Advance(500 * time.Millisecond) // still inside the 1s window

	_, _, err = bp.PinNew("b.dat", nil)
	require.ErrorIs(t, err, ErrNoBufferAvailable, "block A is still inside its correlated window and must not be evicted yet")

	clock.Advance(600 * time.Millisecond) // 1100ms since A's last reference

	frameB, blkB, err := bp.PinNew("b.dat", nil)
	require.NoError(t, err)
	require.NotEqual(t, blkA, blkB)
	require.Equal(t, blkB.identity(), frameB.Block().identity())
}

// No victim available: once every frame is pinned, a further miss
// must fail with ErrNoBufferAvailable rather than block or panic.
func TestScenarioNoVictimAvailable(t *testing.T) {
	bp, _, _ := newTestPool(t, 2, 2)

	_, _, err := bp.PinNew("a.dat", nil)
	require.NoError(t, err)
	_, _, err = bp.PinNew("b.dat", nil)
	require.NoError(t, err)

	_, _, err = bp.PinNew("c.dat", nil)
	require.ErrorIs(t, err, ErrNoBufferAvailable)
}

// PinNew allocates and formats: the formatter callback runs on the
// freshly appended block before it is ever read back.
func TestScenarioPinNewAllocatesAndFormats(t *testing.T) {
	bp, _, _ := newTestPool(t, 1, 2)

	frame, blk, err := bp.PinNew("data.dat", func(p *Page) {
		require.NoError(t, p.SetInt(0, 123))
	})
	require.NoError(t, err)
	require.Equal(t, 0, blk.Number())

	val, err := frame.Contents().GetInt(0)
	require.NoError(t, err)
	require.Equal(t, 123, val)
}

// Concurrent same-block pin: two goroutines racing to Pin the same
// not-yet-resident block must agree on a single winning frame, and
// the frame must end up with a pin count of exactly 2.
func TestScenarioConcurrentSameBlockPinSharesOneFrame(t *testing.T) {
	bp, fm, _ := newTestPool(t, 2, 2)

	blk, err := fm.Append("shared.dat")
	require.NoError(t, err)

	var wg sync.WaitGroup
	frames := make([]*Frame, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			frames[i], errs[i] = bp.Pin(blk)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Same(t, frames[0], frames[1], "both goroutines must resolve to the same frame")
	require.Equal(t, 2, frames[0].pinCnt, "the shared frame must have been pinned exactly twice")
}
