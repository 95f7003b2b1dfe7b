package bufferpool

import (
	"fmt"
	"time"
)

// Config holds the tunables a BufferPool needs at construction.
// Values normally arrive from the config package's YAML loader, but
// any caller can build one directly for tests.
type Config struct {
	// BufferCount is the fixed number of frames in the pool.
	BufferCount int

	// K is the LRU-K history depth. K=2 is the common case; K=1
	// degenerates to plain LRU.
	K int

	// CRT is the correlated reference period: repeated references to
	// the same block within this window are treated as one burst and
	// only advance the block's last-reference time, instead of each
	// one shifting the K-history.
	CRT time.Duration

	// RIT is the retained information period after which a block's
	// history may be discarded entirely if it hasn't been referenced
	// since. It is validated here but not consulted by the
	// replacement policy: this pool never runs a background history
	// reaper, since the frame array itself bounds total memory and a
	// block's history is freed as soon as its frame is reused. RIT is
	// carried so config files written for a history-reaping
	// implementation still validate against this one.
	RIT time.Duration

	// AnchorStripes is the number of striped locks guarding per-block
	// pin admission. Zero selects defaultAnchorStripes.
	AnchorStripes int
}

func (c Config) validate() error {
	if c.BufferCount <= 0 {
		return fmt.Errorf("bufferpool: config: BufferCount must be positive, got %d", c.BufferCount)
	}
	if c.K <= 0 {
		return fmt.Errorf("bufferpool: config: K must be positive, got %d", c.K)
	}
	if c.CRT < 0 {
		return fmt.Errorf("bufferpool: config: CRT must not be negative, got %s", c.CRT)
	}
	if c.RIT < 0 {
		return fmt.Errorf("bufferpool: config: RIT must not be negative, got %s", c.RIT)
	}
	if c.RIT != 0 && c.RIT < c.CRT {
		return fmt.Errorf("bufferpool: config: RIT (%s) must not be shorter than CRT (%s)", c.RIT, c.CRT)
	}
	if c.AnchorStripes < 0 {
		return fmt.Errorf("bufferpool: config: AnchorStripes must not be negative, got %d", c.AnchorStripes)
	}
	return nil
}
