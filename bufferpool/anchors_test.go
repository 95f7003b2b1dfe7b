package bufferpool

import "testing"

func TestAnchorTableStripeForIsStableForSameBlock(t *testing.T) {
	at := newAnchorTable(16)
	blk := NewBlockId("data.dat", 5)

	s1 := at.stripeFor(blk)
	s2 := at.stripeFor(blk)
	if s1 != s2 {
		t.Errorf("the same block must always hash to the same stripe")
	}
}

func TestAnchorTableDefaultsWhenSizeIsZero(t *testing.T) {
	at := newAnchorTable(0)
	if len(at.stripes) != defaultAnchorStripes {
		t.Errorf("expected %d default stripes, got %d", defaultAnchorStripes, len(at.stripes))
	}
}
