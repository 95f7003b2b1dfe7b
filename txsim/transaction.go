// Package txsim is a minimal transaction-shaped caller over the
// buffer pool: it pins and unpins blocks under a transaction number
// and flushes only the frames that transaction modified at commit.
// It deliberately has no concurrency manager and no recovery manager;
// it exists to exercise BufferPool.Pin/Unpin/FlushAllForTx the way a
// real transaction manager would, not to be one.
package txsim

import (
	"fmt"
	"sync/atomic"

	"lrukpool/bufferpool"
)

var nextTxNum int64

type pinnedBlock struct {
	blk   bufferpool.BlockId
	frame *bufferpool.Frame
}

// Transaction pins blocks through a BufferPool on behalf of a single
// logical unit of work and tracks which frames it has written to.
type Transaction struct {
	txNum  int64
	bp     *bufferpool.BufferPool
	pinned map[string]pinnedBlock
}

// NewTransaction allocates a fresh transaction number and binds it to
// bp.
func NewTransaction(bp *bufferpool.BufferPool) *Transaction {
	return &Transaction{
		txNum:  atomic.AddInt64(&nextTxNum, 1),
		bp:     bp,
		pinned: make(map[string]pinnedBlock),
	}
}

// TxNum returns the transaction's identifying number.
func (t *Transaction) TxNum() int64 { return t.txNum }

// Pin pins blk if this transaction hasn't already pinned it.
func (t *Transaction) Pin(blk bufferpool.BlockId) error {
	if _, exists := t.pinned[blk.String()]; exists {
		return nil
	}
	frame, err := t.bp.Pin(blk)
	if err != nil {
		return fmt.Errorf("txsim: pin block %v: %w", blk, err)
	}
	t.pinned[blk.String()] = pinnedBlock{blk: blk, frame: frame}
	return nil
}

// PinNew extends fileName by a new block, formats it, and pins it
// under this transaction.
func (t *Transaction) PinNew(fileName string, formatter bufferpool.PageFormatter) (bufferpool.BlockId, error) {
	frame, blk, err := t.bp.PinNew(fileName, formatter)
	if err != nil {
		return bufferpool.BlockId{}, fmt.Errorf("txsim: pin new block in %s: %w", fileName, err)
	}
	t.pinned[blk.String()] = pinnedBlock{blk: blk, frame: frame}
	return blk, nil
}

// Unpin releases this transaction's pin on blk, if it holds one.
func (t *Transaction) Unpin(blk bufferpool.BlockId) {
	key := blk.String()
	entry, exists := t.pinned[key]
	if !exists {
		return
	}
	t.bp.Unpin(entry.frame)
	delete(t.pinned, key)
}

// UnpinAll releases every block this transaction currently holds.
func (t *Transaction) UnpinAll() {
	for key, entry := range t.pinned {
		t.bp.Unpin(entry.frame)
		delete(t.pinned, key)
	}
}

// GetInt reads a 4-byte int from blk at offset. blk must already be
// pinned by this transaction.
func (t *Transaction) GetInt(blk bufferpool.BlockId, offset int) (int, error) {
	entry, exists := t.pinned[blk.String()]
	if !exists {
		return 0, fmt.Errorf("txsim: block %v not pinned by tx %d", blk, t.txNum)
	}
	return entry.frame.Contents().GetInt(offset)
}

// SetInt writes val at offset within blk and marks the frame modified
// by this transaction, so Commit's flush picks it up. blk must already
// be pinned by this transaction.
func (t *Transaction) SetInt(blk bufferpool.BlockId, offset, val int) error {
	entry, exists := t.pinned[blk.String()]
	if !exists {
		return fmt.Errorf("txsim: block %v not pinned by tx %d", blk, t.txNum)
	}
	if err := entry.frame.Contents().SetInt(offset, val); err != nil {
		return err
	}
	entry.frame.MarkModified(t.txNum, -1)
	return nil
}

// CompressedSnapshot gzips the current contents of blk for diagnostics
// or export (e.g. shipping a point-in-time copy of a page somewhere
// other than the database's own files). blk must already be pinned by
// this transaction.
func (t *Transaction) CompressedSnapshot(blk bufferpool.BlockId) ([]byte, error) {
	entry, exists := t.pinned[blk.String()]
	if !exists {
		return nil, fmt.Errorf("txsim: block %v not pinned by tx %d", blk, t.txNum)
	}
	return entry.frame.CompressedSnapshot()
}

// Commit flushes every frame this transaction modified and releases
// all of its pins.
func (t *Transaction) Commit() error {
	err := t.bp.FlushAllForTx(t.txNum)
	t.UnpinAll()
	return err
}
