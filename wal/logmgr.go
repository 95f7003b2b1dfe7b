// Package wal implements the write-ahead log adapter the bufferpool
// package depends on through its LogManager interface: FlushTo must
// guarantee every record up to a given LSN is durable before the
// corresponding dirty page is allowed to reach disk.
package wal

import (
	"fmt"
	"sync"
	"unsafe"

	"lrukpool/bufferpool"
	"lrukpool/storageio"
)

type logError struct {
	Op  string
	Err error
}

func (e *logError) Error() string {
	return fmt.Sprintf("wal: %s: %v", e.Op, e.Err)
}

func (e *logError) Unwrap() error { return e.Err }

// LogMgr is a single-file, block-structured write-ahead log. Records
// are packed back-to-front within each block; Append returns the LSN
// assigned to the record just written.
type LogMgr struct {
	fm      *storageio.FileMgr
	mu      sync.Mutex
	logFile string

	currentBlock bufferpool.BlockId
	logPage      *bufferpool.Page

	latestLSN      int
	latestSavedLSN int
	logsize        int
}

// NewLogMgr opens (or creates) logFile within fm's directory,
// positioning at its last block.
func NewLogMgr(fm *storageio.FileMgr, logFile string) (*LogMgr, error) {
	if fm == nil {
		return nil, &logError{Op: "new", Err: fmt.Errorf("file manager cannot be nil")}
	}
	lm := &LogMgr{
		fm:      fm,
		logFile: logFile,
		logPage: bufferpool.NewPage(fm.BlockSize()),
	}

	logsize, err := fm.Size(logFile)
	if err != nil {
		return nil, &logError{Op: "new", Err: err}
	}
	lm.logsize = logsize

	if logsize == 0 {
		blk, err := lm.appendNewBlock()
		if err != nil {
			return nil, &logError{Op: "new", Err: err}
		}
		lm.currentBlock = blk
	} else {
		lm.currentBlock = bufferpool.NewBlockId(logFile, logsize-1)
		if err := fm.Read(lm.currentBlock, lm.logPage); err != nil {
			return nil, &logError{Op: "new", Err: err}
		}
	}
	return lm, nil
}

// CurrentLSN implements bufferpool.LogManager.
func (lm *LogMgr) CurrentLSN() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return lm.latestLSN
}

// FlushTo implements bufferpool.LogManager: it flushes the log block
// currently in memory if lsn has not already been made durable.
func (lm *LogMgr) FlushTo(lsn int) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	if lsn < lm.latestSavedLSN {
		return nil
	}
	return lm.flushLocked()
}

func (lm *LogMgr) flushLocked() error {
	if err := lm.fm.Write(lm.currentBlock, lm.logPage); err != nil {
		return &logError{Op: "flush", Err: err}
	}
	lm.latestSavedLSN = lm.latestLSN
	return nil
}

func (lm *LogMgr) appendNewBlock() (bufferpool.BlockId, error) {
	newBlock, err := lm.fm.Append(lm.logFile)
	if err != nil {
		return bufferpool.BlockId{}, err
	}
	if err := lm.logPage.SetInt(0, lm.fm.BlockSize()); err != nil {
		return bufferpool.BlockId{}, err
	}
	if err := lm.fm.Write(newBlock, lm.logPage); err != nil {
		return bufferpool.BlockId{}, err
	}
	lm.logsize++
	return newBlock, nil
}

// Append packs a record into the current block, spilling to a new
// block first if it doesn't fit, and returns the LSN assigned to it.
func (lm *LogMgr) Append(logrec []byte) (int, error) {
	if len(logrec) == 0 {
		return 0, &logError{Op: "append", Err: fmt.Errorf("empty log record")}
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	boundary, err := lm.logPage.GetInt(0)
	if err != nil {
		return 0, &logError{Op: "append", Err: err}
	}

	intBytes := int(unsafe.Sizeof(0))
	bytesNeeded := len(logrec) + intBytes

	if boundary-bytesNeeded < intBytes {
		if err := lm.flushLocked(); err != nil {
			return 0, &logError{Op: "append", Err: err}
		}
		blk, err := lm.appendNewBlock()
		if err != nil {
			return 0, &logError{Op: "append", Err: err}
		}
		lm.currentBlock = blk
		boundary, err = lm.logPage.GetInt(0)
		if err != nil {
			return 0, &logError{Op: "append", Err: err}
		}
	}

	recpos := boundary - bytesNeeded
	if err := lm.logPage.SetBytes(recpos, logrec); err != nil {
		return 0, &logError{Op: "append", Err: err}
	}
	if err := lm.logPage.SetInt(0, recpos); err != nil {
		return 0, &logError{Op: "append", Err: err}
	}

	lm.latestLSN++
	return lm.latestLSN, nil
}
