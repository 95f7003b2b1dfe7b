package bufferpool

import (
	"fmt"
	"sync"
)

// fakeFileManager is an in-memory FileManager test double: no disk
// involved, so tests can assert on exact read/write counts and
// trigger I/O failures deterministically.
type fakeFileManager struct {
	mu        sync.Mutex
	blockSize int
	files     map[string][][]byte

	reads, writes int
	failRead      map[blockIdentity]bool
}

func newFakeFileManager(blockSize int) *fakeFileManager {
	return &fakeFileManager{
		blockSize: blockSize,
		files:     make(map[string][][]byte),
		failRead:  make(map[blockIdentity]bool),
	}
}

func (f *fakeFileManager) Read(blk BlockId, page *Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.failRead[blk.identity()] {
		return fmt.Errorf("fakeFileManager: simulated read failure for %v", blk)
	}
	blocks := f.files[blk.fileName]
	if blk.blockNumber >= len(blocks) {
		return fmt.Errorf("fakeFileManager: block %v out of range", blk)
	}
	copy(page.Contents(), blocks[blk.blockNumber])
	return nil
}

func (f *fakeFileManager) Write(blk BlockId, page *Page) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	blocks := f.files[blk.fileName]
	for blk.blockNumber >= len(blocks) {
		blocks = append(blocks, make([]byte, f.blockSize))
	}
	stored := make([]byte, f.blockSize)
	copy(stored, page.Contents())
	blocks[blk.blockNumber] = stored
	f.files[blk.fileName] = blocks
	return nil
}

func (f *fakeFileManager) Append(fileName string) (BlockId, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blocks := f.files[fileName]
	blk := NewBlockId(fileName, len(blocks))
	f.files[fileName] = append(blocks, make([]byte, f.blockSize))
	return blk, nil
}

func (f *fakeFileManager) Size(fileName string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files[fileName]), nil
}

func (f *fakeFileManager) BlockSize() int { return f.blockSize }

// fakeLogManager is a no-op LogManager test double: it records every
// FlushTo call but never actually touches disk.
type fakeLogManager struct {
	mu      sync.Mutex
	lsn     int
	flushed []int
}

func (l *fakeLogManager) CurrentLSN() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lsn
}

func (l *fakeLogManager) FlushTo(lsn int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushed = append(l.flushed, lsn)
	return nil
}

func testConfig(bufferCount, k int) Config {
	return Config{
		BufferCount:   bufferCount,
		K:             k,
		CRT:           0,
		RIT:           0,
		AnchorStripes: 7,
	}
}
