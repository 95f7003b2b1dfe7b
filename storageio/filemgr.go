// Package storageio implements the block-level disk I/O adapter the
// bufferpool package depends on through its FileManager interface.
package storageio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"lrukpool/bufferpool"
)

// FileMgr performs block-level reads, writes, and appends against
// files rooted at a single directory, caching open file handles.
type FileMgr struct {
	dbDirectory string
	blocksize   int
	isNew       bool

	openFiles     map[string]*os.File
	openFilesLock sync.Mutex

	mutex sync.RWMutex

	// blocksRead/blocksWritten are touched under fm.mutex's read lock
	// by concurrent Read calls, so they're atomics rather than plain
	// ints despite the rest of this type being mutex-guarded.
	blocksRead    int64
	blocksWritten int64
}

var seekErrFormat = "failed to seek to offset %d in file %s: %w"

// NewFileMgr opens (creating if necessary) a database directory and
// removes any leftover .tmp files from a prior crash.
func NewFileMgr(dbDirectory string, blocksize int) (*FileMgr, error) {
	fm := &FileMgr{
		dbDirectory: dbDirectory,
		blocksize:   blocksize,
		openFiles:   make(map[string]*os.File),
	}

	info, err := os.Stat(dbDirectory)
	switch {
	case os.IsNotExist(err):
		fm.isNew = true
		if err := os.MkdirAll(dbDirectory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dbDirectory, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to access directory %s: %w", dbDirectory, err)
	case !info.IsDir():
		return nil, fmt.Errorf("path %s is not a directory", dbDirectory)
	}

	files, err := os.ReadDir(dbDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dbDirectory, err)
	}
	for _, file := range files {
		if !file.IsDir() && filepath.Ext(file.Name()) == ".tmp" {
			tempPath := filepath.Join(dbDirectory, file.Name())
			if err := os.Remove(tempPath); err != nil {
				return nil, fmt.Errorf("failed to remove temporary file %s: %w", tempPath, err)
			}
		}
	}
	return fm, nil
}

// getFile returns a cached open handle for filename, opening it on
// first use.
func (fm *FileMgr) getFile(filename string) (*os.File, error) {
	fm.openFilesLock.Lock()
	defer fm.openFilesLock.Unlock()

	if f, exists := fm.openFiles[filename]; exists {
		return f, nil
	}
	filePath := filepath.Join(fm.dbDirectory, filename)
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	fm.openFiles[filename] = f
	return f, nil
}

// Read implements bufferpool.FileManager.
func (fm *FileMgr) Read(blk bufferpool.BlockId, page *bufferpool.Page) error {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()

	f, err := fm.getFile(blk.FileName())
	if err != nil {
		return fmt.Errorf("failed to get file for block %v: %w", blk, err)
	}

	offset := int64(blk.Number() * fm.blocksize)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf(seekErrFormat, offset, blk.FileName(), err)
	}
	bytesRead, err := f.Read(page.Contents())
	if err != nil {
		return fmt.Errorf("failed to read block %v: %w", blk, err)
	}
	if bytesRead != fm.blocksize {
		return fmt.Errorf("incomplete read: expected %d bytes, got %d", fm.blocksize, bytesRead)
	}

	atomic.AddInt64(&fm.blocksRead, 1)
	return nil
}

// Write implements bufferpool.FileManager.
func (fm *FileMgr) Write(blk bufferpool.BlockId, page *bufferpool.Page) error {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	f, err := fm.getFile(blk.FileName())
	if err != nil {
		return fmt.Errorf("failed to get file for block %v: %w", blk, err)
	}

	offset := int64(blk.Number() * fm.blocksize)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf(seekErrFormat, offset, blk.FileName(), err)
	}
	bytesWritten, err := f.Write(page.Contents())
	if err != nil {
		return fmt.Errorf("failed to write block %v: %w", blk, err)
	}
	if bytesWritten != fm.blocksize {
		return fmt.Errorf("incomplete write: expected %d bytes, wrote %d", fm.blocksize, bytesWritten)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync file %s: %w", blk.FileName(), err)
	}

	atomic.AddInt64(&fm.blocksWritten, 1)
	return nil
}

// Append implements bufferpool.FileManager.
func (fm *FileMgr) Append(filename string) (bufferpool.BlockId, error) {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()

	newBlkNum, err := fm.lengthLocked(filename)
	if err != nil {
		return bufferpool.BlockId{}, fmt.Errorf("failed to determine length for file %s: %w", filename, err)
	}
	blk := bufferpool.NewBlockId(filename, newBlkNum)
	emptyBlock := make([]byte, fm.blocksize)

	f, err := fm.getFile(filename)
	if err != nil {
		return bufferpool.BlockId{}, fmt.Errorf("failed to get file for append: %w", err)
	}
	offset := int64(newBlkNum * fm.blocksize)
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return bufferpool.BlockId{}, fmt.Errorf("failed to seek to offset %d in file %s: %w", offset, filename, err)
	}
	bytesWritten, err := f.Write(emptyBlock)
	if err != nil {
		return bufferpool.BlockId{}, fmt.Errorf("failed to write new block %v: %w", blk, err)
	}
	if bytesWritten != fm.blocksize {
		return bufferpool.BlockId{}, fmt.Errorf("incomplete write: expected %d bytes, wrote %d", fm.blocksize, bytesWritten)
	}
	if err := f.Sync(); err != nil {
		return bufferpool.BlockId{}, fmt.Errorf("failed to sync file %s: %w", filename, err)
	}
	return blk, nil
}

// Size implements bufferpool.FileManager, returning the file's length
// in blocks.
func (fm *FileMgr) Size(filename string) (int, error) {
	fm.mutex.RLock()
	defer fm.mutex.RUnlock()
	return fm.lengthLocked(filename)
}

// lengthLocked returns the number of blocks in filename. The caller
// must hold fm.mutex.
func (fm *FileMgr) lengthLocked(filename string) (int, error) {
	f, err := fm.getFile(filename)
	if err != nil {
		return 0, fmt.Errorf("failed to get file %s: %w", filename, err)
	}
	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	return int(stat.Size() / int64(fm.blocksize)), nil
}

// BlockSize implements bufferpool.FileManager.
func (fm *FileMgr) BlockSize() int { return fm.blocksize }

// IsNew reports whether the database directory was created by this
// call to NewFileMgr.
func (fm *FileMgr) IsNew() bool { return fm.isNew }

// BlocksRead returns the total number of blocks read since startup.
func (fm *FileMgr) BlocksRead() int { return int(atomic.LoadInt64(&fm.blocksRead)) }

// BlocksWritten returns the total number of blocks written since
// startup.
func (fm *FileMgr) BlocksWritten() int { return int(atomic.LoadInt64(&fm.blocksWritten)) }

// Close closes every open file handle.
func (fm *FileMgr) Close() error {
	fm.mutex.Lock()
	defer fm.mutex.Unlock()
	fm.openFilesLock.Lock()
	defer fm.openFilesLock.Unlock()

	var firstErr error
	for filename, f := range fm.openFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close file %s: %w", filename, err)
		}
		delete(fm.openFiles, filename)
	}
	return firstErr
}
