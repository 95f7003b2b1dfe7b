package storageio

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"lrukpool/bufferpool"
)

func TestFileMgrWriteThenRead(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "lrukpool_test_"+time.Now().Format("20060102150405"))
	defer os.RemoveAll(tempDir)

	fm, err := NewFileMgr(tempDir, 256)
	if err != nil {
		t.Fatalf("NewFileMgr: %v", err)
	}
	defer fm.Close()

	blk, err := fm.Append("test.db")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	page := bufferpool.NewPage(256)
	if err := page.SetInt(0, 4096); err != nil {
		t.Fatalf("SetInt: %v", err)
	}
	if err := page.SetBytes(4, []byte("hello")); err != nil {
		t.Fatalf("SetBytes: %v", err)
	}
	if err := fm.Write(blk, page); err != nil {
		t.Fatalf("Write: %v", err)
	}

	readBack := bufferpool.NewPage(256)
	if err := fm.Read(blk, readBack); err != nil {
		t.Fatalf("Read: %v", err)
	}

	n, err := readBack.GetInt(0)
	if err != nil {
		t.Fatalf("GetInt: %v", err)
	}
	if n != 4096 {
		t.Errorf("expected 4096, got %d", n)
	}
	s, err := readBack.GetBytes(4)
	if err != nil {
		t.Fatalf("GetBytes: %v", err)
	}
	if string(s) != "hello" {
		t.Errorf("expected hello, got %s", s)
	}

	if got := fm.BlocksWritten(); got != 1 {
		t.Errorf("expected 1 block written, got %d", got)
	}
	if got := fm.BlocksRead(); got != 1 {
		t.Errorf("expected 1 block read, got %d", got)
	}
}

func TestFileMgrSizeGrowsOnAppend(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "lrukpool_test_"+time.Now().Format("20060102150405")+"_size")
	defer os.RemoveAll(tempDir)

	fm, err := NewFileMgr(tempDir, 128)
	if err != nil {
		t.Fatalf("NewFileMgr: %v", err)
	}
	defer fm.Close()

	n, err := fm.Size("growing.db")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected empty file to have 0 blocks, got %d", n)
	}

	for i := 0; i < 3; i++ {
		if _, err := fm.Append("growing.db"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	n, err = fm.Size("growing.db")
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 blocks after 3 appends, got %d", n)
	}
}
