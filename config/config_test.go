package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadParsesBufferAndStorageSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lrukpool.yaml")

	yaml := `
storage:
  db_directory: ./mydb
  block_size: 4096
  log_file: lrukpool.log
buffer:
  buffer_count: 32
  LRU_K: 2
  CRT: 100
  RIT: 60000
  anchor_stripes: 509
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.BlockSize != 4096 {
		t.Errorf("expected block size 4096, got %d", cfg.Storage.BlockSize)
	}
	if cfg.Buffer.Count != 32 {
		t.Errorf("expected buffer count 32, got %d", cfg.Buffer.Count)
	}
	if cfg.Buffer.LRUK != 2 {
		t.Errorf("expected LRU_K 2, got %d", cfg.Buffer.LRUK)
	}

	bpCfg := cfg.BufferPoolConfig()
	if bpCfg.BufferCount != 32 || bpCfg.K != 2 {
		t.Fatalf("unexpected bufferpool config: %+v", bpCfg)
	}
	if bpCfg.CRT != 100*time.Millisecond {
		t.Errorf("expected CRT of 100ms, got %s", bpCfg.CRT)
	}
	if bpCfg.RIT != 60*time.Second {
		t.Errorf("expected RIT of 60s, got %s", bpCfg.RIT)
	}
	if bpCfg.AnchorStripes != 509 {
		t.Errorf("expected 509 anchor stripes, got %d", bpCfg.AnchorStripes)
	}
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml")); err == nil {
		t.Fatalf("expected an error loading a missing config file")
	}
}
