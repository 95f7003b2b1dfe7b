package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"lrukpool/bufferpool"
	"lrukpool/config"
	"lrukpool/storageio"
	"lrukpool/txsim"
	"lrukpool/wal"
)

func checkError(err error, message string) {
	if err != nil {
		log.Fatalf("%s: %v", message, err)
	}
}

func main() {
	cfgPath := flag.String("config", "", "path to a lrukpool YAML config file")
	flag.Parse()

	var cfg *config.FileConfig
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		checkError(err, "failed to load config")
	} else {
		cfg = demoConfig()
	}

	fm, err := storageio.NewFileMgr(cfg.Storage.DBDirectory, cfg.Storage.BlockSize)
	checkError(err, "failed to initialize file manager")
	defer func() {
		checkError(fm.Close(), "failed to close file manager")
	}()

	lm, err := wal.NewLogMgr(fm, cfg.Storage.LogFile)
	checkError(err, "failed to initialize log manager")

	bp, err := bufferpool.NewBufferPool(fm, lm, cfg.BufferPoolConfig(), nil)
	checkError(err, "failed to initialize buffer pool")

	const dataFile = "datafile.dat"
	tx := txsim.NewTransaction(bp)

	blk, err := tx.PinNew(dataFile, func(page *bufferpool.Page) {
		checkError(page.SetInt(0, 0), "failed to format new page")
	})
	checkError(err, "failed to pin new block")
	fmt.Printf("Allocated block: %v\n", blk)

	checkError(tx.SetInt(blk, 0, 42), "failed to set int")
	val, err := tx.GetInt(blk, 0)
	checkError(err, "failed to get int")
	fmt.Printf("Read back value: %d\n", val)

	snapshot, err := tx.CompressedSnapshot(blk)
	checkError(err, "failed to snapshot block")
	fmt.Printf("Compressed snapshot of block %v: %d bytes\n", blk, len(snapshot))

	checkError(tx.Commit(), "failed to commit transaction")

	fmt.Printf("Blocks read: %d, blocks written: %d, available frames: %d\n",
		fm.BlocksRead(), fm.BlocksWritten(), bp.Available())
}

func demoConfig() *config.FileConfig {
	cfg := &config.FileConfig{}
	cfg.Storage.DBDirectory = filepath.Join(".", "mydb")
	cfg.Storage.BlockSize = 4096
	cfg.Storage.LogFile = "lrukpool.log"
	cfg.Buffer.Count = 64
	cfg.Buffer.LRUK = 2
	cfg.Buffer.CRTMillis = 100
	cfg.Buffer.RITMillis = 60_000
	cfg.Buffer.AnchorStripes = 1009
	return cfg
}
