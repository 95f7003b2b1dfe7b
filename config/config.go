// Package config loads the YAML deployment configuration for a
// lrukpool instance: where the database files live and the
// replacement-policy tunables the buffer pool is constructed with.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"lrukpool/bufferpool"
)

// FileConfig is the on-disk shape of a lrukpool config file. Property
// names under buffer.* match the tuning knobs a deployment written
// against a history-reaping LRU-K implementation would already use
// (LRU_K, CRT, RIT), so existing config files still load even though
// this pool doesn't run a reaper.
type FileConfig struct {
	Storage struct {
		DBDirectory string `mapstructure:"db_directory"`
		BlockSize   int    `mapstructure:"block_size"`
		LogFile     string `mapstructure:"log_file"`
	} `mapstructure:"storage"`

	Buffer struct {
		Count         int   `mapstructure:"buffer_count"`
		LRUK          int   `mapstructure:"LRU_K"`
		CRTMillis     int64 `mapstructure:"CRT"`
		RITMillis     int64 `mapstructure:"RIT"`
		AnchorStripes int   `mapstructure:"anchor_stripes"`
	} `mapstructure:"buffer"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg FileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return &cfg, nil
}

// BufferPoolConfig converts the loaded file into a bufferpool.Config.
func (c *FileConfig) BufferPoolConfig() bufferpool.Config {
	return bufferpool.Config{
		BufferCount:   c.Buffer.Count,
		K:             c.Buffer.LRUK,
		CRT:           time.Duration(c.Buffer.CRTMillis) * time.Millisecond,
		RIT:           time.Duration(c.Buffer.RITMillis) * time.Millisecond,
		AnchorStripes: c.Buffer.AnchorStripes,
	}
}
