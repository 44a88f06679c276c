// Package config loads a node's TOML configuration file: its raft id and
// data directory, tick durations, HTTP listen address, and the set of
// existing peers to join through on first start.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	units "github.com/docker/go-units"
)

// NodeConfig identifies this node and where it keeps its data.
type NodeConfig struct {
	ID      uint64 `toml:"id"`
	DataDir string `toml:"data-dir"`
}

// RaftConfig controls the raw raft node's timing.
type RaftConfig struct {
	ElectionTick  int    `toml:"election-tick"`
	HeartbeatTick int    `toml:"heartbeat-tick"`
	TickInterval  string `toml:"tick-interval"`
}

// TickDuration parses TickInterval, defaulting to 100ms if unset.
func (r RaftConfig) TickDuration() (time.Duration, error) {
	if r.TickInterval == "" {
		return 100 * time.Millisecond, nil
	}
	return time.ParseDuration(r.TickInterval)
}

// HTTPConfig controls the front-end listener.
type HTTPConfig struct {
	ListenAddr      string `toml:"listen-addr"`
	MaxRequestSize  string `toml:"max-request-size"`
}

// MaxRequestSizeBytes parses MaxRequestSize (e.g. "8MiB") into bytes,
// defaulting to 8MiB if unset.
func (h HTTPConfig) MaxRequestSizeBytes() (int64, error) {
	if h.MaxRequestSize == "" {
		return 8 * 1024 * 1024, nil
	}
	return units.RAMInBytes(h.MaxRequestSize)
}

// ClusterConfig controls how this node joins (or founds) a cluster.
type ClusterConfig struct {
	Bootstrap bool     `toml:"bootstrap"`
	Join      []string `toml:"join"`
}

// Config is the full node configuration file.
type Config struct {
	Node    NodeConfig    `toml:"node"`
	Raft    RaftConfig    `toml:"raft"`
	HTTP    HTTPConfig    `toml:"http"`
	Cluster ClusterConfig `toml:"cluster"`
}

// Load reads and parses the TOML file at path.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Raft.ElectionTick == 0 {
		cfg.Raft.ElectionTick = 10
	}
	if cfg.Raft.HeartbeatTick == 0 {
		cfg.Raft.HeartbeatTick = 3
	}
	if cfg.HTTP.ListenAddr == "" {
		cfg.HTTP.ListenAddr = "127.0.0.1:4001"
	}
	return &cfg, nil
}
