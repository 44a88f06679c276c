package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[node]
id = 1
data-dir = "/var/lib/quorumd/1"

[raft]
election-tick = 12
heartbeat-tick = 4
tick-interval = "200ms"

[http]
listen-addr = "127.0.0.1:4001"
max-request-size = "8MiB"

[cluster]
bootstrap = true
join = ["2=127.0.0.1:4002"]
`

func writeConfig(t *testing.T, contents string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "quorumd.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesAllSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Equal(t, uint64(1), cfg.Node.ID)
	require.Equal(t, "/var/lib/quorumd/1", cfg.Node.DataDir)
	require.Equal(t, 12, cfg.Raft.ElectionTick)
	require.Equal(t, 4, cfg.Raft.HeartbeatTick)

	tick, err := cfg.Raft.TickDuration()
	require.NoError(t, err)
	require.Equal(t, 200*time.Millisecond, tick)

	size, err := cfg.HTTP.MaxRequestSizeBytes()
	require.NoError(t, err)
	require.Equal(t, int64(8*1024*1024), size)

	require.True(t, cfg.Cluster.Bootstrap)
	require.Equal(t, []string{"2=127.0.0.1:4002"}, cfg.Cluster.Join)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[node]\nid = 1\n"))
	require.NoError(t, err)

	require.Equal(t, 10, cfg.Raft.ElectionTick)
	require.Equal(t, 3, cfg.Raft.HeartbeatTick)
	require.Equal(t, "127.0.0.1:4001", cfg.HTTP.ListenAddr)

	tick, err := cfg.Raft.TickDuration()
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, tick)
}
