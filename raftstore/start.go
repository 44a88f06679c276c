package raftstore

import (
	"github.com/ngaut/log"

	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// BootstrapConfig carries the per-peer knobs Start needs: its own id, tick
// counts, and whether it should seed itself as the sole founding member of
// a brand-new cluster (Initialize) or start "pending" and wait to be
// joined via a ConfChange carried in another peer's first message to it.
type BootstrapConfig struct {
	ID            uint64
	ElectionTick  int
	HeartbeatTick int
	Initialize    bool
}

// DefaultBootstrapConfig returns a BootstrapConfig using the package's
// default tick counts.
func DefaultBootstrapConfig(id uint64, initialize bool) BootstrapConfig {
	return BootstrapConfig{
		ID:            id,
		ElectionTick:  DefaultElectionTick,
		HeartbeatTick: DefaultHeartbeatTick,
		Initialize:    initialize,
	}
}

// Start builds and wires together everything one peer needs to run:
// in-memory raft storage, seeded (if Initialize) with a single-node
// founding snapshot, a PeerFsm bound to the given network directory and
// apply hook, and the Poller that will drive it. If Initialize is false,
// the peer's raft node is not built yet — PeerFsm stays pending until the
// first inbound message materializes it (see PeerFsm.materialize), the
// same way a joining peer in a real deployment has nothing to run until
// the cluster it is joining starts talking to it. It returns the
// RaftStore control handle and the Poller; the caller is responsible for
// running Poller.Run (normally in its own goroutine) and eventually
// calling Poller.Stop.
func Start(cfg BootstrapConfig, inbound *NetworkInbound, outbound *NetworkOutbound, queue *ProposalQueue, apply ApplyFunc) (*RaftStore, *Poller, error) {
	storage := raft.NewMemoryStorage()

	if cfg.Initialize {
		if err := storage.ApplySnapshot(raftpb.Snapshot{
			Metadata: raftpb.SnapshotMetadata{
				Index:     1,
				Term:      1,
				ConfState: raftpb.ConfState{Voters: []uint64{cfg.ID}},
			},
		}); err != nil {
			return nil, nil, err
		}
	}

	raftCfg := &raft.Config{
		ID:              cfg.ID,
		ElectionTick:    cfg.ElectionTick,
		HeartbeatTick:   cfg.HeartbeatTick,
		Storage:         storage,
		MaxSizePerMsg:   1024 * 1024,
		MaxInflightMsgs: 256,
		Logger:          raftLogger{},
	}

	var fsm *PeerFsm
	if cfg.Initialize {
		rn, err := raft.NewRawNode(raftCfg)
		if err != nil {
			return nil, nil, err
		}
		fsm = NewPeerFsm(cfg.ID, rn, nil, storage, inbound, outbound, queue, apply)
	} else {
		fsm = NewPeerFsm(cfg.ID, nil, raftCfg, storage, inbound, outbound, queue, apply)
	}

	delegate := NewPeerFsmDelegate(fsm)
	poller := NewPoller(cfg.ID, delegate, outbound, queue)
	store := NewRaftStore(cfg.ID, fsm, queue)

	log.Infof("peer %d: started (initialize=%v)", cfg.ID, cfg.Initialize)
	return store, poller, nil
}
