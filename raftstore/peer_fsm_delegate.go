package raftstore

import (
	"github.com/ngaut/log"

	"go.etcd.io/etcd/raft/v3/raftpb"
)

// PeerFsmDelegate is the thin per-tick driver the Poller calls into. It
// owns no state of its own beyond the PeerFsm it wraps; splitting it out
// from PeerFsm keeps "what happens once per tick" (this file) separate
// from "what a single message/proposal/ready does" (peer_fsm.go).
type PeerFsmDelegate struct {
	fsm *PeerFsm
}

// NewPeerFsmDelegate wraps fsm.
func NewPeerFsmDelegate(fsm *PeerFsm) *PeerFsmDelegate {
	return &PeerFsmDelegate{fsm: fsm}
}

// HandleRaftMessage steps an inbound raft protocol message, logging rather
// than propagating a step error: a step failure here means the message was
// malformed or stale, which should not stop the peer's own event loop.
func (d *PeerFsmDelegate) HandleRaftMessage(msg raftpb.Message) {
	if err := d.fsm.OnPeerMessage(msg); err != nil {
		log.Warnf("peer %d: %v", d.fsm.ID(), err)
	}
}

// Tick advances the raw raft node's clock by one tick.
func (d *PeerFsmDelegate) Tick() {
	d.fsm.Tick()
}

// OnReady runs the peer's Ready cycle.
func (d *PeerFsmDelegate) OnReady() {
	d.fsm.OnReady()
}

// HandleProposals is a no-op unless this peer currently believes it is the
// leader. When it is, it walks the proposal queue from the first
// not-yet-proposed entry (entries already carrying a non-zero Proposed
// index are mid-flight, waiting on commit, not on being handed to raft)
// and proposes each one in turn.
func (d *PeerFsmDelegate) HandleProposals() {
	if !d.fsm.IsLeader() {
		return
	}
	for _, p := range d.fsm.queue.Pending() {
		switch {
		case p.Normal != nil:
			d.fsm.OnProposalNormal(p)
		case p.ConfChange != nil:
			d.fsm.OnProposalConfChange(p)
		case p.TransferLeader != nil:
			// Leader transfer is unimplemented (nothing here calls
			// raft.RawNode.TransferLeader); fail the proposal immediately
			// rather than leaving the caller waiting forever.
			p.settle(false)
		}
	}
}
