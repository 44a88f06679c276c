package raftstore

import (
	"context"
	"math/rand"

	pberrors "github.com/pingcap/errors"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// defaultNextProposalIDSpace bounds the random correlation ids Propose
// assigns to normal proposals: every id is drawn from [0, 1<<62).
const defaultNextProposalIDSpace = 1 << 62

// RaftStore is the client-facing handle onto one peer's membership
// control surface: propose a join or removal, and ask who the current
// leader is. It is the RaftControl collaborator the HTTP front end and
// CLI use; it holds no raft state of its own beyond a handle to the
// peer's ProposalQueue and PeerFsm.
type RaftStore struct {
	id    uint64
	fsm   *PeerFsm
	queue *ProposalQueue
}

// NewRaftStore builds a RaftStore bound to one local peer.
func NewRaftStore(id uint64, fsm *PeerFsm, queue *ProposalQueue) *RaftStore {
	return &RaftStore{id: id, fsm: fsm, queue: queue}
}

// Join proposes adding nodeID as a voting member of the cluster. addr is
// carried as the ConfChange's opaque Context so the applying side can
// record where the new peer can be reached; quorumdb does not interpret
// it itself (peer addressing for the in-process VirtualNetwork is
// established out of band, at cluster construction time — see Bootstrap).
//
// This is a from-scratch implementation: the reference design this
// package is modeled on left RaftStore's join method an empty stub and
// deferred the real membership flow to this layer.
func (s *RaftStore) Join(ctx context.Context, nodeID uint64, addr string) error {
	return s.proposeConfChange(ctx, raftpb.ConfChange{
		Type:    raftpb.ConfChangeAddNode,
		NodeID:  nodeID,
		Context: []byte(addr),
	})
}

// Remove proposes removing nodeID from the cluster's voting membership.
func (s *RaftStore) Remove(ctx context.Context, nodeID uint64) error {
	return s.proposeConfChange(ctx, raftpb.ConfChange{
		Type:   raftpb.ConfChangeRemoveNode,
		NodeID: nodeID,
	})
}

func (s *RaftStore) proposeConfChange(ctx context.Context, cc raftpb.ConfChange) error {
	if !s.fsm.IsLeader() {
		if lead, ok := s.fsm.LeaderID(); ok {
			return pberrors.Errorf("not leader, current leader is %d", lead)
		}
		return errNotLeader
	}

	// A ctx timeout does not retract the proposal: it stays on the queue for
	// the Poller, which fails it closed (ProposalQueue.DrainFailed) if this
	// peer steps down first.
	proposal, ack := NewConfChangeProposal(cc)
	s.queue.Add(proposal)

	select {
	case ok := <-ack:
		if !ok {
			return errProposalDropped
		}
		return nil
	case <-ctx.Done():
		return errProposalTimedOut
	}
}

// LeaderID returns the peer id this node believes leads the cluster.
func (s *RaftStore) LeaderID() (uint64, bool) {
	return s.fsm.LeaderID()
}

// IsLeader reports whether this node believes itself to be the leader.
func (s *RaftStore) IsLeader() bool {
	return s.fsm.IsLeader()
}

// Propose submits a normal (non-configuration) write and blocks until it
// commits, fails, or ctx is done. payload is the opaque bytes to append to
// the replicated log (a JSON-encoded sqlstore.Request, in practice).
func (s *RaftStore) Propose(ctx context.Context, payload []byte) error {
	if !s.fsm.IsLeader() {
		if lead, ok := s.fsm.LeaderID(); ok {
			return pberrors.Errorf("not leader, current leader is %d", lead)
		}
		return errNotLeader
	}

	proposal, ack := NewNormalProposal(rand.Uint64()%defaultNextProposalIDSpace, payload)
	s.queue.Add(proposal)

	select {
	case ok := <-ack:
		if !ok {
			return errProposalDropped
		}
		return nil
	case <-ctx.Done():
		return errProposalTimedOut
	}
}
