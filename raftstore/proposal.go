package raftstore

import "go.etcd.io/etcd/raft/v3/raftpb"

// Proposal is a tagged union of the three things a client can ask the
// leader to commit: a normal (opaque-payload) write, a membership change,
// or — unimplemented, see TransferLeader below — a leadership transfer.
// Exactly one of Normal/ConfChange/TransferLeader is set.
//
// Proposed is the raft log index the entry was appended at once the
// leader has accepted it (0 while still queued). Ack receives exactly one
// value: true once the entry commits, false if the leader determines the
// proposal was dropped (e.g. a concurrent conf change was already
// pending) or the peer stepped down before committing it.
type Proposal struct {
	Normal         *NormalProposal
	ConfChange     *raftpb.ConfChange
	TransferLeader *uint64

	Proposed uint64
	Ack      chan bool
}

// NormalProposal is the payload of a non-configuration write: an opaque
// byte string (the JSON-encoded SQL request, see sqlstore) tagged with a
// correlation id that RaftStore.Propose draws at random. Only Payload is
// written to the raft log; the id stays on the local Proposal.
type NormalProposal struct {
	ID      uint64
	Payload []byte
}

// NewNormalProposal builds a Proposal carrying a normal write and the
// channel its ack will arrive on.
func NewNormalProposal(id uint64, payload []byte) (*Proposal, <-chan bool) {
	ack := make(chan bool, 1)
	return &Proposal{
		Normal: &NormalProposal{ID: id, Payload: payload},
		Ack:    ack,
	}, ack
}

// NewConfChangeProposal builds a Proposal carrying a membership change and
// the channel its ack will arrive on.
func NewConfChangeProposal(cc raftpb.ConfChange) (*Proposal, <-chan bool) {
	ack := make(chan bool, 1)
	return &Proposal{
		ConfChange: &cc,
		Ack:        ack,
	}, ack
}

// Data returns the raft log entry payload this proposal should carry, and
// whether the entry is a configuration change.
func (p *Proposal) Data() (data []byte, isConfChange bool, err error) {
	switch {
	case p.Normal != nil:
		return p.Normal.Payload, false, nil
	case p.ConfChange != nil:
		data, err := p.ConfChange.Marshal()
		return data, true, err
	default:
		// TransferLeader proposals never reach the raw raft log: leader
		// transfer is intentionally unimplemented.
		return nil, false, errTransferLeaderUnimplemented
	}
}

// settle sends ok on the ack channel without blocking: if the channel's
// single buffered slot is already full, ok is discarded.
func (p *Proposal) settle(ok bool) {
	select {
	case p.Ack <- ok:
	default:
	}
}
