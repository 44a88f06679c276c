package raftstore

import (
	"sync"

	"github.com/ngaut/log"
	"github.com/opentracing/opentracing-go"
	pberrors "github.com/pingcap/errors"

	"go.etcd.io/etcd/raft/v3"
	"go.etcd.io/etcd/raft/v3/raftpb"
)

// ApplyFunc is handed a committed normal entry's opaque payload. It is
// wired by Bootstrap to sqlstore.Engine.Apply. An error here is logged and
// otherwise ignored: a bad SQL payload is a state-machine-level failure,
// not a raft protocol violation, so the peer keeps applying subsequent
// entries in order rather than treating the failure as fatal.
type ApplyFunc func(payload []byte) error

// leaderState is the only part of a peer's raft state ever read outside
// the Poller goroutine: the HTTP front end, the CLI, and tests all call
// PeerFsm.IsLeader/LeaderID from their own goroutines while the Poller is
// concurrently mutating the raw raft node. It is refreshed from the raft
// node's SoftState — itself only ever read on the Poller goroutine — at
// construction and after every Ready cycle, and read through a mutex by
// everyone else.
type leaderState struct {
	mu       sync.Mutex
	isLeader bool
	leaderID uint64
}

func (ls *leaderState) set(isLeader bool, leaderID uint64) {
	ls.mu.Lock()
	ls.isLeader, ls.leaderID = isLeader, leaderID
	ls.mu.Unlock()
}

func (ls *leaderState) get() (isLeader bool, leaderID uint64) {
	ls.mu.Lock()
	isLeader, leaderID = ls.isLeader, ls.leaderID
	ls.mu.Unlock()
	return
}

func leaderInfoFromSoftState(selfID uint64, ss raft.SoftState) (isLeader bool, leaderID uint64) {
	return ss.RaftState == raft.StateLeader && ss.Lead == selfID, ss.Lead
}

// PeerFsm owns one peer's raw raft node and drives it through a single
// tick/message/ready cycle at a time. It is not safe for concurrent use;
// the Poller is the only caller — except for IsLeader/LeaderID, which are
// safe from any goroutine (see leaderState).
//
// RaftGroup is nil for a peer started pending (see Start's Initialize
// flag): it is not a founding member of any cluster yet and has no raft
// node of its own until it is materialized from the first inbound raft
// message addressed to it, at which point pendingConfig is consumed and
// cleared.
type PeerFsm struct {
	id uint64

	RaftGroup     *raft.RawNode
	pendingConfig *raft.Config

	inbound  *NetworkInbound
	outbound *NetworkOutbound
	queue    *ProposalQueue
	storage  raft.Storage

	apply ApplyFunc

	tracer opentracing.Tracer

	leader leaderState
}

// NewPeerFsm constructs a PeerFsm. Exactly one of rn/pendingConfig is
// non-nil: rn for a peer that already has a raft node (a cluster's
// founding member), pendingConfig for a peer that must wait for its
// first inbound raft message to materialize one (see PeerFsm.materialize).
// inbound is used to find the PeerSender for a Ready's outbound messages;
// queue is this peer's own ProposalQueue, drained in commit order as
// entries are applied.
func NewPeerFsm(id uint64, rn *raft.RawNode, pendingConfig *raft.Config, storage raft.Storage, inbound *NetworkInbound, outbound *NetworkOutbound, queue *ProposalQueue, apply ApplyFunc) *PeerFsm {
	f := &PeerFsm{
		id:            id,
		RaftGroup:     rn,
		pendingConfig: pendingConfig,
		inbound:       inbound,
		outbound:      outbound,
		queue:         queue,
		storage:       storage,
		apply:         apply,
		tracer:        opentracing.NoopTracer{},
	}
	if rn != nil {
		f.leader.set(leaderInfoFromSoftState(id, rn.Status().SoftState))
	}
	return f
}

// SetTracer overrides the tracer used to span each onReady apply cycle.
// Defaults to a no-op tracer; inject a real one to get onReady spans.
func (f *PeerFsm) SetTracer(t opentracing.Tracer) { f.tracer = t }

// ID returns this peer's raft id.
func (f *PeerFsm) ID() uint64 { return f.id }

// IsLeader reports whether this peer currently believes it is the
// leader, as of the most recently processed Ready. Safe to call from any
// goroutine.
func (f *PeerFsm) IsLeader() bool {
	isLeader, _ := f.leader.get()
	return isLeader
}

// LeaderID returns the peer id this node currently believes leads the
// cluster, or (0, false) if no leader is known, as of the most recently
// processed Ready. Safe to call from any goroutine.
func (f *PeerFsm) LeaderID() (uint64, bool) {
	_, leaderID := f.leader.get()
	return leaderID, leaderID != 0
}

// Tick advances the raw raft node's logical clock by one tick. A no-op
// while this peer is still pending (no raft node to tick).
func (f *PeerFsm) Tick() {
	if f.RaftGroup == nil {
		return
	}
	f.RaftGroup.Tick()
}

// isInitialRaftMessage reports whether msg is a type that can legitimately
// be the first message a brand-new peer ever sees: every message type an
// existing member of a cluster would send when trying to reach a peer it
// believes exists but this process has not yet materialized a raft node
// for.
func isInitialRaftMessage(msg raftpb.Message) bool {
	switch msg.Type {
	case raftpb.MsgApp, raftpb.MsgHeartbeat, raftpb.MsgSnap, raftpb.MsgVote:
		return true
	default:
		return false
	}
}

// materialize builds this peer's raft node from its pendingConfig, the
// first time a message arrives for a peer that was started pending (see
// Start's Initialize flag and BootstrapConfig's doc comment). The node's
// id is already known — it is this peer's own transport id, fixed at
// Start time by how it was wired into the network — so there is nothing
// to learn from msg beyond "a cluster member is trying to reach me now".
func (f *PeerFsm) materialize(msg raftpb.Message) {
	rn, err := raft.NewRawNode(f.pendingConfig)
	if err != nil {
		log.Errorf("peer %d: failed to materialize raft group from initial %s sent by %d: %v", f.id, msg.Type, msg.From, err)
		return
	}
	log.Infof("peer %d: materializing raft group from initial %s sent by %d", f.id, msg.Type, msg.From)
	f.RaftGroup = rn
	f.pendingConfig = nil
	f.leader.set(leaderInfoFromSoftState(f.id, rn.Status().SoftState))
}

// OnPeerMessage steps an inbound raft protocol message into the raw raft
// node, materializing this peer's raft node first if it is still pending
// and msg is a type that can found one. A pending peer that receives
// anything else has nothing to do with it yet.
func (f *PeerFsm) OnPeerMessage(msg raftpb.Message) error {
	if f.RaftGroup == nil {
		if !isInitialRaftMessage(msg) {
			return pberrors.Errorf("peer %d: dropping %s from %d before joining any raft group", f.id, msg.Type, msg.From)
		}
		f.materialize(msg)
	}
	if err := f.RaftGroup.Step(msg); err != nil {
		return pberrors.Annotatef(err, "peer %d: step message from %d", f.id, msg.From)
	}
	return nil
}

// OnProposalNormal hands a normal write to the raw raft node. It compares
// the log's last index before and after proposing to detect whether the
// leader actually accepted the entry (a proposal can silently be dropped,
// e.g. if this peer is not — or is no longer — the leader by the time the
// call reaches it). On success, p.Proposed is set to the index the entry
// was appended at; on failure the proposal is settled false immediately,
// since no commit will ever follow for an entry raft never appended.
func (f *PeerFsm) OnProposalNormal(p *Proposal) {
	if !f.IsLeader() {
		p.settle(false)
		return
	}
	preLastIndex := f.RaftGroup.Status().Progress[f.id].Match
	if err := f.RaftGroup.Propose(p.Normal.Payload); err != nil {
		log.Warnf("peer %d: propose normal entry failed: %v", f.id, err)
		p.settle(false)
		return
	}
	postLastIndex := f.RaftGroup.Status().Progress[f.id].Match
	if postLastIndex == preLastIndex {
		p.settle(false)
		return
	}
	p.Proposed = postLastIndex
}

// OnProposalConfChange mirrors OnProposalNormal for membership changes.
func (f *PeerFsm) OnProposalConfChange(p *Proposal) {
	if !f.IsLeader() {
		p.settle(false)
		return
	}
	preLastIndex := f.RaftGroup.Status().Progress[f.id].Match
	if err := f.RaftGroup.ProposeConfChange(*p.ConfChange); err != nil {
		log.Warnf("peer %d: propose conf change failed: %v", f.id, err)
		p.settle(false)
		return
	}
	postLastIndex := f.RaftGroup.Status().Progress[f.id].Match
	if postLastIndex == preLastIndex {
		p.settle(false)
		return
	}
	p.Proposed = postLastIndex
}

// OnReady runs the Ready cycle: persist newly-appended entries and the new
// HardState (in memory — see raft.MemoryStorage, no disk durability is
// contracted), apply an incoming snapshot if present, send outbound
// messages to their PeerSenders, apply committed entries (dispatching
// ConfChange entries to the raw raft node's membership and normal entries
// to ApplyFunc and, while this peer is leader, popping the matching
// proposal off the front of the queue as each non-empty entry commits in
// order), refresh the cached leader state from the Ready's SoftState
// (failing every queued proposal if this peer just stepped down), and
// finally advance the raw raft node past this Ready. A no-op while this
// peer is still pending.
func (f *PeerFsm) OnReady() {
	if f.RaftGroup == nil || !f.RaftGroup.HasReady() {
		return
	}
	span := f.tracer.StartSpan("peer_fsm.on_ready")
	defer span.Finish()

	rd := f.RaftGroup.Ready()

	if ms, ok := f.storageForAppend(); ok {
		if len(rd.Entries) > 0 {
			if err := ms.Append(rd.Entries); err != nil {
				log.Errorf("peer %d: append entries failed: %v", f.id, err)
			}
		}
		if !raft.IsEmptyHardState(rd.HardState) {
			ms.SetHardState(rd.HardState)
		}
		if !raft.IsEmptySnap(&rd.Snapshot) {
			if err := ms.ApplySnapshot(rd.Snapshot); err != nil {
				log.Errorf("peer %d: apply snapshot failed: %v", f.id, err)
			}
		}
	}

	for _, msg := range rd.Messages {
		sender, ok := f.inbound.GetInternalSender(msg.To)
		if !ok {
			log.Warnf("peer %d: no sender registered for peer %d, dropping %s", f.id, msg.To, msg.Type)
			continue
		}
		if err := sender.Send(msg); err != nil {
			log.Warnf("peer %d: send to %d failed: %v", f.id, msg.To, err)
		}
	}

	for i := range rd.CommittedEntries {
		entry := rd.CommittedEntries[i]
		f.applyCommittedEntry(&entry)
	}

	if rd.SoftState != nil {
		wasLeader := f.IsLeader()
		f.leader.set(leaderInfoFromSoftState(f.id, *rd.SoftState))
		if wasLeader && !f.IsLeader() {
			f.queue.DrainFailed()
		}
	}

	f.RaftGroup.Advance(rd)
}

// storageForAppend exposes the MemoryStorage behind this peer's raw raft
// node, if the backing Storage implementation supports the mutating
// methods Ready-processing needs (it always does for quorumdb, since
// Bootstrap only ever constructs raft.MemoryStorage — persistent storage
// engines are explicitly out of scope).
func (f *PeerFsm) storageForAppend() (*raft.MemoryStorage, bool) {
	ms, ok := f.storage.(*raft.MemoryStorage)
	return ms, ok
}

// applyCommittedEntry dispatches a single committed entry: a ConfChange
// entry updates raw raft node membership; a normal entry is handed to
// ApplyFunc. An entry with no data is the no-op marker raft appends when
// a new term starts — there is nothing to apply and, critically, nothing
// to ack, since it was never anyone's proposal; skipping it here (rather
// than after the switch) keeps it from popping and falsely acking
// whatever proposal happens to be sitting at the front of the queue.
func (f *PeerFsm) applyCommittedEntry(entry *raftpb.Entry) {
	if len(entry.Data) == 0 {
		return
	}
	switch entry.Type {
	case raftpb.EntryConfChange:
		var cc raftpb.ConfChange
		if err := cc.Unmarshal(entry.Data); err != nil {
			log.Errorf("peer %d: malformed ConfChange entry at index %d: %v", f.id, entry.Index, err)
			panic(pberrors.Annotatef(err, "peer %d: malformed ConfChange entry", f.id))
		}
		f.RaftGroup.ApplyConfChange(cc)
	default:
		if err := f.apply(entry.Data); err != nil {
			log.Warnf("peer %d: applying entry %d failed: %v", f.id, entry.Index, err)
		}
	}

	if f.IsLeader() {
		if p := f.queue.Remove(); p != nil {
			p.settle(true)
		}
	}
}
