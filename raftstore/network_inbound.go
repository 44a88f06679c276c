package raftstore

import (
	"sync"

	"github.com/google/btree"
)

// internalSender is the subset of PeerSender NetworkInbound actually needs:
// a send that carries raw raft protocol messages.
type internalSender = PeerSender

// proposalSender is the subset of PeerSender used to forward a proposal to
// another peer's queue — wired but not exercised by default, matching the
// virtual network's dormant proposal-forwarding path (see VirtualNetwork).
type proposalSender = PeerSender

// connEntry is the directory record held per connected receiver: a
// matched pair of senders plus the receiver id they both target, used both
// as the btree.Item key and the value the directory needs to return from
// a lookup.
type connEntry struct {
	receiverID uint64
	internal   internalSender
	proposal   proposalSender
}

func (e *connEntry) Less(than btree.Item) bool {
	return e.receiverID < than.(*connEntry).receiverID
}

// NetworkInbound is the directory of a single peer's outbound connections:
// for every other peer it knows about, it holds a matched pair of senders
// (one for raft protocol messages, one for proposal forwarding). Entries
// are kept in a btree keyed by receiver id rather than a map, so a
// full-directory scan would visit peers in a deterministic, ascending-id
// order; NetworkInbound itself only does keyed lookups and Size (Len).
type NetworkInbound struct {
	mu    sync.Mutex
	conns *btree.BTree
}

// NewNetworkInbound returns an empty directory.
func NewNetworkInbound() *NetworkInbound {
	return &NetworkInbound{conns: btree.New(8)}
}

// AddConn registers a connected pair of senders, both addressed to the
// same receiver. It panics if the two senders disagree about who is
// sending or who is receiving — that mismatch can only be a programming
// error in how the directory is wired up, not a runtime condition a caller
// should have to handle. Registering a second pair for a receiver id
// already present replaces the first (a reconnect).
func (n *NetworkInbound) AddConn(internal internalSender, proposal proposalSender) {
	if internal.SenderID() != proposal.SenderID() || internal.ReceiverID() != proposal.ReceiverID() {
		panic(errSenderMismatch)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conns.ReplaceOrInsert(&connEntry{
		receiverID: internal.ReceiverID(),
		internal:   internal,
		proposal:   proposal,
	})
}

// RemoveConn drops the connection pair for receiverID, if any. Removing an
// id that was never registered is a no-op.
func (n *NetworkInbound) RemoveConn(receiverID uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conns.Delete(&connEntry{receiverID: receiverID})
}

// GetInternalSender returns the raft-message sender for receiverID, and
// whether one is registered.
func (n *NetworkInbound) GetInternalSender(receiverID uint64) (internalSender, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	item := n.conns.Get(&connEntry{receiverID: receiverID})
	if item == nil {
		return nil, false
	}
	return item.(*connEntry).internal, true
}

// GetProposalSender returns the proposal-forwarding sender for receiverID,
// and whether one is registered.
func (n *NetworkInbound) GetProposalSender(receiverID uint64) (proposalSender, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	item := n.conns.Get(&connEntry{receiverID: receiverID})
	if item == nil {
		return nil, false
	}
	return item.(*connEntry).proposal, true
}

// Size reports how many peers this directory currently has a connection
// pair registered for.
func (n *NetworkInbound) Size() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.conns.Len()
}
