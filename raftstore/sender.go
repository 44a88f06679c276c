// Package raftstore implements the peer-level consensus driver that sits
// between a raw raft node (package raft) and the rest of quorumdb: per-peer
// message routing (PeerSender/NetworkInbound/NetworkOutbound/VirtualNetwork),
// the proposal pipeline (Proposal/ProposalQueue), the peer state machine
// (PeerFsm/PeerFsmDelegate/Poller), and cluster membership (RaftStore).
package raftstore

import (
	"fmt"

	"github.com/ngaut/log"
)

// PeerSender is the ability to send a value to one specific peer's mailbox
// without blocking the caller and without reordering relative to other
// sends on the same PeerSender. Send takes the message as an interface{}
// so the same contract serves both raft protocol messages and in-flight
// proposals.
type PeerSender interface {
	Send(msg interface{}) error
	SenderID() uint64
	ReceiverID() uint64
}

// ChannelSender is the in-process reference implementation of PeerSender,
// built on a buffered Go channel. It is what VirtualNetwork wires peers
// together with; a real deployment would substitute a transport-backed
// PeerSender (gRPC, raw TCP, etc.) without changing any raftstore code,
// since nothing above this file depends on the channel itself.
type ChannelSender struct {
	senderID, receiverID uint64
	ch                    chan<- interface{}
}

// NewChannelSender creates a connected sender/receiver pair: the sender
// half is handed to the peer identified by senderID, and the returned
// channel is read by the peer identified by receiverID.
func NewChannelSender(senderID, receiverID uint64, bufSize int) (*ChannelSender, <-chan interface{}) {
	ch := make(chan interface{}, bufSize)
	return &ChannelSender{senderID: senderID, receiverID: receiverID, ch: ch}, ch
}

// Send pushes msg onto the channel. It never blocks indefinitely: a full
// channel indicates the receiver has fallen far behind or is gone, and the
// send is dropped rather than stalling the caller's event loop, matching
// PeerSender's "never reorders, never blocks the core loop" contract.
func (s *ChannelSender) Send(msg interface{}) error {
	select {
	case s.ch <- msg:
		return nil
	default:
		return fmt.Errorf("raftstore: channel from %d to %d is full, dropping message", s.senderID, s.receiverID)
	}
}

func (s *ChannelSender) SenderID() uint64   { return s.senderID }
func (s *ChannelSender) ReceiverID() uint64 { return s.receiverID }

// Close marks this sender as no longer needed. Closing the underlying
// channel is not safe from the sender side in general (multiple senders
// could share one receiver during reconnects), so Close only logs: the
// channel stays open and the receiver sees no disconnection, matching
// ChannelSender's original Drop-logs-and-moves-on semantics rather than a
// hard close.
func (s *ChannelSender) Close() {
	log.Infof("channel sender: closing from %d to %d", s.senderID, s.receiverID)
}
