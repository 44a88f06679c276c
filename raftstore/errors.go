package raftstore

import "github.com/pingcap/errors"

var (
	errPeerNotFound                 = errors.New("raftstore: peer not found")
	errSenderMismatch                = errors.New("raftstore: sender/receiver id mismatch between internal and proposal channels")
	errTransferLeaderUnimplemented   = errors.New("raftstore: leader transfer is not implemented")
	errNotLeader                    = errors.New("raftstore: this node is not the leader")
	errProposalDropped               = errors.New("raftstore: proposal was dropped before it committed")
	errProposalTimedOut              = errors.New("raftstore: proposal timed out waiting for commit")
)
