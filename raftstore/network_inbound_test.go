package raftstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNetworkInboundAddAndLookup(t *testing.T) {
	n := NewNetworkInbound()

	i1, _ := NewChannelSender(1, 2, 1)
	p1, _ := NewChannelSender(1, 2, 1)
	n.AddConn(i1, p1)

	i2, _ := NewChannelSender(1, 3, 1)
	p2, _ := NewChannelSender(1, 3, 1)
	n.AddConn(i2, p2)

	// reconnecting to the same receiver replaces the existing entry
	// rather than growing the directory.
	i1b, _ := NewChannelSender(1, 2, 1)
	p1b, _ := NewChannelSender(1, 2, 1)
	n.AddConn(i1b, p1b)

	require.Equal(t, 2, n.Size())

	sender, ok := n.GetInternalSender(2)
	require.True(t, ok)
	require.Equal(t, uint64(2), sender.ReceiverID())

	_, ok = n.GetInternalSender(999)
	require.False(t, ok)
}

func TestNetworkInboundRemoveConn(t *testing.T) {
	n := NewNetworkInbound()

	i1, _ := NewChannelSender(1, 2, 1)
	p1, _ := NewChannelSender(1, 2, 1)
	n.AddConn(i1, p1)

	// removing an id that was never registered is a no-op.
	n.RemoveConn(999)
	require.Equal(t, 1, n.Size())

	n.RemoveConn(2)
	require.Equal(t, 0, n.Size())

	_, ok := n.GetInternalSender(2)
	require.False(t, ok)
	_, ok = n.GetProposalSender(2)
	require.False(t, ok)
}

func TestNetworkInboundAddConnMismatchPanics(t *testing.T) {
	internal, _ := NewChannelSender(1, 2, 1)
	proposal, _ := NewChannelSender(5, 6, 1)

	n := NewNetworkInbound()
	require.Panics(t, func() {
		n.AddConn(internal, proposal)
	})
}
