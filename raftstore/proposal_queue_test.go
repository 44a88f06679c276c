package raftstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProposalQueueFIFO(t *testing.T) {
	q := NewProposalQueue()
	p1, _ := NewNormalProposal(1, []byte("a"))
	p2, _ := NewNormalProposal(2, []byte("b"))
	q.Add(p1)
	q.Add(p2)

	require.Equal(t, 2, q.Len())
	require.Same(t, p1, q.Remove())
	require.Same(t, p2, q.Remove())
	require.Nil(t, q.Remove())
}

func TestProposalQueuePendingSkipsProposed(t *testing.T) {
	q := NewProposalQueue()
	p1, _ := NewNormalProposal(1, []byte("a"))
	p2, _ := NewNormalProposal(2, []byte("b"))
	p1.Proposed = 5
	q.Add(p1)
	q.Add(p2)

	pending := q.Pending()
	require.Len(t, pending, 1)
	require.Same(t, p2, pending[0])
}

func TestProposalQueueDrainFailed(t *testing.T) {
	q := NewProposalQueue()
	p1, ack1 := NewNormalProposal(1, []byte("a"))
	q.Add(p1)

	q.DrainFailed()
	require.Equal(t, 0, q.Len())

	select {
	case ok := <-ack1:
		require.False(t, ok)
	default:
		t.Fatal("expected ack to be settled")
	}
}
