package raftstore

import "sync"

// ProposalQueue is the FIFO of Proposals a peer has accepted while it was
// (or believed it was) the leader but has not yet matched against a
// committed entry. PeerFsmDelegate.HandleProposals walks it from the front,
// skipping entries that already carry a non-zero Proposed index (those are
// waiting on commit, not on being sent), and PeerFsm.OnReady pops from the
// front as committed entries are applied in order.
type ProposalQueue struct {
	mu        sync.Mutex
	proposals []*Proposal
}

// NewProposalQueue returns an empty queue.
func NewProposalQueue() *ProposalQueue {
	return &ProposalQueue{}
}

// Add appends a proposal to the back of the queue.
func (q *ProposalQueue) Add(p *Proposal) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.proposals = append(q.proposals, p)
}

// Remove pops and returns the proposal at the front of the queue, or nil
// if the queue is empty.
func (q *ProposalQueue) Remove() *Proposal {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.proposals) == 0 {
		return nil
	}
	p := q.proposals[0]
	q.proposals = q.proposals[1:]
	return p
}

// Len reports the number of proposals currently queued.
func (q *ProposalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.proposals)
}

// Pending returns the tail of the queue starting at the first proposal
// whose Proposed index is still zero — i.e. it skips the leading run of
// proposals already handed to the raw raft node; entries after that first
// zero are included whatever their Proposed index. The returned slice
// aliases the queue's storage and must not be retained past the caller's
// single use (PeerFsmDelegate calls this once per Poller iteration).
func (q *ProposalQueue) Pending() []*Proposal {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, p := range q.proposals {
		if p.Proposed == 0 {
			return q.proposals[i:]
		}
	}
	return nil
}

// DrainFailed pops every proposal from the front of the queue and settles
// its ack with false. PeerFsm.OnReady calls it when this peer steps down
// from leader, since it can then no longer ack the outstanding proposals.
func (q *ProposalQueue) DrainFailed() {
	q.mu.Lock()
	pending := q.proposals
	q.proposals = nil
	q.mu.Unlock()
	for _, p := range pending {
		p.settle(false)
	}
}
