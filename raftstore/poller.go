package raftstore

import (
	"time"

	"github.com/ngaut/log"

	"go.etcd.io/etcd/raft/v3/raftpb"
)

// RaftTimeout is the base interval Poller's select loop uses as the raft
// tick period, and the upper bound on how long a single iteration blocks
// waiting for an inbound message.
const RaftTimeout = 100 * time.Millisecond

// DefaultElectionTick and DefaultHeartbeatTick are the tick counts used
// unless a caller overrides them: a follower that hears nothing from a
// leader for 10 ticks (1s at the default RaftTimeout) starts an election;
// a leader sends a heartbeat every 3 ticks (300ms).
const (
	DefaultElectionTick  = 10
	DefaultHeartbeatTick = 3
)

// Poller runs one peer's entire event loop on a dedicated goroutine: it is
// the only code that ever calls into that peer's PeerFsmDelegate, so the
// raw raft node behind it never needs its own locking.
type Poller struct {
	id       uint64
	delegate *PeerFsmDelegate
	outbound *NetworkOutbound
	queue    *ProposalQueue
	ticker   *Ticker

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewPoller builds a Poller for one peer. It does not start the loop;
// call Run (typically in its own goroutine) to do that.
func NewPoller(id uint64, delegate *PeerFsmDelegate, outbound *NetworkOutbound, queue *ProposalQueue) *Poller {
	return &Poller{
		id:       id,
		delegate: delegate,
		outbound: outbound,
		queue:    queue,
		ticker:   NewTicker(RaftTimeout),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Run is the peer's event loop. Each iteration: drain at most one inbound
// message (blocking up to the ticker's remaining timeout so the loop also
// wakes up to tick on time even with no traffic), tick the raw raft node
// if the timeout elapsed, hand any leader-side pending proposals to raft,
// then run the Ready cycle. It returns when Stop is called.
func (p *Poller) Run() {
	defer close(p.doneCh)
	log.Infof("poller %d: started", p.id)
	timeout := RaftTimeout
	for {
		select {
		case <-p.stopCh:
			log.Infof("poller %d: stopping", p.id)
			return
		case raw, ok := <-p.outbound.Messages():
			if !ok {
				log.Infof("poller %d: inbound channel closed, stopping", p.id)
				return
			}
			if msg, ok := raw.(raftpb.Message); ok {
				p.delegate.HandleRaftMessage(msg)
			} else {
				log.Warnf("poller %d: dropping message of unexpected type %T", p.id, raw)
			}
		case <-time.After(timeout):
		}

		timeout = p.ticker.Tick(p.delegate.Tick)
		p.delegate.HandleProposals()
		p.delegate.OnReady()
	}
}

// Stop signals Run to exit and blocks until it has.
func (p *Poller) Stop() {
	close(p.stopCh)
	<-p.doneCh
}
