package raftstore

// NetworkOutbound is a peer's single inbound mailbox. A peer only ever
// reads from one NetworkOutbound, matching PeerFsmDelegate's "one raft
// group, one inbox" model. Fan-in across senders does not happen in this
// type: VirtualNetwork's per-pair forwarder goroutines copy each
// ChannelSender's messages into the mailbox channel this type wraps.
type NetworkOutbound struct {
	messages <-chan interface{}
}

// NewNetworkOutbound wraps the receive end of a peer's inbound channel.
func NewNetworkOutbound(messages <-chan interface{}) *NetworkOutbound {
	return &NetworkOutbound{messages: messages}
}

// Messages exposes the receive channel for use in a select statement
// (the Poller selects on it alongside its Ticker timeout).
func (n *NetworkOutbound) Messages() <-chan interface{} {
	return n.messages
}
