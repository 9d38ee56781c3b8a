// Package gateway connects transports to the game session.
//
// Hub keeps one Peer per open connection. Each peer owns a buffered
// outbound queue of encoded messages that its transport drains, and a
// token bucket limiting how fast it may send. Inbound frames are decoded
// by Receive and routed: time-sync-reply messages go to the clock sync
// coordinator, everything else to the session. Malformed frames are
// answered with a protocol error and the connection stays open.
//
// Hub implements the session's Broadcaster. Send and Multicast never
// block; a peer whose queue is full is dropped, and its transport then
// reports the lost connection through ConnectionLost.
package gateway
