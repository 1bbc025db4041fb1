package sockets

import "time"

// BridgeConnection carries bridge traffic between the nodes of a cluster.
// Each node's Bridge binds handlers for inbound traffic addressed to it and
// calls the corresponding methods to reach other nodes.
//
// Implementations are provided by the localbridge subpackage for wiring
// routers within a single process, and by the natsbridge subpackage for
// clustering over NATS.
type BridgeConnection interface {
	// AnnounceSocketOpen broadcasts that a socket has connected to the node
	// with the given bridge ID.
	AnnounceSocketOpen(bridgeID string, socketID string) error
	BindSocketOpenAnnounce(handler func(bridgeID string, socketID string)) error
	UnbindSocketOpenAnnounce() error

	// AnnounceSocketClose broadcasts that a socket held by the node with the
	// given bridge ID has disconnected.
	AnnounceSocketClose(bridgeID string, socketID string) error
	BindSocketCloseAnnounce(handler func(bridgeID string, socketID string)) error
	UnbindSocketCloseAnnounce() error

	// Dispatch sends pre-marshalled frame bytes to a socket held by the node
	// with the given bridge ID.
	Dispatch(bridgeID string, socketID string, message []byte) error
	BindDispatch(bridgeID string, handler func(socketID string, message []byte)) error
	UnbindDispatch(bridgeID string) error

	// Intercept asks the node holding the socket to capture the next inbound
	// message carrying the given message ID and forward it to the requester's
	// node. The host gives up after the timeout elapses.
	Intercept(bridgeID string, requesterBridgeID string, socketID string, messageID string, timeout time.Duration) error
	BindIntercept(bridgeID string, handler func(requesterBridgeID string, socketID string, messageID string, timeout time.Duration)) error
	UnbindIntercept(bridgeID string) error

	// Ignore cancels an interception previously requested with Intercept.
	Ignore(bridgeID string, socketID string, messageID string) error
	BindIgnore(bridgeID string, handler func(socketID string, messageID string)) error
	UnbindIgnore(bridgeID string) error

	// Intercepted delivers a captured message's raw frame bytes back to the
	// node that requested the interception.
	Intercepted(bridgeID string, socketID string, messageID string, message []byte) error
	BindIntercepted(bridgeID string, handler func(socketID string, messageID string, message []byte)) error
	UnbindIntercepted(bridgeID string) error
}
