// Package natsbridge provides a BridgeConnection carried over NATS. Each
// node subscribes to subjects addressed to its bridge ID, plus shared
// subjects for socket open and close announcements, letting a cluster of
// nodes route socket traffic to whichever node holds each connection.
package natsbridge

import (
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/embrake/aquilify/sockets"
)

type Connection struct {
	NatsConnection            *nats.Conn
	unbindDispatch            func() error
	unbindIntercept           func() error
	unbindIgnore              func() error
	unbindIntercepted         func() error
	unbindSocketOpenAnnounce  func() error
	unbindSocketCloseAnnounce func() error
}

func New(conn *nats.Conn) sockets.BridgeConnection {
	noop := func() error { return nil }
	return &Connection{
		NatsConnection:            conn,
		unbindDispatch:            noop,
		unbindIntercept:           noop,
		unbindIgnore:              noop,
		unbindIntercepted:         noop,
		unbindSocketOpenAnnounce:  noop,
		unbindSocketCloseAnnounce: noop,
	}
}

type SocketIDs struct {
	BridgeID string `json:"bridgeId"`
	SocketID string `json:"socketId"`
}

func namespace(parts ...string) string {
	return "aquilify." + strings.Join(parts, ".")
}
