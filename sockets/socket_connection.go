package sockets

import (
	"context"

	"github.com/coder/websocket"
)

// MessageType indicates whether a socket message carries text or binary
// data.
type MessageType = websocket.MessageType

// Socket message types.
const (
	MessageText   MessageType = websocket.MessageText
	MessageBinary MessageType = websocket.MessageBinary
)

// SocketMessage is a single raw frame read from or written to a socket
// connection.
type SocketMessage struct {
	Type MessageType

	// RawData is the frame payload as read from the wire.
	RawData []byte

	// Data is the frame payload to write to the wire.
	Data []byte
}

// SocketConnection abstracts the transport under a Socket. The router
// provides a WebSocket implementation; custom implementations can be used
// with Router.HandleConnection to drive the router from other transports
// or from tests.
type SocketConnection interface {
	// Read returns the next message from the connection. It blocks until a
	// message arrives, the context is canceled, or the connection fails.
	Read(ctx context.Context) (*SocketMessage, error)

	// Write sends a message to the connection.
	Write(ctx context.Context, msg *SocketMessage) error

	// Close closes the connection with the given status code and reason.
	Close(status Status, reason string) error
}

// WebSocketConnection is a SocketConnection implementation that wraps
// github.com/coder/websocket.Conn. This is the default connection type used
// by the router when handling HTTP WebSocket upgrades.
type WebSocketConnection struct {
	webSocketConnection *websocket.Conn
}

var _ SocketConnection = &WebSocketConnection{}

// NewWebSocketConnection creates a WebSocketConnection from a
// github.com/coder/websocket.Conn. This is used internally by the router.
// Most applications don't need to call this directly unless implementing
// custom connection handling with Router.HandleConnection.
func NewWebSocketConnection(websocketConnection *websocket.Conn) *WebSocketConnection {
	return &WebSocketConnection{
		webSocketConnection: websocketConnection,
	}
}

// Read reads the next message from the WebSocket connection. Blocks until a
// message arrives or an error occurs. Implements SocketConnection.Read.
func (c *WebSocketConnection) Read(ctx context.Context) (*SocketMessage, error) {
	messageType, data, err := c.webSocketConnection.Read(ctx)
	if err != nil {
		return nil, err
	}

	return &SocketMessage{
		Type:    messageType,
		RawData: data,
	}, nil
}

// Write sends a message to the WebSocket connection. Implements
// SocketConnection.Write.
func (c *WebSocketConnection) Write(ctx context.Context, msg *SocketMessage) error {
	return c.webSocketConnection.Write(ctx, msg.Type, msg.Data)
}

// Close closes the WebSocket connection with the given status code and
// reason. Implements SocketConnection.Close.
func (c *WebSocketConnection) Close(status Status, reason string) error {
	return c.webSocketConnection.Close(websocket.StatusCode(status), reason)
}
