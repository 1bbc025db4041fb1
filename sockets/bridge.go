package sockets

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bridge tracks which node of a cluster holds each socket, letting any node
// send to or request from any connected socket by ID. Attach a bridge to one
// or more routers with Router.SetBridge, then connect the nodes with a
// BridgeConnection implementation.
type Bridge struct {
	mu sync.Mutex

	id         string
	connection BridgeConnection

	localSockets          map[string]*Socket
	remoteSocketBridgeIDs map[string]string

	pendingRequestsMu sync.Mutex
	pendingRequests   map[string]chan []byte
}

// NewBridge creates a bridge with a unique node ID and no connection. Until
// a connection is set the bridge only resolves sockets local to this process.
func NewBridge() *Bridge {
	return &Bridge{
		id:                    uuid.NewString(),
		localSockets:          map[string]*Socket{},
		remoteSocketBridgeIDs: map[string]string{},
		pendingRequests:       map[string]chan []byte{},
	}
}

// ID returns the unique identifier of this bridge node.
func (b *Bridge) ID() string {
	return b.id
}

// SetConnection attaches a BridgeConnection to the bridge, binding handlers
// for inbound traffic and announcing all currently connected local sockets.
// If a connection was already attached it is unbound first and its sockets
// are announced as closed.
func (b *Bridge) SetConnection(connection BridgeConnection) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.connection != nil {
		_ = b.connection.UnbindDispatch(b.id)
		_ = b.connection.UnbindIntercept(b.id)
		_ = b.connection.UnbindIgnore(b.id)
		_ = b.connection.UnbindIntercepted(b.id)
		_ = b.connection.UnbindSocketOpenAnnounce()
		_ = b.connection.UnbindSocketCloseAnnounce()
		for socketID := range b.localSockets {
			_ = b.connection.AnnounceSocketClose(b.id, socketID)
		}
	}

	if err := connection.BindDispatch(b.id, b.handleDispatch); err != nil {
		return err
	}
	if err := connection.BindIntercept(b.id, b.handleIntercept); err != nil {
		return err
	}
	if err := connection.BindIgnore(b.id, b.handleIgnore); err != nil {
		return err
	}
	if err := connection.BindIntercepted(b.id, b.handleIntercepted); err != nil {
		return err
	}
	if err := connection.BindSocketOpenAnnounce(b.handleSocketOpenAnnounce); err != nil {
		return err
	}
	if err := connection.BindSocketCloseAnnounce(b.handleSocketCloseAnnounce); err != nil {
		return err
	}

	for socketID := range b.localSockets {
		if err := connection.AnnounceSocketOpen(b.id, socketID); err != nil {
			return err
		}
	}

	b.connection = connection

	return nil
}

// AddLocalSocket registers a socket held by this node and announces it to the
// cluster. Called by the router when a connection opens.
func (b *Bridge) AddLocalSocket(socket *Socket) {
	b.mu.Lock()
	b.localSockets[socket.id] = socket
	connection := b.connection
	b.mu.Unlock()

	if connection != nil {
		_ = connection.AnnounceSocketOpen(b.id, socket.id)
	}
}

// RemoveLocalSocket removes a socket held by this node and announces its
// closure to the cluster. Called by the router when a connection closes.
func (b *Bridge) RemoveLocalSocket(socketID string) {
	b.mu.Lock()
	delete(b.localSockets, socketID)
	connection := b.connection
	b.mu.Unlock()

	if connection != nil {
		_ = connection.AnnounceSocketClose(b.id, socketID)
	}
}

// WithSocket returns a handle for a socket anywhere in the cluster by ID. The
// second return value is false if no node knows the socket.
//
// Handles for remote sockets obtained directly from the bridge have no
// message codec, so Send and Request will fail until one is needed from a
// socket's own context. Prefer Context.WithSocket inside handlers, which
// carries the calling socket's codec.
func (b *Bridge) WithSocket(socketID string) (SocketHandle, bool) {
	return b.withSocket(socketID, nil, nil, nil)
}

func (b *Bridge) withSocket(
	socketID string,
	messageDecoder func(data []byte) (*InboundMessage, error),
	messageUnmarshaler func(message *InboundMessage, into any) error,
	messageMarshaller func(message *OutboundMessage) ([]byte, error),
) (SocketHandle, bool) {
	b.mu.Lock()
	localSocket, hasLocalSocket := b.localSockets[socketID]
	bridgeID, hasRemoteSocket := b.remoteSocketBridgeIDs[socketID]
	b.mu.Unlock()

	if hasLocalSocket {
		return &socketHandle{
			kind:        SocketHandleKindLocal,
			localSocket: localSocket,
		}, true
	}

	if !hasRemoteSocket {
		return nil, false
	}

	return &socketHandle{
		kind:               SocketHandleKindRemote,
		remoteSocketID:     socketID,
		remoteBridgeID:     bridgeID,
		localBridge:        b,
		messageDecoder:     messageDecoder,
		messageUnmarshaler: messageUnmarshaler,
		messageMarshaller:  messageMarshaller,
	}, true
}

func (b *Bridge) addPendingRequest(messageID string, responseChan chan []byte) {
	b.pendingRequestsMu.Lock()
	b.pendingRequests[messageID] = responseChan
	b.pendingRequestsMu.Unlock()
}

func (b *Bridge) removePendingRequest(messageID string) {
	b.pendingRequestsMu.Lock()
	delete(b.pendingRequests, messageID)
	b.pendingRequestsMu.Unlock()
}

func (b *Bridge) handleDispatch(socketID string, message []byte) {
	b.mu.Lock()
	localSocket, ok := b.localSockets[socketID]
	b.mu.Unlock()

	if !ok {
		return
	}

	_ = localSocket.sendRaw(message)
}

func (b *Bridge) handleIntercept(requesterBridgeID string, socketID string, messageID string, timeout time.Duration) {
	b.mu.Lock()
	localSocket, ok := b.localSockets[socketID]
	connection := b.connection
	b.mu.Unlock()

	if !ok || connection == nil {
		return
	}

	interceptorChan := make(chan *InboundMessage, 1)
	localSocket.AddInterceptor(messageID, interceptorChan)

	go func() {
		select {
		case message := <-interceptorChan:
			_ = connection.Intercepted(requesterBridgeID, socketID, messageID, message.RawData)
			message.free()
		case <-time.After(timeout):
			localSocket.RemoveInterceptor(messageID)
		case <-localSocket.Done():
			localSocket.RemoveInterceptor(messageID)
		}
	}()
}

func (b *Bridge) handleIgnore(socketID string, messageID string) {
	b.mu.Lock()
	localSocket, ok := b.localSockets[socketID]
	b.mu.Unlock()

	if !ok {
		return
	}

	localSocket.RemoveInterceptor(messageID)
}

func (b *Bridge) handleIntercepted(socketID string, messageID string, message []byte) {
	b.pendingRequestsMu.Lock()
	responseChan, ok := b.pendingRequests[messageID]
	b.pendingRequestsMu.Unlock()

	if !ok {
		return
	}

	select {
	case responseChan <- message:
	default:
	}
}

func (b *Bridge) handleSocketOpenAnnounce(bridgeID string, socketID string) {
	if bridgeID == b.id {
		return
	}
	b.mu.Lock()
	b.remoteSocketBridgeIDs[socketID] = bridgeID
	b.mu.Unlock()
}

func (b *Bridge) handleSocketCloseAnnounce(bridgeID string, socketID string) {
	if bridgeID == b.id {
		return
	}
	b.mu.Lock()
	delete(b.remoteSocketBridgeIDs, socketID)
	b.mu.Unlock()
}
