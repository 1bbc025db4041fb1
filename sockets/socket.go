package sockets

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Socket represents a single WebSocket connection. It owns the read loop,
// per-connection storage, request interceptors, and the message codec
// configured by envelope middleware. Sockets are created by the router; most
// application code interacts with them through the Context.
type Socket struct {
	id         string
	info       *ConnectionInfo
	connection SocketConnection

	bridge *Bridge

	associatedValuesMu sync.RWMutex
	associatedValues   map[string]any

	interceptorsMu sync.Mutex
	interceptors   map[string]chan *InboundMessage

	codecMu            sync.RWMutex
	messageDecoder     func(data []byte) (*InboundMessage, error)
	messageUnmarshaler func(message *InboundMessage, into any) error
	messageMarshaller  func(message *OutboundMessage) ([]byte, error)
	messageType        MessageType

	closeMu     sync.Mutex
	closed      bool
	closeStatus Status
	closeReason string
	closeSource CloseSource

	done       chan struct{}
	readCtx    context.Context
	readCancel context.CancelFunc
}

// NewSocket creates a socket for the given connection. This is used
// internally by the router. Most applications don't need to call this
// directly unless implementing custom connection handling with
// Router.HandleConnection.
func NewSocket(info *ConnectionInfo, connection SocketConnection) *Socket {
	readCtx, readCancel := context.WithCancel(context.Background())
	return &Socket{
		id:               uuid.NewString(),
		info:             info,
		connection:       connection,
		associatedValues: map[string]any{},
		interceptors:     map[string]chan *InboundMessage{},
		messageType:      MessageText,
		closeStatus:      StatusNormalClosure,
		done:             make(chan struct{}),
		readCtx:          readCtx,
		readCancel:       readCancel,
	}
}

// ID returns the unique identifier assigned to this socket. The ID can be
// shared with other nodes and used with Router.WithSocket to address this
// socket from anywhere in the cluster.
func (s *Socket) ID() string {
	return s.id
}

// Info returns metadata about the connection, including the remote address
// and the headers from the upgrade request.
func (s *Socket) Info() *ConnectionInfo {
	return s.info
}

// Set stores a value on the socket. Values persist for the lifetime of the
// connection and are visible to all messages handled on it.
func (s *Socket) Set(key string, value any) {
	s.associatedValuesMu.Lock()
	s.associatedValues[key] = value
	s.associatedValuesMu.Unlock()
}

// Get retrieves a value previously stored on the socket. The second return
// value reports whether the key was present.
func (s *Socket) Get(key string) (any, bool) {
	s.associatedValuesMu.RLock()
	value, ok := s.associatedValues[key]
	s.associatedValuesMu.RUnlock()
	return value, ok
}

// MustGet retrieves a value previously stored on the socket. Panics if the
// key is not present.
func (s *Socket) MustGet(key string) any {
	value, ok := s.Get(key)
	if !ok {
		panic("no value on socket for key: " + key)
	}
	return value
}

// Send marshals a message with the marshaller configured by envelope
// middleware and writes it to the connection.
func (s *Socket) Send(message *OutboundMessage) error {
	marshaller := s.marshaller()
	if marshaller == nil {
		return errors.New("no message marshaller set. use SetMessageMarshaller or add envelope middleware")
	}

	data, err := marshaller(message)
	if err != nil {
		return err
	}

	return s.connection.Write(context.Background(), &SocketMessage{
		Type: s.outboundMessageType(),
		Data: data,
	})
}

func (s *Socket) sendRaw(data []byte) error {
	return s.connection.Write(context.Background(), &SocketMessage{
		Type: s.outboundMessageType(),
		Data: data,
	})
}

// Done returns a channel that is closed when the socket is closed. Handlers
// running in long-lived goroutines should select on this to stop work when
// the connection goes away.
func (s *Socket) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether the socket has been closed by either side.
func (s *Socket) IsClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}

// CloseWithStatus closes the socket with the given status code and reason.
// The read loop is interrupted, close handlers run, then the underlying
// connection is closed.
func (s *Socket) CloseWithStatus(status Status, reason string) {
	if !s.recordClose(status, reason, ServerCloseSource) {
		return
	}
	s.readCancel()
}

func (s *Socket) recordClose(status Status, reason string, source CloseSource) bool {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return false
	}
	s.closed = true
	s.closeStatus = status
	s.closeReason = reason
	s.closeSource = source
	s.closeMu.Unlock()

	close(s.done)
	return true
}

func (s *Socket) closeState() (Status, string, CloseSource) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closeStatus, s.closeReason, s.closeSource
}

// AddInterceptor registers a channel to receive the next inbound message
// carrying the given ID instead of routing it through the handler chain.
// Used for request/reply correlation.
func (s *Socket) AddInterceptor(id string, ch chan *InboundMessage) {
	s.interceptorsMu.Lock()
	s.interceptors[id] = ch
	s.interceptorsMu.Unlock()
}

// RemoveInterceptor removes an interceptor previously registered with
// AddInterceptor.
func (s *Socket) RemoveInterceptor(id string) {
	s.interceptorsMu.Lock()
	delete(s.interceptors, id)
	s.interceptorsMu.Unlock()
}

func (s *Socket) takeInterceptor(id string) (chan *InboundMessage, bool) {
	s.interceptorsMu.Lock()
	defer s.interceptorsMu.Unlock()
	ch, ok := s.interceptors[id]
	if ok {
		delete(s.interceptors, id)
	}
	return ch, ok
}

// SetMessageDecoder sets the function used to decode raw frame bytes into an
// InboundMessage. This is used when replies arrive for requests made through
// a bridge, where the raw frame bypasses the middleware chain.
func (s *Socket) SetMessageDecoder(decoder func(data []byte) (*InboundMessage, error)) {
	s.codecMu.Lock()
	s.messageDecoder = decoder
	s.codecMu.Unlock()
}

// SetMessageUnmarshaler sets the function used to unmarshal message payloads
// into values. Typically set by envelope middleware.
func (s *Socket) SetMessageUnmarshaler(unmarshaler func(message *InboundMessage, into any) error) {
	s.codecMu.Lock()
	s.messageUnmarshaler = unmarshaler
	s.codecMu.Unlock()
}

// SetMessageMarshaller sets the function used to marshal outbound messages
// into frame bytes. Typically set by envelope middleware.
func (s *Socket) SetMessageMarshaller(marshaller func(message *OutboundMessage) ([]byte, error)) {
	s.codecMu.Lock()
	s.messageMarshaller = marshaller
	s.codecMu.Unlock()
}

func (s *Socket) decoder() func(data []byte) (*InboundMessage, error) {
	s.codecMu.RLock()
	defer s.codecMu.RUnlock()
	return s.messageDecoder
}

func (s *Socket) unmarshaler() func(message *InboundMessage, into any) error {
	s.codecMu.RLock()
	defer s.codecMu.RUnlock()
	return s.messageUnmarshaler
}

func (s *Socket) marshaller() func(message *OutboundMessage) ([]byte, error) {
	s.codecMu.RLock()
	defer s.codecMu.RUnlock()
	return s.messageMarshaller
}

func (s *Socket) outboundMessageType() MessageType {
	s.codecMu.RLock()
	defer s.codecMu.RUnlock()
	return s.messageType
}

// WithSocket returns a handle for another socket in the cluster by ID. The
// second return value is false if no node knows the socket. Panics when given
// this socket's own ID.
func (s *Socket) WithSocket(socketID string) (SocketHandle, bool) {
	if socketID == s.id {
		panic("cannot create a socket handle for the current socket. Try using Send instead.")
	}
	if s.bridge == nil {
		return nil, false
	}
	return s.bridge.withSocket(socketID, s.decoder(), s.unmarshaler(), s.marshaller())
}

// HandleOpen runs the open handler chain for this socket. Called by the
// router when a connection is established, before the message loop starts.
func (s *Socket) HandleOpen(node *HandlerNode) {
	if node == nil {
		return
	}
	s.runLifecycleChain(node)
}

// HandleClose runs the close handler chain for this socket. Called by the
// router after the message loop exits, before the connection is closed.
func (s *Socket) HandleClose(node *HandlerNode) {
	if node == nil {
		return
	}
	s.runLifecycleChain(node)
}

func (s *Socket) runLifecycleChain(node *HandlerNode) {
	message := inboundMessageFromPool()
	ctx := NewContextWithNode(s, message, node)
	ctx.Next()
	ctx.free()
	message.free()
}

// HandleNextMessageWithNode reads the next message from the connection and
// dispatches it through the handler chain in its own goroutine. Returns false
// once the connection is closed and the message loop should stop.
func (s *Socket) HandleNextMessageWithNode(node *HandlerNode) bool {
	frame, err := s.connection.Read(s.readCtx)
	if err != nil {
		closeStatus := websocket.CloseStatus(err)
		switch {
		case s.IsClosed() || errors.Is(err, context.Canceled):
		case closeStatus != -1:
			s.recordClose(closeStatus, "", ClientCloseSource)
		case errors.Is(err, io.EOF):
			s.recordClose(StatusNormalClosure, "", ClientCloseSource)
		default:
			s.recordClose(StatusAbnormalClosure, "", ClientCloseSource)
		}
		return false
	}

	s.codecMu.Lock()
	s.messageType = frame.Type
	s.codecMu.Unlock()

	go func() {
		message := inboundMessageFromPool()
		message.RawData = frame.RawData
		message.Data = frame.RawData

		ctx := NewContextWithNode(s, message, node)
		ctx.Next()
		handedOff := ctx.messageHandedOff
		ctx.free()

		if !handedOff {
			message.free()
		}
	}()

	return true
}
