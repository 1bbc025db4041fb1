package sockets

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/embrake/aquilify"
)

// DefaultRequestTimeout is how long Request waits for a reply before giving
// up, when no explicit timeout is provided.
var DefaultRequestTimeout = 30 * time.Second

// ErrRequestTimeout is returned by Request when no reply arrives within the
// timeout.
var ErrRequestTimeout = errors.New("request timed out waiting for reply")

// ErrSocketClosed is returned by Request when the socket closes while waiting
// for a reply.
var ErrSocketClosed = errors.New("socket closed")

// Context carries a single inbound message through the handler chain. It
// provides access to the message, the socket it arrived on, route parameters
// extracted from the message path, and per-message and per-connection
// storage.
//
// Contexts are pooled. They must not be retained after the handler chain
// returns; copy out any values needed by long-lived goroutines.
type Context struct {
	parentContext *Context

	socket  *Socket
	message *InboundMessage
	path    string
	params  aquilify.RouteParams

	// Error holds an error raised by a handler, either set directly or
	// recovered from a panic. Once set, remaining handlers are skipped.
	Error error

	// ErrorStack holds the stack trace captured when a handler panicked.
	ErrorStack string

	currentHandlerNode        *HandlerNode
	currentHandlerNodeMatches bool
	currentHandlerIndex       int
	currentHandler            any

	messageHandedOff bool

	associatedValues map[string]any
}

// NewContext creates a context for a message with an ad hoc handler chain.
// Used mainly in tests and by code that needs to run a handler chain outside
// a router.
func NewContext(socket *Socket, message *InboundMessage, handlers ...any) *Context {
	return NewContextWithNode(socket, message, &HandlerNode{Handlers: handlers})
}

// NewContextWithNode creates a context for a message, starting execution at
// the given handler node. Used internally by the socket message loop.
func NewContextWithNode(socket *Socket, message *InboundMessage, firstHandlerNode *HandlerNode) *Context {
	ctx := contextFromPool()

	ctx.socket = socket
	ctx.message = message
	ctx.path = message.Path

	ctx.currentHandlerNode = firstHandlerNode

	return ctx
}

// NewSubContextWithNode creates a child context which runs a nested handler
// chain, then copies its state back to the parent. Used when a router is
// mounted in another router's chain.
func NewSubContextWithNode(ctx *Context, firstHandlerNode *HandlerNode) *Context {
	subCtx := contextFromPool()

	subCtx.parentContext = ctx

	subCtx.socket = ctx.socket
	subCtx.message = ctx.message
	subCtx.path = ctx.path
	for k, v := range ctx.params {
		subCtx.params[k] = v
	}

	subCtx.Error = ctx.Error
	subCtx.ErrorStack = ctx.ErrorStack

	for k, v := range ctx.associatedValues {
		subCtx.associatedValues[k] = v
	}

	subCtx.currentHandlerNode = firstHandlerNode

	return subCtx
}

var contextPool = sync.Pool{
	New: func() any {
		return &Context{
			params:           aquilify.RouteParams{},
			associatedValues: map[string]any{},
		}
	},
}

func contextFromPool() *Context {
	ctx := contextPool.Get().(*Context)

	ctx.parentContext = nil

	ctx.socket = nil
	ctx.message = nil

	ctx.path = ""
	for k := range ctx.params {
		delete(ctx.params, k)
	}

	ctx.Error = nil
	ctx.ErrorStack = ""

	ctx.currentHandlerNode = nil
	ctx.currentHandlerNodeMatches = false
	ctx.currentHandlerIndex = 0
	ctx.currentHandler = nil

	ctx.messageHandedOff = false

	for k := range ctx.associatedValues {
		delete(ctx.associatedValues, k)
	}

	return ctx
}

func (c *Context) free() {
	contextPool.Put(c)
}

func (c *Context) tryUpdateParent() {
	if c.parentContext == nil {
		return
	}

	c.parentContext.Error = c.Error
	c.parentContext.ErrorStack = c.ErrorStack
	c.parentContext.messageHandedOff = c.messageHandedOff

	for k, v := range c.associatedValues {
		c.parentContext.associatedValues[k] = v
	}
}

// ID returns the message identifier, or an empty string if the message
// carries none.
func (c *Context) ID() string {
	return c.message.ID
}

// Path returns the message path used for routing.
func (c *Context) Path() string {
	return c.path
}

// Params returns the route parameters extracted from the message path by the
// matched pattern.
func (c *Context) Params() aquilify.RouteParams {
	return c.params
}

// Param returns a single route parameter by name.
func (c *Context) Param(name string) string {
	return c.params.Get(name)
}

// Data returns the message payload extracted by envelope middleware. Before
// middleware runs it is the raw frame bytes.
func (c *Context) Data() []byte {
	return c.message.Data
}

// RawData returns the message frame exactly as it arrived on the wire.
func (c *Context) RawData() []byte {
	return c.message.RawData
}

// Meta returns the metadata attached to the message by envelope middleware,
// or nil if none was attached.
func (c *Context) Meta() map[string]any {
	return c.message.Meta
}

// SetMessageID sets the message identifier. Called by envelope middleware
// after parsing the incoming message.
func (c *Context) SetMessageID(id string) {
	c.message.ID = id
	c.message.hasSetID = true
}

// SetMessagePath sets the message path used for routing. Called by envelope
// middleware after parsing the incoming message. Handlers may also use this
// to reroute a message mid-chain.
func (c *Context) SetMessagePath(path string) {
	c.message.Path = path
	c.message.hasSetPath = true
	c.path = path
}

// SetMessageData sets the message payload. Called by envelope middleware
// after extracting the payload from the envelope.
func (c *Context) SetMessageData(data []byte) {
	c.message.Data = data
}

// SetMessageMeta sets the metadata attached to the message.
func (c *Context) SetMessageMeta(meta map[string]any) {
	c.message.Meta = meta
}

// SetMessageDecoder sets the function used to decode raw frame bytes into an
// InboundMessage. The decoder persists on the socket for the lifetime of the
// connection.
func (c *Context) SetMessageDecoder(decoder func(data []byte) (*InboundMessage, error)) {
	c.socket.SetMessageDecoder(decoder)
}

// SetMessageUnmarshaler sets the function used by Unmarshal to decode message
// payloads into values. The unmarshaler persists on the socket for the
// lifetime of the connection.
func (c *Context) SetMessageUnmarshaler(unmarshaler func(message *InboundMessage, into any) error) {
	c.socket.SetMessageUnmarshaler(unmarshaler)
}

// SetMessageMarshaller sets the function used by Send, Reply and Request to
// encode outbound messages into frame bytes. The marshaller persists on the
// socket for the lifetime of the connection.
func (c *Context) SetMessageMarshaller(marshaller func(message *OutboundMessage) ([]byte, error)) {
	c.socket.SetMessageMarshaller(marshaller)
}

// Unmarshal decodes the message payload into the given value using the
// unmarshaler configured by envelope middleware.
func (c *Context) Unmarshal(into any) error {
	unmarshaler := c.socket.unmarshaler()
	if unmarshaler == nil {
		return errors.New("no message unmarshaler set. use SetMessageUnmarshaler or add envelope middleware")
	}
	return unmarshaler(c.message, into)
}

// Send sends a message to the client on this socket. The message carries no
// ID, so the client cannot correlate it with a request.
func (c *Context) Send(data any) error {
	return c.socket.Send(&OutboundMessage{
		Data: data,
	})
}

// Reply sends a message to the client echoing the inbound message's ID, so
// the client can correlate it with the request it sent.
func (c *Context) Reply(data any) error {
	return c.socket.Send(&OutboundMessage{
		ID:   c.message.ID,
		Data: data,
	})
}

// Request sends a message to the client and waits up to DefaultRequestTimeout
// for a reply, decoding the reply payload into the given value. Pass nil to
// discard the reply payload.
func (c *Context) Request(data any, into any) error {
	return c.RequestWithTimeout(data, into, DefaultRequestTimeout)
}

// RequestWithTimeout is like Request with an explicit timeout.
func (c *Context) RequestWithTimeout(data any, into any, timeout time.Duration) error {
	id := uuid.NewString()
	responseChan := make(chan *InboundMessage, 1)

	c.socket.AddInterceptor(id, responseChan)
	defer c.socket.RemoveInterceptor(id)

	if err := c.socket.Send(&OutboundMessage{
		ID:   id,
		Data: data,
	}); err != nil {
		return err
	}

	select {
	case message := <-responseChan:
		defer message.free()
		if into == nil {
			return nil
		}
		unmarshaler := c.socket.unmarshaler()
		if unmarshaler == nil {
			return errors.New("no message unmarshaler set. use SetMessageUnmarshaler or add envelope middleware")
		}
		return unmarshaler(message, into)
	case <-time.After(timeout):
		return ErrRequestTimeout
	case <-c.socket.Done():
		return ErrSocketClosed
	}
}

// Set stores a value on the context. Values are scoped to the current message
// and are visible to later handlers in the chain.
func (c *Context) Set(key string, value any) {
	c.associatedValues[key] = value
}

// Get retrieves a value previously stored on the context. The second return
// value reports whether the key was present.
func (c *Context) Get(key string) (any, bool) {
	value, ok := c.associatedValues[key]
	return value, ok
}

// MustGet retrieves a value previously stored on the context. Panics if the
// key is not present.
func (c *Context) MustGet(key string) any {
	value, ok := c.associatedValues[key]
	if !ok {
		panic("no value on context for key: " + key)
	}
	return value
}

// SetOnSocket stores a value on the underlying socket. Values persist for the
// lifetime of the connection and are visible to all messages handled on it.
func (c *Context) SetOnSocket(key string, value any) {
	c.socket.Set(key, value)
}

// GetFromSocket retrieves a value previously stored on the socket. The second
// return value reports whether the key was present.
func (c *Context) GetFromSocket(key string) (any, bool) {
	return c.socket.Get(key)
}

// MustGetFromSocket retrieves a value previously stored on the socket. Panics
// if the key is not present.
func (c *Context) MustGetFromSocket(key string) any {
	return c.socket.MustGet(key)
}

// SocketID returns the unique identifier of the underlying socket.
func (c *Context) SocketID() string {
	return c.socket.ID()
}

// Headers returns the HTTP headers from the WebSocket upgrade request.
func (c *Context) Headers() http.Header {
	return c.socket.Info().Headers
}

// RemoteAddr returns the remote address of the connection.
func (c *Context) RemoteAddr() string {
	return c.socket.Info().RemoteAddr
}

// WithSocket returns a handle for another socket in the cluster by ID. The
// second return value is false if no node knows the socket.
func (c *Context) WithSocket(socketID string) (SocketHandle, bool) {
	return c.socket.WithSocket(socketID)
}

// Close closes the underlying socket with a normal closure status.
func (c *Context) Close() {
	c.socket.CloseWithStatus(StatusNormalClosure, "")
}

// CloseWithStatus closes the underlying socket with the given status code and
// reason.
func (c *Context) CloseWithStatus(status Status, reason string) {
	c.socket.CloseWithStatus(status, reason)
}

// IsClosed reports whether the underlying socket has been closed.
func (c *Context) IsClosed() bool {
	return c.socket.IsClosed()
}

// Done returns a channel that is closed when the underlying socket closes.
func (c *Context) Done() <-chan struct{} {
	return c.socket.Done()
}

// CloseStatus returns the close status code recorded for the socket. Only
// meaningful in UseClose handlers.
func (c *Context) CloseStatus() Status {
	status, _, _ := c.socket.closeState()
	return status
}

// CloseReason returns the close reason recorded for the socket. Only
// meaningful in UseClose handlers.
func (c *Context) CloseReason() string {
	_, reason, _ := c.socket.closeState()
	return reason
}

// CloseSource reports whether the close was initiated by the client or the
// server. Only meaningful in UseClose handlers.
func (c *Context) CloseSource() CloseSource {
	_, _, source := c.socket.closeState()
	return source
}
