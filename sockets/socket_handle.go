package sockets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SocketHandle provides an interface for interacting with a socket elsewhere
// in the cluster through methods like Send and Request.
type SocketHandle interface {
	// Send sends a message to the socket.
	Send(data any) error

	// Request sends a message to the socket and waits up to
	// DefaultRequestTimeout for a reply, decoding the reply payload into the
	// given value. Pass nil to discard the reply payload.
	Request(data any, into any) error

	// RequestWithTimeout is like Request with an explicit timeout.
	RequestWithTimeout(data any, into any, timeout time.Duration) error

	// RequestWithContext is like Request but waits until the context is
	// canceled or its deadline passes.
	RequestWithContext(ctx context.Context, data any, into any) error
}

type SocketHandleKind int

const (
	SocketHandleKindLocal SocketHandleKind = iota
	SocketHandleKindRemote
)

// socketHandle is the internal implementation of the SocketHandle interface
type socketHandle struct {
	kind SocketHandleKind

	localSocket *Socket

	remoteSocketID string
	remoteBridgeID string
	localBridge    *Bridge

	messageDecoder     func(data []byte) (*InboundMessage, error)
	messageUnmarshaler func(message *InboundMessage, into any) error
	messageMarshaller  func(message *OutboundMessage) ([]byte, error)
}

var _ SocketHandle = &socketHandle{}

func (h *socketHandle) Send(data any) error {
	if h.kind == SocketHandleKindLocal {
		return h.localSocket.Send(&OutboundMessage{
			Data: data,
		})
	}

	messageData, err := h.marshal(&OutboundMessage{
		Data: data,
	})
	if err != nil {
		return err
	}

	return h.localBridge.connection.Dispatch(h.remoteBridgeID, h.remoteSocketID, messageData)
}

func (h *socketHandle) Request(data any, into any) error {
	return h.RequestWithTimeout(data, into, DefaultRequestTimeout)
}

func (h *socketHandle) RequestWithTimeout(data any, into any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return h.RequestWithContext(ctx, data, into)
}

func (h *socketHandle) RequestWithContext(ctx context.Context, data any, into any) error {
	if h.kind == SocketHandleKindLocal {
		return h.requestLocal(ctx, data, into)
	}
	return h.requestRemote(ctx, data, into)
}

func (h *socketHandle) requestLocal(ctx context.Context, data any, into any) error {
	id := uuid.NewString()
	responseChan := make(chan *InboundMessage, 1)

	h.localSocket.AddInterceptor(id, responseChan)
	defer h.localSocket.RemoveInterceptor(id)

	if err := h.localSocket.Send(&OutboundMessage{
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
		unmarshaler := h.localSocket.unmarshaler()
		if unmarshaler == nil {
			return errors.New("no message unmarshaler set on socket")
		}
		return unmarshaler(message, into)
	case <-h.localSocket.Done():
		return ErrSocketClosed
	case <-ctx.Done():
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}
}

func (h *socketHandle) requestRemote(ctx context.Context, data any, into any) error {
	id := uuid.NewString()
	responseChan := make(chan []byte, 1)

	h.localBridge.addPendingRequest(id, responseChan)
	defer h.localBridge.removePendingRequest(id)

	timeout := DefaultRequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout < 1 {
			timeout = 1
		}
	}

	if err := h.localBridge.connection.Intercept(h.remoteBridgeID, h.localBridge.id, h.remoteSocketID, id, timeout); err != nil {
		return err
	}

	messageData, err := h.marshal(&OutboundMessage{
		ID:   id,
		Data: data,
	})
	if err != nil {
		return err
	}

	if err := h.localBridge.connection.Dispatch(h.remoteBridgeID, h.remoteSocketID, messageData); err != nil {
		return err
	}

	select {
	case rawMessage := <-responseChan:
		if into == nil {
			return nil
		}
		if h.messageDecoder == nil || h.messageUnmarshaler == nil {
			return errors.New("no message codec set on socket handle")
		}
		message, err := h.messageDecoder(rawMessage)
		if err != nil {
			return err
		}
		return h.messageUnmarshaler(message, into)
	case <-ctx.Done():
		_ = h.localBridge.connection.Ignore(h.remoteBridgeID, h.remoteSocketID, id)
		return fmt.Errorf("request cancelled: %w", ctx.Err())
	}
}

func (h *socketHandle) marshal(message *OutboundMessage) ([]byte, error) {
	if h.messageMarshaller == nil {
		return nil, errors.New("no message marshaller set on socket handle")
	}
	return h.messageMarshaller(message)
}
