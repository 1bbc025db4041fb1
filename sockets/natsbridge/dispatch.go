package natsbridge

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

type DispatchMessage struct {
	SocketID string `json:"socketId"`
	Message  []byte `json:"message"`
}

func (c *Connection) Dispatch(bridgeID string, socketID string, message []byte) error {
	messageBytes, err := json.Marshal(&DispatchMessage{
		SocketID: socketID,
		Message:  message,
	})
	if err != nil {
		return err
	}
	return c.NatsConnection.Publish(namespace("socket.dispatch", bridgeID), messageBytes)
}

func (c *Connection) BindDispatch(bridgeID string, handler func(socketID string, message []byte)) error {
	sub, err := c.NatsConnection.Subscribe(namespace("socket.dispatch", bridgeID), func(msg *nats.Msg) {
		dispatchMessage := &DispatchMessage{}
		if err := json.Unmarshal(msg.Data, dispatchMessage); err != nil {
			return
		}
		handler(dispatchMessage.SocketID, dispatchMessage.Message)
	})
	if err != nil {
		return err
	}

	c.unbindDispatch = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindDispatch(bridgeID string) error {
	return c.unbindDispatch()
}
