package natsbridge

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

type InterceptedMessage struct {
	SocketID  string `json:"socketId"`
	MessageID string `json:"messageId"`
	Message   []byte `json:"message"`
}

func (c *Connection) Intercepted(bridgeID string, socketID string, messageID string, message []byte) error {
	messageBytes, err := json.Marshal(&InterceptedMessage{
		SocketID:  socketID,
		MessageID: messageID,
		Message:   message,
	})
	if err != nil {
		return err
	}
	return c.NatsConnection.Publish(namespace("socket.intercepted", bridgeID), messageBytes)
}

func (c *Connection) BindIntercepted(bridgeID string, handler func(socketID string, messageID string, message []byte)) error {
	sub, err := c.NatsConnection.Subscribe(namespace("socket.intercepted", bridgeID), func(msg *nats.Msg) {
		interceptedMessage := &InterceptedMessage{}
		if err := json.Unmarshal(msg.Data, interceptedMessage); err != nil {
			return
		}
		handler(interceptedMessage.SocketID, interceptedMessage.MessageID, interceptedMessage.Message)
	})
	if err != nil {
		return err
	}

	c.unbindIntercepted = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindIntercepted(bridgeID string) error {
	return c.unbindIntercepted()
}
