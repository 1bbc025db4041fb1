package natsbridge

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

type IgnoreMessage struct {
	SocketID  string `json:"socketId"`
	MessageID string `json:"messageId"`
}

func (c *Connection) Ignore(bridgeID string, socketID string, messageID string) error {
	messageBytes, err := json.Marshal(&IgnoreMessage{
		SocketID:  socketID,
		MessageID: messageID,
	})
	if err != nil {
		return err
	}
	return c.NatsConnection.Publish(namespace("socket.ignore", bridgeID), messageBytes)
}

func (c *Connection) BindIgnore(bridgeID string, handler func(socketID string, messageID string)) error {
	sub, err := c.NatsConnection.Subscribe(namespace("socket.ignore", bridgeID), func(msg *nats.Msg) {
		ignoreMessage := &IgnoreMessage{}
		if err := json.Unmarshal(msg.Data, ignoreMessage); err != nil {
			return
		}
		handler(ignoreMessage.SocketID, ignoreMessage.MessageID)
	})
	if err != nil {
		return err
	}

	c.unbindIgnore = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindIgnore(bridgeID string) error {
	return c.unbindIgnore()
}
