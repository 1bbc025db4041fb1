package natsbridge

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

type InterceptMessage struct {
	RequesterBridgeID string        `json:"requesterBridgeId"`
	SocketID          string        `json:"socketId"`
	MessageID         string        `json:"messageId"`
	Timeout           time.Duration `json:"timeout"`
}

func (c *Connection) Intercept(bridgeID string, requesterBridgeID string, socketID string, messageID string, timeout time.Duration) error {
	messageBytes, err := json.Marshal(&InterceptMessage{
		RequesterBridgeID: requesterBridgeID,
		SocketID:          socketID,
		MessageID:         messageID,
		Timeout:           timeout,
	})
	if err != nil {
		return err
	}
	return c.NatsConnection.Publish(namespace("socket.intercept", bridgeID), messageBytes)
}

func (c *Connection) BindIntercept(bridgeID string, handler func(requesterBridgeID string, socketID string, messageID string, timeout time.Duration)) error {
	sub, err := c.NatsConnection.Subscribe(namespace("socket.intercept", bridgeID), func(msg *nats.Msg) {
		interceptMessage := &InterceptMessage{}
		if err := json.Unmarshal(msg.Data, interceptMessage); err != nil {
			return
		}
		handler(interceptMessage.RequesterBridgeID, interceptMessage.SocketID, interceptMessage.MessageID, interceptMessage.Timeout)
	})
	if err != nil {
		return err
	}

	c.unbindIntercept = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindIntercept(bridgeID string) error {
	return c.unbindIntercept()
}
