package natsbridge

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

func (c *Connection) AnnounceSocketOpen(bridgeID string, socketID string) error {
	messageBytes, err := json.Marshal(SocketIDs{
		BridgeID: bridgeID,
		SocketID: socketID,
	})
	if err != nil {
		return err
	}
	return c.NatsConnection.Publish(namespace("socket.open"), messageBytes)
}

func (c *Connection) BindSocketOpenAnnounce(handler func(bridgeID string, socketID string)) error {
	sub, err := c.NatsConnection.Subscribe(namespace("socket.open"), func(msg *nats.Msg) {
		socketIDs := &SocketIDs{}
		if err := json.Unmarshal(msg.Data, socketIDs); err != nil {
			return
		}
		handler(socketIDs.BridgeID, socketIDs.SocketID)
	})
	if err != nil {
		return err
	}

	c.unbindSocketOpenAnnounce = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindSocketOpenAnnounce() error {
	return c.unbindSocketOpenAnnounce()
}
