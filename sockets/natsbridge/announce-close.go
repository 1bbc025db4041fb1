package natsbridge

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
)

func (c *Connection) AnnounceSocketClose(bridgeID string, socketID string) error {
	messageBytes, err := json.Marshal(SocketIDs{
		BridgeID: bridgeID,
		SocketID: socketID,
	})
	if err != nil {
		return err
	}
	return c.NatsConnection.Publish(namespace("socket.close"), messageBytes)
}

func (c *Connection) BindSocketCloseAnnounce(handler func(bridgeID string, socketID string)) error {
	sub, err := c.NatsConnection.Subscribe(namespace("socket.close"), func(msg *nats.Msg) {
		socketIDs := &SocketIDs{}
		if err := json.Unmarshal(msg.Data, socketIDs); err != nil {
			return
		}
		handler(socketIDs.BridgeID, socketIDs.SocketID)
	})
	if err != nil {
		return err
	}

	c.unbindSocketCloseAnnounce = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindSocketCloseAnnounce() error {
	return c.unbindSocketCloseAnnounce()
}
