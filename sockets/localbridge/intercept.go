package localbridge

import "time"

func (c *Connection) Intercept(bridgeID string, requesterBridgeID string, socketID string, messageID string, timeout time.Duration) error {
	c.mu.Lock()
	handler, ok := c.interceptHandlers[bridgeID]
	c.mu.Unlock()

	if !ok {
		return nil
	}
	handler(requesterBridgeID, socketID, messageID, timeout)
	return nil
}

func (c *Connection) BindIntercept(bridgeID string, handler func(requesterBridgeID string, socketID string, messageID string, timeout time.Duration)) error {
	c.mu.Lock()
	c.interceptHandlers[bridgeID] = handler
	c.mu.Unlock()
	return nil
}

func (c *Connection) UnbindIntercept(bridgeID string) error {
	c.mu.Lock()
	delete(c.interceptHandlers, bridgeID)
	c.mu.Unlock()
	return nil
}
