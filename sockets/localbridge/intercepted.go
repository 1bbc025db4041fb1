package localbridge

func (c *Connection) Intercepted(bridgeID string, socketID string, messageID string, message []byte) error {
	c.mu.Lock()
	handler, ok := c.interceptedHandlers[bridgeID]
	c.mu.Unlock()

	if !ok {
		return nil
	}
	handler(socketID, messageID, message)
	return nil
}

func (c *Connection) BindIntercepted(bridgeID string, handler func(socketID string, messageID string, message []byte)) error {
	c.mu.Lock()
	c.interceptedHandlers[bridgeID] = handler
	c.mu.Unlock()
	return nil
}

func (c *Connection) UnbindIntercepted(bridgeID string) error {
	c.mu.Lock()
	delete(c.interceptedHandlers, bridgeID)
	c.mu.Unlock()
	return nil
}
