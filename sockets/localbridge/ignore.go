package localbridge

func (c *Connection) Ignore(bridgeID string, socketID string, messageID string) error {
	c.mu.Lock()
	handler, ok := c.ignoreHandlers[bridgeID]
	c.mu.Unlock()

	if !ok {
		return nil
	}
	handler(socketID, messageID)
	return nil
}

func (c *Connection) BindIgnore(bridgeID string, handler func(socketID string, messageID string)) error {
	c.mu.Lock()
	c.ignoreHandlers[bridgeID] = handler
	c.mu.Unlock()
	return nil
}

func (c *Connection) UnbindIgnore(bridgeID string) error {
	c.mu.Lock()
	delete(c.ignoreHandlers, bridgeID)
	c.mu.Unlock()
	return nil
}
