package localbridge

func (c *Connection) Dispatch(bridgeID string, socketID string, message []byte) error {
	c.mu.Lock()
	handler, ok := c.dispatchHandlers[bridgeID]
	c.mu.Unlock()

	if !ok {
		return nil
	}
	handler(socketID, message)
	return nil
}

func (c *Connection) BindDispatch(bridgeID string, handler func(socketID string, message []byte)) error {
	c.mu.Lock()
	c.dispatchHandlers[bridgeID] = handler
	c.mu.Unlock()
	return nil
}

func (c *Connection) UnbindDispatch(bridgeID string) error {
	c.mu.Lock()
	delete(c.dispatchHandlers, bridgeID)
	c.mu.Unlock()
	return nil
}
