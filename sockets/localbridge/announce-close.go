package localbridge

func (c *Connection) AnnounceSocketClose(bridgeID string, socketID string) error {
	c.mu.Lock()
	handlers := append([]func(string, string){}, c.announceCloseHandlers...)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(bridgeID, socketID)
	}
	return nil
}

func (c *Connection) BindSocketCloseAnnounce(handler func(bridgeID string, socketID string)) error {
	c.mu.Lock()
	c.announceCloseHandlers = append(c.announceCloseHandlers, handler)
	c.mu.Unlock()
	return nil
}

func (c *Connection) UnbindSocketCloseAnnounce() error {
	c.mu.Lock()
	c.announceCloseHandlers = []func(string, string){}
	c.mu.Unlock()
	return nil
}
