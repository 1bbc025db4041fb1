package localbridge

func (c *Connection) AnnounceSocketOpen(bridgeID string, socketID string) error {
	c.mu.Lock()
	handlers := append([]func(string, string){}, c.announceOpenHandlers...)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(bridgeID, socketID)
	}
	return nil
}

func (c *Connection) BindSocketOpenAnnounce(handler func(bridgeID string, socketID string)) error {
	c.mu.Lock()
	c.announceOpenHandlers = append(c.announceOpenHandlers, handler)
	c.mu.Unlock()
	return nil
}

func (c *Connection) UnbindSocketOpenAnnounce() error {
	c.mu.Lock()
	c.announceOpenHandlers = []func(string, string){}
	c.mu.Unlock()
	return nil
}
