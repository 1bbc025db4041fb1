// Package localbridge provides an in-process BridgeConnection. It wires
// multiple socket routers within the same process, which is useful for tests
// and for single-node deployments that still want socket addressing through
// a bridge.
package localbridge

import (
	"sync"
	"time"

	"github.com/embrake/aquilify/sockets"
)

type Connection struct {
	mu                    sync.Mutex
	announceOpenHandlers  []func(string, string)
	announceCloseHandlers []func(string, string)
	dispatchHandlers      map[string]func(string, []byte)
	interceptHandlers     map[string]func(string, string, string, time.Duration)
	ignoreHandlers        map[string]func(string, string)
	interceptedHandlers   map[string]func(string, string, []byte)
}

func New() sockets.BridgeConnection {
	return &Connection{
		announceOpenHandlers:  []func(string, string){},
		announceCloseHandlers: []func(string, string){},
		dispatchHandlers:      map[string]func(string, []byte){},
		interceptHandlers:     map[string]func(string, string, string, time.Duration){},
		ignoreHandlers:        map[string]func(string, string){},
		interceptedHandlers:   map[string]func(string, string, []byte){},
	}
}
