// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"log/slog"
	"sync"
)

// clientBuffer is the number of pending frames a client may queue before it
// is dropped as too slow.
const clientBuffer = 16

type (
	client struct {
		send      chan []byte
		closeOnce sync.Once
	}

	hub struct {
		logger  *slog.Logger
		mu      sync.Mutex
		clients map[*client]struct{}
	}
)

func newHub(logger *slog.Logger) *hub {
	return &hub{logger: logger, clients: make(map[*client]struct{})}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (h *hub) register() *client {
	c := &client{send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// broadcast queues body for every client. A client whose queue is full is
// disconnected rather than stalling the others.
func (h *hub) broadcast(body []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- body:
		default:
			h.logger.Warn("dropping slow live-update client")
			delete(h.clients, c)
			c.close()
		}
	}
}

func (h *hub) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// closeAll disconnects every client.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
