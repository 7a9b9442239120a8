package ws

import (
	"github.com/GAUTAMGUPTA0004/Real-Time-Todo-Board/internal/logger"
)

// Hub is the broadcast fan-out for board observers. It relays events to
// every connected client and holds no task data itself. One Hub is created
// at process start and torn down at shutdown; there is no global instance.
//
// Delivery is at-most-once per observer per event: a client whose send
// buffer is full is dropped, and no event is ever retried. Observers
// self-heal by refetching on reconnect.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run owns the client set; all membership changes and broadcasts go through
// this loop, so no lock is needed. Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			wsObservers.Set(float64(len(h.clients)))
			logger.Debug("observer connected", "client", c.ID, "user", c.UserID, "observers", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			wsObservers.Set(float64(len(h.clients)))
			logger.Debug("observer disconnected", "client", c.ID, "observers", len(h.clients))

		case msg := <-h.broadcast:
			wsBroadcasts.Inc()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: drop it rather than block the fan-out.
					delete(h.clients, c)
					close(c.send)
					logger.Warn("dropping slow observer", "client", c.ID, "user", c.UserID)
				}
			}
			wsObservers.Set(float64(len(h.clients)))

		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			wsObservers.Set(0)
			return
		}
	}
}

// Shutdown stops the run loop and disconnects all observers.
func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) add(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) send(msg []byte) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}
