package realtime

import (
	"context"
	"log/slog"
	"sync"

	"chatty/internal/domain/service"

	"go.uber.org/fx"
)

// Hub tracks every open socket and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *slog.Logger
}

// HubParams holds dependencies for Hub, injected by Fx.
type HubParams struct {
	fx.In

	Lc     fx.Lifecycle
	Logger *slog.Logger
}

// NewHub creates a hub that closes all sockets on shutdown.
func NewHub(params HubParams) *Hub {
	h := newHub(params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			h.closeAll()

			return nil
		},
	})

	return h
}

func newHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Broadcast encodes the event once and queues it on every open socket without blocking.
// Private events are never broadcast.
func (h *Hub) Broadcast(event string, payload any) {
	if privateEvents[event] {
		h.logger.Warn("Refusing to broadcast private event", slog.String("event", event))

		return
	}

	msg, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error("Failed to encode broadcast", slog.String("event", event), slog.Any("error", err))

		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if err := c.enqueue(msg); err != nil {
			h.logger.Debug("Broadcast skipped client",
				slog.String("connID", c.id),
				slog.String("event", event),
				slog.Any("error", err),
			)
		}
	}
}

// Len returns the number of open sockets.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.id] = c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Info("Closing websocket connections", slog.Int("count", len(h.clients)))
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

var _ service.Broadcaster = (*Hub)(nil)

// Module provides the websocket FX module.
var Module = fx.Options(
	fx.Provide(
		NewHub,
		func(h *Hub) service.Broadcaster { return h },
		NewHandler,
	),
)
