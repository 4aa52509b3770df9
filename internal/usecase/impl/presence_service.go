package impl

import (
	"log/slog"
	"slices"
	"sync"

	"chatty/internal/domain/service"
	"chatty/internal/usecase"

	"go.uber.org/fx"
)

// presenceService is the in-process registry of online users.
// Only a single instance of the service tracks presence.
type presenceService struct {
	mu          sync.RWMutex
	registry    map[string]service.Connection
	broadcaster service.Broadcaster
	logger      *slog.Logger
}

// PresenceServiceParams holds dependencies for PresenceService, injected by Fx.
type PresenceServiceParams struct {
	fx.In

	Broadcaster service.Broadcaster
	Logger      *slog.Logger
}

// NewPresenceService creates an empty presence registry.
func NewPresenceService(params PresenceServiceParams) usecase.PresenceUsecase {
	return &presenceService{
		registry:    make(map[string]service.Connection),
		broadcaster: params.Broadcaster,
		logger:      params.Logger,
	}
}

// Connect registers the connection. A newer connection for the same user replaces the older one.
func (srv *presenceService) Connect(conn service.Connection, userID string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if userID != "" {
		srv.registry[userID] = conn
	}

	srv.logger.Debug("User connected",
		slog.String("userID", userID),
		slog.String("connID", conn.ID()),
	)
	srv.broadcastLocked()
}

// Disconnect removes the user only while conn is the registered connection.
// A late disconnect of a replaced connection leaves the newer one online.
func (srv *presenceService) Disconnect(conn service.Connection, userID string) {
	if userID == "" {
		return
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	current, ok := srv.registry[userID]
	if !ok || current.ID() != conn.ID() {
		srv.logger.Debug("Ignoring disconnect of replaced connection",
			slog.String("userID", userID),
			slog.String("connID", conn.ID()),
		)

		return
	}
	delete(srv.registry, userID)

	srv.logger.Debug("User disconnected", slog.String("userID", userID), slog.String("connID", conn.ID()))
	srv.broadcastLocked()
}

// Lookup returns the live connection of a user.
func (srv *presenceService) Lookup(userID string) (service.Connection, bool) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	conn, ok := srv.registry[userID]

	return conn, ok
}

// OnlineUsers returns the ids of connected users in ascending order.
func (srv *presenceService) OnlineUsers() []string {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.onlineUsersLocked()
}

func (srv *presenceService) onlineUsersLocked() []string {
	ids := make([]string, 0, len(srv.registry))
	for id := range srv.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}

// SendTo emits an event to the user's connection. Offline users are skipped.
func (srv *presenceService) SendTo(userID, event string, payload any) bool {
	conn, ok := srv.Lookup(userID)
	if !ok {
		return false
	}

	if err := conn.Emit(event, payload); err != nil {
		srv.logger.Warn("Failed to emit event",
			slog.String("userID", userID),
			slog.String("event", event),
			slog.Any("error", err),
		)

		return false
	}

	return true
}

// broadcastLocked runs under the write lock so broadcasts leave in the order of registry changes.
// Broadcaster implementations must not block.
func (srv *presenceService) broadcastLocked() {
	srv.broadcaster.Broadcast(service.EventGetOnlineUsers, srv.onlineUsersLocked())
}
