package usecase

import "chatty/internal/domain/service"

// PresenceUsecase tracks which users hold a live real-time connection.
type PresenceUsecase interface {
	// Connect registers conn for userID (last connection wins) and broadcasts the online list.
	// An empty userID registers nothing but still triggers the broadcast.
	Connect(conn service.Connection, userID string)

	// Disconnect removes userID when conn is still the registered connection, then broadcasts.
	Disconnect(conn service.Connection, userID string)

	// Lookup returns the connection registered for userID.
	Lookup(userID string) (service.Connection, bool)

	// OnlineUsers returns a sorted snapshot of connected user ids.
	OnlineUsers() []string

	// SendTo emits an event to a single user. It reports false when the user is offline.
	SendTo(userID, event string, payload any) bool
}
