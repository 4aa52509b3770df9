package service

// Real-time event names exchanged over the socket channel.
const (
	EventGetOnlineUsers = "getOnlineUsers"
	EventSendMessage    = "sendMessage"
	EventNewMessage     = "newMessage"
)

// Connection is a live client connection on the real-time channel.
type Connection interface {
	// ID uniquely identifies the connection for its whole lifetime.
	ID() string

	// Emit queues an event for this connection only. It never blocks on the network.
	Emit(event string, payload any) error
}

// Broadcaster fans an event out to every connected client. Broadcast must not block.
type Broadcaster interface {
	Broadcast(event string, payload any)
}
