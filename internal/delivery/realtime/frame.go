// Package realtime is the websocket channel carrying presence and chat events.
package realtime

import (
	"encoding/json"
	"time"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the data of a client "sendMessage" frame.
type SendMessagePayload struct {
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text"`
}

// ChatMessage is the data of a server "newMessage" frame.
type ChatMessage struct {
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Frame{Event: event, Data: data})
}
