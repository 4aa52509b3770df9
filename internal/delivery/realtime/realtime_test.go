package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatty/config"
	"chatty/internal/delivery/api/cookie"
	apimiddleware "chatty/internal/delivery/api/middleware"
	"chatty/internal/domain/service"
	"chatty/internal/infra/auth"
	"chatty/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	hub    *Hub
	tokens service.TokenService
	url    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := newHub(logger)
	presence := impl.NewPresenceService(impl.PresenceServiceParams{Broadcaster: hub, Logger: logger})
	cfg := &config.Config{Realtime: &config.RealtimeConfig{Path: "/socket"}}
	cfg.SecretKey.Session = "realtime-test-secret"
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	handler := NewHandler(HandlerParams{
		Hub:          hub,
		PresenceUC:   presence,
		TokenService: tokens,
		Cookie:       cookie.NewSession(cfg),
		Config:       cfg,
		Logger:       logger,
	})

	e := echo.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError
	e.GET("/socket", handler.Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		hub.closeAll()
		srv.Close()
	})

	return &testServer{hub: hub, tokens: tokens, url: "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"}
}

// session returns a signed session cookie header for a new user id.
func (s *testServer) session(t *testing.T) (string, http.Header) {
	t.Helper()

	userID := uuid.New()
	sess, err := s.tokens.Issue(userID)
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Cookie", (&http.Cookie{Name: "jwt", Value: sess.Token}).String())

	return userID.String(), header
}

func (s *testServer) connect(userID string, header http.Header) (*websocket.Conn, *http.Response, error) {
	target := s.url
	if userID != "" {
		target += "?userId=" + userID
	}

	return websocket.DefaultDialer.Dial(target, header)
}

func (s *testServer) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()

	return s.dialWith(t, userID, nil)
}

func (s *testServer) dialWith(t *testing.T, userID string, header http.Header) *websocket.Conn {
	t.Helper()

	conn, resp, err := s.connect(userID, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, receiverID, text string) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"event": service.EventSendMessage,
		"data":  SendMessagePayload{ReceiverID: receiverID, Text: text},
	}))
}

func readMessage(t *testing.T, conn *websocket.Conn) ChatMessage {
	t.Helper()

	var msg ChatMessage
	require.NoError(t, json.Unmarshal(readEvent(t, conn, service.EventNewMessage).Data, &msg))

	return msg
}

// readEvent returns the next frame carrying event, skipping any others.
func readEvent(t *testing.T, conn *websocket.Conn, event string) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var frame Frame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Event == event {
			return frame
		}
	}
}

func readOnlineUsers(t *testing.T, conn *websocket.Conn) []string {
	t.Helper()

	var ids []string
	require.NoError(t, json.Unmarshal(readEvent(t, conn, service.EventGetOnlineUsers).Data, &ids))

	return ids
}

func TestSocket_PresenceBroadcastsFollowConnections(t *testing.T) {
	srv := newTestServer(t)

	alice := srv.dial(t, "alice")
	assert.Equal(t, []string{"alice"}, readOnlineUsers(t, alice))

	bob := srv.dial(t, "bob")
	assert.Equal(t, []string{"alice", "bob"}, readOnlineUsers(t, alice))
	assert.Equal(t, []string{"alice", "bob"}, readOnlineUsers(t, bob))

	require.NoError(t, bob.Close())
	assert.Equal(t, []string{"alice"}, readOnlineUsers(t, alice))
}

func TestSocket_AnonymousConnectionReceivesListOnly(t *testing.T) {
	srv := newTestServer(t)

	alice := srv.dial(t, "alice")
	assert.Equal(t, []string{"alice"}, readOnlineUsers(t, alice))

	guest := srv.dial(t, "")
	assert.Equal(t, []string{"alice"}, readOnlineUsers(t, guest))
	assert.Equal(t, []string{"alice"}, readOnlineUsers(t, alice))
}

func TestSocket_RelaysMessageToReceiver(t *testing.T) {
	srv := newTestServer(t)

	aliceID, aliceSession := srv.session(t)
	bobID, bobSession := srv.session(t)
	alice := srv.dialWith(t, "", aliceSession)
	readOnlineUsers(t, alice)
	bob := srv.dialWith(t, bobID, bobSession)
	readOnlineUsers(t, bob)

	sendMessage(t, alice, bobID, "hi bob")

	msg := readMessage(t, bob)
	assert.Equal(t, aliceID, msg.SenderID)
	assert.Equal(t, bobID, msg.ReceiverID)
	assert.Equal(t, "hi bob", msg.Text)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestSocket_RejectsUserIDThatDiffersFromSession(t *testing.T) {
	srv := newTestServer(t)

	_, session := srv.session(t)
	victimID, _ := srv.session(t)

	_, resp, err := srv.connect(victimID, session)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSocket_RejectsInvalidSession(t *testing.T) {
	srv := newTestServer(t)

	header := http.Header{}
	header.Set("Cookie", "jwt=not-a-token")

	_, resp, err := srv.connect("", header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSocket_SpoofedUserIDCannotTakeOverSignedInUser(t *testing.T) {
	srv := newTestServer(t)

	victimID, victimSession := srv.session(t)
	senderID, senderSession := srv.session(t)
	victim := srv.dialWith(t, victimID, victimSession)
	assert.Equal(t, []string{victimID}, readOnlineUsers(t, victim))

	// Claims the victim's id without a session; it is kept anonymous.
	spoofer := srv.dial(t, victimID)
	assert.Equal(t, []string{victimID}, readOnlineUsers(t, spoofer))
	readOnlineUsers(t, victim)

	sender := srv.dialWith(t, senderID, senderSession)
	readOnlineUsers(t, sender)

	sendMessage(t, spoofer, senderID, "forged")
	sendMessage(t, sender, victimID, "for the victim")

	msg := readMessage(t, victim)
	assert.Equal(t, senderID, msg.SenderID)
	assert.Equal(t, "for the victim", msg.Text)

	// The forged message never reached the sender.
	sendMessage(t, victim, senderID, "reply")
	msg = readMessage(t, sender)
	assert.Equal(t, victimID, msg.SenderID)
	assert.Equal(t, "reply", msg.Text)
}

func TestSocket_UnverifiedConnectionsNeitherSendNorReceiveMessages(t *testing.T) {
	srv := newTestServer(t)

	aliceID, aliceSession := srv.session(t)
	alice := srv.dialWith(t, aliceID, aliceSession)
	readOnlineUsers(t, alice)

	// Presence still works from the query parameter alone.
	guest := srv.dial(t, "guest")
	assert.Equal(t, []string{aliceID, "guest"}, readOnlineUsers(t, guest))

	sendMessage(t, guest, aliceID, "unsigned")
	sendMessage(t, alice, "guest", "to guest")

	// The next message Alice sees comes from a verified sender.
	bobID, bobSession := srv.session(t)
	bob := srv.dialWith(t, bobID, bobSession)
	readOnlineUsers(t, bob)
	sendMessage(t, bob, aliceID, "signed")

	msg := readMessage(t, alice)
	assert.Equal(t, bobID, msg.SenderID)
	assert.Equal(t, "signed", msg.Text)
}

func TestSocket_MalformedFrameKeepsConnectionOpen(t *testing.T) {
	srv := newTestServer(t)

	alice := srv.dial(t, "alice")
	readOnlineUsers(t, alice)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))

	bob := srv.dial(t, "bob")
	assert.Equal(t, []string{"alice", "bob"}, readOnlineUsers(t, alice))
	readOnlineUsers(t, bob)
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{name: "no origin header", allowed: nil, origin: "", host: "api.example.com", want: true},
		{name: "listed origin", allowed: []string{"https://chat.example.com"}, origin: "https://chat.example.com", host: "api.example.com", want: true},
		{name: "unlisted origin", allowed: []string{"https://chat.example.com"}, origin: "https://evil.example.com", host: "api.example.com", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anything.example.com", host: "api.example.com", want: true},
		{name: "same host without list", allowed: nil, origin: "http://api.example.com", host: "api.example.com", want: true},
		{name: "cross host without list", allowed: nil, origin: "http://other.example.com", host: "api.example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/socket", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			assert.Equal(t, tt.want, originChecker(tt.allowed)(req))
		})
	}
}

func TestClient_EmitDropsSlowConsumer(t *testing.T) {
	c := newClient(nil, "alice", true, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NoError(t, c.Emit(service.EventGetOnlineUsers, []string{"alice"}))
	assert.ErrorIs(t, c.Emit(service.EventGetOnlineUsers, []string{"alice"}), errSendBufferFull)
	assert.ErrorIs(t, c.Emit(service.EventGetOnlineUsers, []string{"alice"}), errClientClosed)

	frame := Frame{}
	require.NoError(t, json.Unmarshal(<-c.send, &frame))
	assert.Equal(t, service.EventGetOnlineUsers, frame.Event)
	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_BroadcastSkipsClosedClients(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := newHub(logger)

	live := newClient(nil, "alice", true, 4, logger)
	gone := newClient(nil, "bob", false, 4, logger)
	hub.register(live)
	hub.register(gone)
	gone.close()

	hub.Broadcast(service.EventGetOnlineUsers, []string{"alice"})

	assert.Len(t, live.send, 1)
	assert.Equal(t, 2, hub.Len())

	hub.closeAll()
	assert.Equal(t, 0, hub.Len())
}

func TestClient_PrivateEventsRequireVerifiedSession(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	guest := newClient(nil, "guest", false, 4, logger)

	assert.ErrorIs(t, guest.Emit(service.EventNewMessage, ChatMessage{Text: "hi"}), errUnverified)
	require.NoError(t, guest.Emit(service.EventGetOnlineUsers, []string{"guest"}))
	assert.Len(t, guest.send, 1)
}

func TestHub_BroadcastEncodesOnceAndSkipsPrivateEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := newHub(logger)
	a := newClient(nil, "a", true, 4, logger)
	b := newClient(nil, "b", false, 4, logger)
	hub.register(a)
	hub.register(b)

	hub.Broadcast(service.EventNewMessage, ChatMessage{Text: "leak"})
	assert.Empty(t, a.send)
	assert.Empty(t, b.send)

	hub.Broadcast(service.EventGetOnlineUsers, []string{"a", "b"})
	first, second := <-a.send, <-b.send
	assert.Equal(t, first, second)
	assert.Same(t, &first[0], &second[0])
}
