package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"chatty/config"
	"chatty/internal/delivery/api/cookie"
	domainerrors "chatty/internal/domain/errors"
	"chatty/internal/domain/service"
	"chatty/internal/usecase"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultSendBuffer   = 16
)

// HandlerParams holds dependencies for Handler, injected by Fx.
type HandlerParams struct {
	fx.In

	Hub          *Hub
	PresenceUC   usecase.PresenceUsecase
	TokenService service.TokenService
	Cookie       *cookie.Session
	Config       *config.Config
	Logger       *slog.Logger
}

// Handler upgrades HTTP requests to presence-tracked websocket connections.
type Handler struct {
	hub          *Hub
	presenceUC   usecase.PresenceUsecase
	tokenSvc     service.TokenService
	cookie       *cookie.Session
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pongWait     time.Duration
	pingPeriod   time.Duration
	sendBuffer   int
	now          func() time.Time
	logger       *slog.Logger
}

// NewHandler is the constructor for Handler.
func NewHandler(params HandlerParams) *Handler {
	cfg := params.Config.Realtime
	if cfg == nil {
		cfg = &config.RealtimeConfig{}
	}

	h := &Handler{
		hub:          params.Hub,
		presenceUC:   params.PresenceUC,
		tokenSvc:     params.TokenService,
		cookie:       params.Cookie,
		writeTimeout: cfg.WriteTimeout,
		pongWait:     cfg.PongWait,
		pingPeriod:   cfg.PingPeriod,
		sendBuffer:   cfg.SendBuffer,
		now:          time.Now,
		logger:       params.Logger,
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = defaultWriteTimeout
	}
	if h.pongWait <= 0 {
		h.pongWait = defaultPongWait
	}
	if h.pingPeriod <= 0 || h.pingPeriod >= h.pongWait {
		h.pingPeriod = h.pongWait * 9 / 10
	}
	if h.sendBuffer <= 0 {
		h.sendBuffer = defaultSendBuffer
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowOrigins),
	}

	return h
}

// originChecker accepts listed origins, "*" for any, and same-host requests when the list is empty.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		if len(allowed) > 0 {
			return false
		}

		u, err := url.Parse(origin)

		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// identify resolves who is connecting. A valid session cookie is authoritative
// and its subject must match any userId given in the query. Without a cookie the
// query userId is taken for presence only and the connection stays unverified.
func (h *Handler) identify(c echo.Context) (string, bool, error) {
	userID := strings.TrimSpace(c.QueryParam("userId"))

	sessionCookie, err := c.Cookie(h.cookie.Name())
	if err == nil && sessionCookie.Value != "" {
		claims, err := h.tokenSvc.Validate(sessionCookie.Value)
		if err != nil {
			return "", false, errors.Wrap(domainerrors.ErrUnauthenticated, "invalid session token")
		}

		subject := claims.UserID.String()
		if userID != "" && userID != subject {
			return "", false, errors.Wrap(domainerrors.ErrUnauthenticated, "userId does not match session")
		}

		return subject, true, nil
	}

	if userID != "" {
		// An unverified claim never displaces a verified connection.
		if conn, ok := h.presenceUC.Lookup(userID); ok {
			if held, ok := conn.(*client); ok && held.verified {
				h.logger.Warn("Unverified connection claimed a signed-in user", slog.String("userID", userID))

				return "", false, nil
			}
		}
	}

	return userID, false, nil
}

// Serve handles GET /socket?userId=<id>.
func (h *Handler) Serve(c echo.Context) error {
	userID, verified, err := h.identify(c)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		h.logger.Debug("Websocket upgrade failed", slog.Any("error", err))

		return nil
	}

	cl := newClient(conn, userID, verified, h.sendBuffer, h.logger)
	h.hub.register(cl)
	go cl.writePump(h.writeTimeout, h.pingPeriod)

	h.presenceUC.Connect(cl, userID)
	cl.logger.Info("Websocket connected", slog.Int("open", h.hub.Len()))

	cl.readPump(h.pongWait, h.dispatch)

	h.presenceUC.Disconnect(cl, userID)
	h.hub.unregister(cl)
	cl.logger.Info("Websocket disconnected")

	return nil
}

func (h *Handler) dispatch(cl *client, frame Frame) {
	switch frame.Event {
	case service.EventSendMessage:
		h.relayMessage(cl, frame.Data)
	default:
		cl.logger.Debug("Ignoring unknown event", slog.String("event", frame.Event))
	}
}

// relayMessage forwards a chat message to the receiver when online. Nothing is stored.
func (h *Handler) relayMessage(cl *client, data json.RawMessage) {
	if !cl.verified {
		cl.logger.Debug("Connection without a session cannot send messages")

		return
	}

	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ReceiverID == "" || strings.TrimSpace(payload.Text) == "" {
		cl.logger.Debug("Ignoring malformed sendMessage")

		return
	}

	msg := ChatMessage{
		SenderID:   cl.userID,
		ReceiverID: payload.ReceiverID,
		Text:       payload.Text,
		CreatedAt:  h.now().UTC(),
	}
	if !h.presenceUC.SendTo(payload.ReceiverID, service.EventNewMessage, msg) {
		cl.logger.Debug("Receiver offline, message dropped", slog.String("receiverID", payload.ReceiverID))
	}
}
