package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"projectsync/internal/infrastructure/realtime"
	"projectsync/internal/logging"
	auth "projectsync/internal/pkg/auth/application/domain"
	authctl "projectsync/internal/pkg/auth/presentation/controller"
	chatuc "projectsync/internal/pkg/chat/application/usecase"
	meetinguc "projectsync/internal/pkg/meeting/application/usecase"
)

// EventMetrics counts handled inbound events. metrics.Gateway implements it.
type EventMetrics interface {
	Event(event, outcome string)
}

// Options configures a GatewaySocketController. Zero limits mean the defaults.
type Options struct {
	Registry        *realtime.Registry
	Verifier        authctl.Verifier
	CookieName      string
	SendMessageUC   *chatuc.SendMessageUseCase
	MarkReadUC      *chatuc.MarkMessagesReadUseCase
	AdmissionUC     *meetinguc.AdmissionUseCase
	Metrics         EventMetrics
	Logger          *slog.Logger
	EventsPerSecond float64
	EventBurst      int
}

// session is one authenticated connection. Identity is fixed at connect time.
type session struct {
	conn     *realtime.Connection
	identity auth.Identity
}

// eventHandler processes one inbound event and returns the metrics outcome.
type eventHandler func(ctx context.Context, s *session, data json.RawMessage) string

// GatewaySocketController handles the websocket endpoint for presence, direct messages
// and meeting admission.
type GatewaySocketController struct {
	registry        *realtime.Registry
	verifier        authctl.Verifier
	cookieName      string
	sendMessageUC   *chatuc.SendMessageUseCase
	markReadUC      *chatuc.MarkMessagesReadUseCase
	admissionUC     *meetinguc.AdmissionUseCase
	metrics         EventMetrics
	logger          *slog.Logger
	eventsPerSecond rate.Limit
	eventBurst      int
	inflightTimeout time.Duration
	upgrader        websocket.Upgrader
	handlers        map[string]eventHandler
}

func NewGatewaySocketController(opts Options) *GatewaySocketController {
	ctl := &GatewaySocketController{
		registry:        opts.Registry,
		verifier:        opts.Verifier,
		cookieName:      opts.CookieName,
		sendMessageUC:   opts.SendMessageUC,
		markReadUC:      opts.MarkReadUC,
		admissionUC:     opts.AdmissionUC,
		metrics:         opts.Metrics,
		logger:          opts.Logger,
		eventsPerSecond: rate.Limit(opts.EventsPerSecond),
		eventBurst:      opts.EventBurst,
		inflightTimeout: 5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Credentials are checked before the upgrade; browsers on other origins
			// still need a valid session token.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	if ctl.eventsPerSecond <= 0 {
		ctl.eventsPerSecond = 20
	}
	if ctl.eventBurst <= 0 {
		ctl.eventBurst = 40
	}
	if ctl.metrics == nil {
		ctl.metrics = nopMetrics{}
	}
	if ctl.logger == nil {
		ctl.logger = logging.Discard()
	}
	ctl.handlers = map[string]eventHandler{
		EventRequestToJoin: ctl.handleRequestToJoin,
		EventAdmitGuest:    ctl.handleAdmitGuest,
		EventDenyGuest:     ctl.handleDenyGuest,
		EventSendMessage:   ctl.handleSendMessage,
		EventMarkRead:      ctl.handleMarkRead,
		EventStartTyping:   ctl.handleTyping(EventTyping),
		EventStopTyping:    ctl.handleTyping(EventStopTyping),
	}
	return ctl
}

type nopMetrics struct{}

func (nopMetrics) Event(string, string) {}

const defaultReadTimeout = 60 * time.Second

// Handle authenticates, upgrades HTTP connections to websocket and processes frames
// until the client disconnects.
func (ctl *GatewaySocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := ctl.verifier.Verify(authctl.ExtractCredential(c.Request, ctl.cookieName))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just log and return.
			ctl.logger.Debug("websocket upgrade failed", "user_id", identity.ID, "err", err)
			return
		}

		conn := realtime.NewConnection(identity.ID, ws)
		conn.Start()
		s := &session{conn: conn, identity: identity}
		log := ctl.logger.With("user_id", identity.ID, "conn_id", conn.ID())

		ctl.registry.Record(conn)
		log.Info("realtime session connected")
		defer func() {
			ctl.registry.Detach(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			log.Info("realtime session disconnected")
		}()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		limiter := rate.NewLimiter(ctl.eventsPerSecond, ctl.eventBurst)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					log.Debug("realtime read ended", "err", err)
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))

			if !limiter.Allow() {
				ctl.metrics.Event("frame", outcomeRateLimited)
				ctl.replyError(s, "rate_limited", "too many events")
				continue
			}

			frame, err := realtime.Decode(data)
			if err != nil || frame.Event == "" {
				ctl.metrics.Event("frame", outcomeInvalid)
				ctl.replyError(s, "bad_request", "invalid payload")
				continue
			}
			ctl.dispatch(ctx, s, frame)
		}
	}
}

// dispatch runs one handler in isolation: a panic or error stays inside the event.
func (ctl *GatewaySocketController) dispatch(ctx context.Context, s *session, frame realtime.Frame) {
	h, ok := ctl.handlers[frame.Event]
	if !ok {
		ctl.metrics.Event("unknown", outcomeInvalid)
		ctl.replyError(s, "unsupported_event", "unknown event "+frame.Event)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			ctl.logger.Error("realtime handler panicked",
				"event", frame.Event, "user_id", s.identity.ID, "conn_id", s.conn.ID(), "panic", r)
			ctl.metrics.Event(frame.Event, outcomePanic)
			ctl.replyError(s, "internal_error", "unexpected error")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, ctl.inflightTimeout)
	defer cancel()
	ctl.metrics.Event(frame.Event, h(ctx, s, frame.Data))
}

// push encodes and sends a frame to one connection.
func (ctl *GatewaySocketController) push(s *session, event string, data any) {
	payload, err := realtime.Encode(event, data)
	if err != nil {
		ctl.logger.Error("encode frame", "event", event, "err", err)
		return
	}
	_ = s.conn.Send(payload)
}

// notify sends a frame to the current session of userID. It reports whether a session received it.
func (ctl *GatewaySocketController) notify(userID string, event string, data any) bool {
	payload, err := realtime.Encode(event, data)
	if err != nil {
		ctl.logger.Error("encode frame", "event", event, "err", err)
		return false
	}
	return ctl.registry.NotifyUser(userID, payload)
}

func (ctl *GatewaySocketController) replyError(s *session, code string, message string) {
	ctl.push(s, EventError, errorPayload{Code: code, Message: message})
}
