package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectsync/internal/infrastructure/metrics"
	"projectsync/internal/infrastructure/realtime"
	"projectsync/internal/infrastructure/roomtoken"
	"projectsync/internal/logging"
	auth "projectsync/internal/pkg/auth/application/domain"
	authusecase "projectsync/internal/pkg/auth/application/usecase"
	chat "projectsync/internal/pkg/chat/application/domain"
	chatuc "projectsync/internal/pkg/chat/application/usecase"
	chatadapter "projectsync/internal/pkg/chat/persistence/repository/adapter"
	meeting "projectsync/internal/pkg/meeting/application/domain"
	meetinguc "projectsync/internal/pkg/meeting/application/usecase"
	meetingadapter "projectsync/internal/pkg/meeting/persistence/repository/adapter"
)

func init() { gin.SetMode(gin.TestMode) }

type harness struct {
	t        *testing.T
	server   *httptest.Server
	tokens   *authusecase.SessionTokens
	registry *realtime.Registry
	chatRepo *chatadapter.MemoryChatRepository
	metrics  *metrics.Gateway
	ctl      *GatewaySocketController
}

func newHarness(t *testing.T, tune ...func(*Options)) *harness {
	t.Helper()
	tokens, err := authusecase.NewSessionTokens("secret", time.Hour)
	require.NoError(t, err)

	gm := metrics.NewGateway(prometheus.NewRegistry())
	registry := realtime.NewRegistry(gm)
	chatRepo := chatadapter.NewMemoryChatRepository()
	meetings := meetingadapter.NewMemoryMeetingRepository()
	m, err := meeting.NewMeeting("ABCD-1234", "w1", "Planning", "bob", []string{"alice"}, nil, nil, time.Now())
	require.NoError(t, err)
	_, err = meetings.Create(context.Background(), *m)
	require.NoError(t, err)

	opts := Options{
		Registry:      registry,
		Verifier:      tokens,
		CookieName:    "token",
		SendMessageUC: chatuc.NewSendMessageUseCase(chatRepo, registry),
		MarkReadUC:    chatuc.NewMarkMessagesReadUseCase(chatRepo),
		AdmissionUC:   meetinguc.NewAdmissionUseCase(meetings, roomtoken.NewIssuer("key", "secret", 0)),
		Metrics:       gm,
		Logger:        logging.Discard(),
	}
	for _, f := range tune {
		f(&opts)
	}
	ctl := NewGatewaySocketController(opts)

	e := gin.New()
	e.GET("/api/v1/ws", ctl.Handle())
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		registry.Close()
		srv.Close()
	})
	return &harness{t: t, server: srv, tokens: tokens, registry: registry, chatRepo: chatRepo, metrics: gm, ctl: ctl}
}

func (h *harness) url() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http") + "/api/v1/ws"
}

type client struct {
	t  *testing.T
	id string
	ws *websocket.Conn
}

// dial connects as userID and returns once the registry has recorded the session.
func (h *harness) dial(userID, name string) *client {
	h.t.Helper()
	token, err := h.tokens.Issue(auth.Identity{ID: userID, Name: name})
	require.NoError(h.t, err)
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	ws, _, err := websocket.DefaultDialer.Dial(h.url(), header)
	require.NoError(h.t, err)
	c := &client{t: h.t, id: userID, ws: ws}
	h.t.Cleanup(func() { _ = ws.Close() })
	c.waitOnline(func(ids []string) bool { return slices.Contains(ids, userID) })
	return c
}

func (c *client) emit(event string, data any) {
	c.t.Helper()
	payload, err := realtime.Encode(event, data)
	require.NoError(c.t, err)
	require.NoError(c.t, c.ws.WriteMessage(websocket.TextMessage, payload))
}

func (c *client) read() realtime.Frame {
	c.t.Helper()
	require.NoError(c.t, c.ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := c.ws.ReadMessage()
	require.NoError(c.t, err, "user %s", c.id)
	f, err := realtime.Decode(data)
	require.NoError(c.t, err)
	return f
}

// next returns the next frame that is not a presence snapshot.
func (c *client) next() realtime.Frame {
	c.t.Helper()
	for {
		f := c.read()
		if f.Event != realtime.EventOnlineUsers {
			return f
		}
	}
}

func (c *client) expect(event string, into any) {
	c.t.Helper()
	f := c.next()
	require.Equal(c.t, event, f.Event, "user %s got %s", c.id, string(f.Data))
	if into != nil {
		require.NoError(c.t, json.Unmarshal(f.Data, into))
	}
}

func (c *client) waitOnline(match func([]string) bool) []string {
	c.t.Helper()
	for {
		f := c.read()
		if f.Event != realtime.EventOnlineUsers {
			continue
		}
		var ids []string
		require.NoError(c.t, json.Unmarshal(f.Data, &ids))
		if match(ids) {
			return ids
		}
	}
}

func TestRejectsMissingOrInvalidCredential(t *testing.T) {
	h := newHarness(t)

	_, resp, err := websocket.DefaultDialer.Dial(h.url(), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(h.url()+"?token=garbage", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Empty(t, h.registry.ListOnline())
}

func TestCredentialFromCookieAndQuery(t *testing.T) {
	h := newHarness(t)
	token, err := h.tokens.Issue(auth.Identity{ID: "q"})
	require.NoError(t, err)

	ws, _, err := websocket.DefaultDialer.Dial(h.url()+"?token="+token, nil)
	require.NoError(t, err)
	_ = ws.Close()

	header := http.Header{"Cookie": []string{"token=" + token}}
	ws, _, err = websocket.DefaultDialer.Dial(h.url(), header)
	require.NoError(t, err)
	_ = ws.Close()
}

func TestPresenceSnapshotsOnConnectAndDisconnect(t *testing.T) {
	h := newHarness(t)
	a := h.dial("a", "Ann")
	b := h.dial("b", "Ben")

	a.waitOnline(func(ids []string) bool { return slices.Equal(ids, []string{"a", "b"}) })
	assert.Equal(t, []string{"a", "b"}, h.registry.ListOnline())

	require.NoError(t, b.ws.Close())
	a.waitOnline(func(ids []string) bool { return slices.Equal(ids, []string{"a"}) })
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.OnlineUsers))
}

func TestReconnectReplacesMappingAndStaleCloseKeepsUserOnline(t *testing.T) {
	h := newHarness(t)
	watcher := h.dial("w", "Watcher")
	first := h.dial("a", "Ann")
	second := h.dial("a", "Ann")

	require.NoError(t, first.ws.Close())
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Connections) == 2
	}, 3*time.Second, 10*time.Millisecond)
	// the stale connection closing does not hide the newer one
	assert.Equal(t, []string{"a", "w"}, h.registry.ListOnline())

	watcher.emit(EventStartTyping, typingRequest{RecipientID: "a"})
	var typing typingPayload
	second.expect(EventTyping, &typing)
	assert.Equal(t, "w", typing.SenderID)
}

func TestInvitedParticipantIsApprovedWithoutHost(t *testing.T) {
	h := newHarness(t)
	bob := h.dial("bob", "Bob")
	alice := h.dial("alice", "Alice")

	alice.emit(EventRequestToJoin, joinRequest{MeetingID: "ABCD-1234"})
	var approved tokenPayload
	alice.expect(EventJoinApproved, &approved)
	assert.NotEmpty(t, approved.Token)

	// the next thing bob sees is the echo of his own message, so no join request reached him
	bob.emit(EventSendMessage, sendMessageRequest{RecipientID: "zed", Content: "ping", WorkspaceID: "w1"})
	bob.expect(EventNewMessage, nil)
}

func TestStrangerWaitsAndHostAdmits(t *testing.T) {
	h := newHarness(t)
	bob := h.dial("bob", "Bob")
	carol := h.dial("C", "Carol")

	carol.emit(EventRequestToJoin, joinRequest{MeetingID: "ABCD-1234"})
	var req guestDecision
	bob.expect(EventNewJoinRequest, &req)
	assert.Equal(t, meeting.Guest{ID: "C", Name: "Carol"}, req.Guest)
	assert.Equal(t, "ABCD-1234", req.MeetingID)
	carol.expect(EventWaitingForHost, nil)

	bob.emit(EventAdmitGuest, req)
	var approved tokenPayload
	carol.expect(EventJoinApproved, &approved)
	assert.NotEmpty(t, approved.Token)
}

func TestHostDenies(t *testing.T) {
	h := newHarness(t)
	bob := h.dial("bob", "Bob")
	carol := h.dial("C", "Carol")

	carol.emit(EventRequestToJoin, joinRequest{MeetingID: "ABCD-1234"})
	var req guestDecision
	bob.expect(EventNewJoinRequest, &req)
	carol.expect(EventWaitingForHost, nil)

	bob.emit(EventDenyGuest, req)
	carol.expect(EventJoinDenied, nil)
}

func TestNonHostAdmitIsSilentlyDropped(t *testing.T) {
	h := newHarness(t)
	mallory := h.dial("mallory", "Mallory")
	carol := h.dial("C", "Carol")
	decision := guestDecision{Guest: meeting.Guest{ID: "C", Name: "Carol"}, MeetingID: "ABCD-1234"}

	mallory.emit(EventAdmitGuest, decision)
	mallory.emit(EventDenyGuest, decision)
	mallory.emit(EventAdmitGuest, guestDecision{Guest: decision.Guest, MeetingID: "ZZZZ-0000"})

	// mallory gets no reply and carol gets nothing: the next frames each sees are their own echoes
	mallory.emit(EventSendMessage, sendMessageRequest{RecipientID: "zed", Content: "x", WorkspaceID: "w1"})
	mallory.expect(EventNewMessage, nil)
	carol.emit(EventSendMessage, sendMessageRequest{RecipientID: "zed", Content: "y", WorkspaceID: "w1"})
	carol.expect(EventNewMessage, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.Events.WithLabelValues(EventAdmitGuest, outcomeDropped))+
		testutil.ToFloat64(h.metrics.Events.WithLabelValues(EventDenyGuest, outcomeDropped)))
}

func TestUnknownMeetingFailsJoin(t *testing.T) {
	h := newHarness(t)
	carol := h.dial("C", "Carol")

	carol.emit(EventRequestToJoin, joinRequest{MeetingID: "ZZZZ-0000"})
	var failed failurePayload
	carol.expect(EventJoinFailed, &failed)
	assert.Equal(t, "Meeting not found", failed.Message)

	carol.emit(EventRequestToJoin, map[string]string{})
	carol.expect(EventJoinFailed, &failed)
}

func TestHostOfflineStillWaits(t *testing.T) {
	h := newHarness(t)
	carol := h.dial("C", "Carol")
	carol.emit(EventRequestToJoin, joinRequest{MeetingID: "ABCD-1234"})
	carol.expect(EventWaitingForHost, nil)
}

func TestMessageToOfflineUserThenReadReceipt(t *testing.T) {
	h := newHarness(t)
	x := h.dial("X", "Xavier")

	x.emit(EventSendMessage, sendMessageRequest{RecipientID: "Y", Content: "hello", WorkspaceID: "W"})
	var echo struct {
		ID             string `json:"id"`
		ConversationID string `json:"conversationId"`
		SenderID       string `json:"senderId"`
		Status         string `json:"status"`
		RecipientID    string `json:"recipientId"`
		WorkspaceID    string `json:"workspaceId"`
	}
	x.expect(EventNewMessage, &echo)
	assert.Equal(t, "sent", echo.Status)
	assert.Equal(t, "Y", echo.RecipientID)
	assert.Equal(t, "W", echo.WorkspaceID)
	assert.Equal(t, "X", echo.SenderID)

	x.emit(EventSendMessage, sendMessageRequest{RecipientID: "Y", Content: "again", WorkspaceID: "W", ConversationID: echo.ConversationID})
	x.expect(EventNewMessage, nil)

	y := h.dial("Y", "Yara")
	history, err := chatuc.NewGetMessageUseCase(h.chatRepo).Execute(context.Background(), chatuc.GetMessageInput{
		ConversationID: echo.ConversationID, ViewerID: "Y",
	})
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	for _, m := range history.Messages {
		assert.Equal(t, chat.StatusSent, m.Status)
	}

	y.emit(EventMarkRead, markReadRequest{ConversationID: echo.ConversationID, OtherUserID: "X"})
	var read messagesReadPayload
	x.expect(EventMessagesRead, &read)
	assert.Equal(t, echo.ConversationID, read.ConversationID)

	msgs, err := h.chatRepo.GetMessagesByConversation(context.Background(), echo.ConversationID, 10, 0)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.Equal(t, chat.StatusRead, m.Status)
	}
}

func TestMessageToOnlineUserIsDeliveredToBoth(t *testing.T) {
	h := newHarness(t)
	x := h.dial("X", "Xavier")
	y := h.dial("Y", "Yara")

	x.emit(EventSendMessage, sendMessageRequest{RecipientID: "Y", Content: "hi", WorkspaceID: "W"})
	var echo, pushed struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	x.expect(EventNewMessage, &echo)
	y.expect(EventNewMessage, &pushed)
	assert.Equal(t, "delivered", echo.Status)
	assert.Equal(t, echo, pushed)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Events.WithLabelValues(EventSendMessage, outcomeOK)) == 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestTypingRelay(t *testing.T) {
	h := newHarness(t)
	x := h.dial("X", "Xavier")
	y := h.dial("Y", "Yara")

	x.emit(EventStartTyping, typingRequest{RecipientID: "Y"})
	x.emit(EventStopTyping, typingRequest{RecipientID: "Y"})
	var p typingPayload
	y.expect(EventTyping, &p)
	assert.Equal(t, "X", p.SenderID)
	y.expect(EventStopTyping, &p)
	assert.Equal(t, "X", p.SenderID)
}

func TestBadFramesGetErrorsAndConnectionSurvives(t *testing.T) {
	h := newHarness(t)
	x := h.dial("X", "Xavier")
	y := h.dial("Y", "Yara")

	require.NoError(t, x.ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	var e errorPayload
	x.expect(EventError, &e)
	assert.Equal(t, "bad_request", e.Code)

	x.emit("no-such-event", nil)
	x.expect(EventError, &e)
	assert.Equal(t, "unsupported_event", e.Code)

	x.emit(EventSendMessage, sendMessageRequest{RecipientID: "Y", Content: "  ", WorkspaceID: "W"})
	x.expect(EventError, &e)
	assert.Equal(t, "bad_request", e.Code)

	x.emit(EventMarkRead, markReadRequest{ConversationID: "missing", OtherUserID: "Y"})
	x.expect(EventError, &e)
	assert.Equal(t, "not_found", e.Code)

	x.emit(EventStartTyping, typingRequest{RecipientID: "Y"})
	y.expect(EventTyping, nil)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.ctl.handlers["boom"] = func(context.Context, *session, json.RawMessage) string { panic("kaboom") }
	x := h.dial("X", "Xavier")
	y := h.dial("Y", "Yara")

	x.emit("boom", nil)
	var e errorPayload
	x.expect(EventError, &e)
	assert.Equal(t, "internal_error", e.Code)

	x.emit(EventStartTyping, typingRequest{RecipientID: "Y"})
	y.expect(EventTyping, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Events.WithLabelValues("boom", outcomePanic)))
}

func TestRateLimitedFramesAreRejected(t *testing.T) {
	h := newHarness(t, func(o *Options) {
		o.EventsPerSecond = 0.001
		o.EventBurst = 1
	})
	x := h.dial("X", "Xavier")
	y := h.dial("Y", "Yara")

	x.emit(EventStartTyping, typingRequest{RecipientID: "Y"})
	x.emit(EventStartTyping, typingRequest{RecipientID: "Y"})
	y.expect(EventTyping, nil)

	var e errorPayload
	x.expect(EventError, &e)
	assert.Equal(t, "rate_limited", e.Code)
}
