package controller

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	chat "projectsync/internal/pkg/chat/application/domain"
	chatuc "projectsync/internal/pkg/chat/application/usecase"
	meeting "projectsync/internal/pkg/meeting/application/domain"
	meetinguc "projectsync/internal/pkg/meeting/application/usecase"
)

// Inbound events.
const (
	EventRequestToJoin = "request-to-join"
	EventAdmitGuest    = "admit-guest"
	EventDenyGuest     = "deny-guest"
	EventSendMessage   = "sendMessage"
	EventMarkRead      = "markMessagesAsRead"
	EventStartTyping   = "startTyping"
	EventStopTyping    = "stopTyping"
)

// Outbound events. stopTyping is relayed under its inbound name.
const (
	EventJoinApproved   = "join-request-approved"
	EventWaitingForHost = "waiting-for-host"
	EventJoinFailed     = "join-request-failed"
	EventNewJoinRequest = "new-join-request"
	EventJoinDenied     = "join-request-denied"
	EventNewMessage     = "newMessage"
	EventMessagesRead   = "messagesRead"
	EventTyping         = "typing"
	EventError          = "error"
)

const (
	outcomeOK          = "ok"
	outcomeFailed      = "failed"
	outcomeInvalid     = "invalid"
	outcomeDropped     = "dropped"
	outcomePanic       = "panic"
	outcomeRateLimited = "rate_limited"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinRequest struct {
	MeetingID string `json:"meetingId"`
}

type guestDecision struct {
	Guest     meeting.Guest `json:"guest"`
	MeetingID string        `json:"meetingId"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

type failurePayload struct {
	Message string `json:"message"`
}

type sendMessageRequest struct {
	RecipientID    string `json:"recipientId"`
	Content        string `json:"content"`
	WorkspaceID    string `json:"workspaceId"`
	ConversationID string `json:"conversationId,omitempty"`
}

type newMessagePayload struct {
	chat.Message
	RecipientID string `json:"recipientId"`
	WorkspaceID string `json:"workspaceId"`
}

type markReadRequest struct {
	ConversationID string `json:"conversationId"`
	OtherUserID    string `json:"otherUserId"`
}

type messagesReadPayload struct {
	ConversationID string `json:"conversationId"`
}

type typingRequest struct {
	RecipientID string `json:"recipientId"`
}

type typingPayload struct {
	SenderID string `json:"senderId"`
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, v)
}

func (ctl *GatewaySocketController) guestOf(s *session) meeting.Guest {
	return meeting.Guest{ID: s.identity.ID, Name: s.identity.Name}
}

func (ctl *GatewaySocketController) handleRequestToJoin(ctx context.Context, s *session, data json.RawMessage) string {
	var req joinRequest
	if err := decodeData(data, &req); err != nil || strings.TrimSpace(req.MeetingID) == "" {
		ctl.push(s, EventJoinFailed, failurePayload{Message: "meetingId is required"})
		return outcomeInvalid
	}

	guest := ctl.guestOf(s)
	out, err := ctl.admissionUC.RequestToJoin(ctx, guest, req.MeetingID)
	if err != nil {
		switch {
		case errors.Is(err, meeting.ErrMeetingNotFound):
			ctl.push(s, EventJoinFailed, failurePayload{Message: "Meeting not found"})
		default:
			ctl.logger.Error("join request failed",
				"event", EventRequestToJoin, "user_id", s.identity.ID, "conn_id", s.conn.ID(), "meeting_id", req.MeetingID, "err", err)
			ctl.push(s, EventJoinFailed, failurePayload{Message: "Could not process join request"})
		}
		return outcomeFailed
	}

	if out.Decision == meetinguc.DecisionApproved {
		ctl.push(s, EventJoinApproved, tokenPayload{Token: out.Token})
		return outcomeOK
	}

	// The request is not kept anywhere: an offline host never hears about it.
	if !ctl.notify(out.AdminID, EventNewJoinRequest, guestDecision{Guest: guest, MeetingID: out.Meeting.MeetingID}) {
		ctl.logger.Debug("meeting host offline, join request not forwarded",
			"user_id", s.identity.ID, "meeting_id", out.Meeting.MeetingID)
	}
	ctl.push(s, EventWaitingForHost, nil)
	return outcomeOK
}

func (ctl *GatewaySocketController) handleAdmitGuest(ctx context.Context, s *session, data json.RawMessage) string {
	var req guestDecision
	if err := decodeData(data, &req); err != nil {
		ctl.replyError(s, "bad_request", "invalid admit-guest payload")
		return outcomeInvalid
	}

	token, err := ctl.admissionUC.Admit(ctx, s.identity.ID, req.Guest, req.MeetingID)
	if err != nil {
		return ctl.hostDecisionFailed(s, EventAdmitGuest, req, err)
	}
	ctl.notify(req.Guest.ID, EventJoinApproved, tokenPayload{Token: token})
	return outcomeOK
}

func (ctl *GatewaySocketController) handleDenyGuest(ctx context.Context, s *session, data json.RawMessage) string {
	var req guestDecision
	if err := decodeData(data, &req); err != nil {
		ctl.replyError(s, "bad_request", "invalid deny-guest payload")
		return outcomeInvalid
	}

	if err := ctl.admissionUC.Deny(ctx, s.identity.ID, req.Guest, req.MeetingID); err != nil {
		return ctl.hostDecisionFailed(s, EventDenyGuest, req, err)
	}
	ctl.notify(req.Guest.ID, EventJoinDenied, nil)
	return outcomeOK
}

// hostDecisionFailed handles admit/deny errors. Anything that could tell the caller whether the
// meeting exists or who hosts it is dropped without a reply.
func (ctl *GatewaySocketController) hostDecisionFailed(s *session, event string, req guestDecision, err error) string {
	switch {
	case errors.Is(err, meeting.ErrNotMeetingAdmin),
		errors.Is(err, meeting.ErrMeetingNotFound),
		errors.Is(err, meeting.ErrInvalidMeeting):
		ctl.logger.Debug("host decision dropped",
			"event", event, "user_id", s.identity.ID, "conn_id", s.conn.ID(), "meeting_id", req.MeetingID, "err", err)
		return outcomeDropped
	default:
		ctl.logger.Error("host decision failed",
			"event", event, "user_id", s.identity.ID, "conn_id", s.conn.ID(), "meeting_id", req.MeetingID, "err", err)
		ctl.replyError(s, "internal_error", "could not process decision")
		return outcomeFailed
	}
}

func (ctl *GatewaySocketController) handleSendMessage(ctx context.Context, s *session, data json.RawMessage) string {
	var req sendMessageRequest
	if err := decodeData(data, &req); err != nil {
		ctl.replyError(s, "bad_request", "invalid sendMessage payload")
		return outcomeInvalid
	}

	out, err := ctl.sendMessageUC.Execute(ctx, chatuc.SendMessageInput{
		SenderID:       s.identity.ID,
		RecipientID:    req.RecipientID,
		WorkspaceID:    req.WorkspaceID,
		Content:        req.Content,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return ctl.chatFailed(s, EventSendMessage, err)
	}

	msg := newMessagePayload{Message: *out.Message, RecipientID: req.RecipientID, WorkspaceID: out.Conversation.WorkspaceID}
	ctl.push(s, EventNewMessage, msg)
	// the sender may have a newer connection on another device
	if current, ok := ctl.registry.Lookup(s.identity.ID); ok && current.ID() != s.conn.ID() {
		ctl.notify(s.identity.ID, EventNewMessage, msg)
	}
	ctl.notify(req.RecipientID, EventNewMessage, msg)
	return outcomeOK
}

func (ctl *GatewaySocketController) handleMarkRead(ctx context.Context, s *session, data json.RawMessage) string {
	var req markReadRequest
	if err := decodeData(data, &req); err != nil {
		ctl.replyError(s, "bad_request", "invalid markMessagesAsRead payload")
		return outcomeInvalid
	}

	out, err := ctl.markReadUC.Execute(ctx, chatuc.MarkMessagesReadInput{
		ConversationID: req.ConversationID,
		ReaderID:       s.identity.ID,
		OtherUserID:    req.OtherUserID,
	})
	if err != nil {
		return ctl.chatFailed(s, EventMarkRead, err)
	}
	ctl.notify(req.OtherUserID, EventMessagesRead, messagesReadPayload{ConversationID: out.Conversation.ID})
	return outcomeOK
}

func (ctl *GatewaySocketController) chatFailed(s *session, event string, err error) string {
	switch {
	case errors.Is(err, chatuc.ErrInvalidInput):
		ctl.replyError(s, "bad_request", err.Error())
		return outcomeInvalid
	case errors.Is(err, chat.ErrConversationNotFound):
		ctl.replyError(s, "not_found", "conversation not found")
	case errors.Is(err, chat.ErrNotParticipant):
		ctl.replyError(s, "forbidden", "user is not a participant in this conversation")
	default:
		ctl.logger.Error("chat event failed", "event", event, "user_id", s.identity.ID, "conn_id", s.conn.ID(), "err", err)
		ctl.replyError(s, "internal_error", "unexpected persistence error")
	}
	return outcomeFailed
}

// handleTyping relays a typing signal as outbound event. Nothing is stored or acknowledged.
func (ctl *GatewaySocketController) handleTyping(outbound string) eventHandler {
	return func(_ context.Context, s *session, data json.RawMessage) string {
		var req typingRequest
		if err := decodeData(data, &req); err != nil || req.RecipientID == "" {
			return outcomeInvalid
		}
		ctl.notify(req.RecipientID, outbound, typingPayload{SenderID: s.identity.ID})
		return outcomeOK
	}
}
