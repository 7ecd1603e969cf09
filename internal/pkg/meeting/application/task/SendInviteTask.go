package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mailer "projectsync/internal/infrastructure/mail"
	qport "projectsync/internal/infrastructure/queue/port"
	meeting "projectsync/internal/pkg/meeting/application/domain"
)

// SendInviteTaskType is the queue task name for mailing one meeting invitation.
const SendInviteTaskType = "meeting:send_invite"

// SendInviteTaskPayload is the JSON payload transported via the queue.
// Kept decoupled from domain types to avoid tight coupling with JSON tags.
type SendInviteTaskPayload struct {
	To        string     `json:"to"`
	MeetingID string     `json:"meetingId"`
	Title     string     `json:"title"`
	StartsAt  *time.Time `json:"startsAt,omitempty"`
}

// inviteMessage renders the invitation mail.
func inviteMessage(p SendInviteTaskPayload) mailer.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You have been invited to %q.\n", p.Title)
	if p.StartsAt != nil {
		fmt.Fprintf(&b, "It starts at %s.\n", p.StartsAt.UTC().Format(time.RFC1123))
	}
	fmt.Fprintf(&b, "Join with meeting id %s.\n", p.MeetingID)
	return mailer.Message{To: p.To, Subject: "Meeting invitation: " + p.Title, Body: b.String()}
}

func payloads(m meeting.Meeting) []SendInviteTaskPayload {
	out := make([]SendInviteTaskPayload, 0, len(m.ParticipantEmails))
	for _, to := range m.ParticipantEmails {
		out = append(out, SendInviteTaskPayload{To: to, MeetingID: m.MeetingID, Title: m.Title, StartsAt: m.StartsAt})
	}
	return out
}

// RegisterSendInviteTask binds the task handler to the provided server.
func RegisterSendInviteTask(srv qport.Server, sender mailer.Sender, logger *slog.Logger) {
	srv.Register(SendInviteTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendInviteTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			logger.Error("dropping malformed invite task", "err", err)
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		err := sender.Send(ctx, inviteMessage(p))
		if errors.Is(err, mailer.ErrInvalidMessage) {
			logger.Error("dropping undeliverable invite", "meeting_id", p.MeetingID, "err", err)
			return nil
		}
		// other errors are returned so the queue retries per its policy
		return err
	})
}

// QueuedInviter enqueues one invite task per email address.
type QueuedInviter struct {
	Q qport.Client
}

func NewQueuedInviter(client qport.Client) *QueuedInviter {
	return &QueuedInviter{Q: client}
}

func (i *QueuedInviter) Invite(ctx context.Context, m meeting.Meeting) error {
	var errs []error
	for _, p := range payloads(m) {
		b, err := json.Marshal(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		opts := qport.EnqueueOption{Queue: "mail", MaxRetry: 5, Timeout: time.Minute}
		if _, err := i.Q.Enqueue(ctx, qport.Task{Type: SendInviteTaskType, Payload: b}, opts); err != nil {
			errs = append(errs, fmt.Errorf("enqueue invite for %s: %w", p.To, err))
		}
	}
	return errors.Join(errs...)
}

// DirectInviter mails invitations from a background goroutine when no queue is configured.
// Failures are logged and not retried.
type DirectInviter struct {
	Sender mailer.Sender
	Logger *slog.Logger
	// Timeout bounds the whole batch. Zero means one minute.
	Timeout time.Duration
}

func NewDirectInviter(sender mailer.Sender, logger *slog.Logger) *DirectInviter {
	return &DirectInviter{Sender: sender, Logger: logger, Timeout: time.Minute}
}

func (i *DirectInviter) Invite(ctx context.Context, m meeting.Meeting) error {
	batch := payloads(m)
	timeout := i.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		for _, p := range batch {
			if err := i.Sender.Send(ctx, inviteMessage(p)); err != nil {
				i.Logger.Warn("meeting invite failed", "meeting_id", p.MeetingID, "to", p.To, "err", err)
			}
		}
	}()
	return nil
}
