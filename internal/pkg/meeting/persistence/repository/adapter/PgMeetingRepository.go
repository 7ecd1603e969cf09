package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	meeting "projectsync/internal/pkg/meeting/application/domain"
	repository "projectsync/internal/pkg/meeting/persistence/repository/port"
)

const pgUniqueViolation = "23505"

type PgMeetingRepository struct {
	pool *pgxpool.Pool
}

func NewPgMeetingRepository(pool *pgxpool.Pool) *PgMeetingRepository {
	return &PgMeetingRepository{pool: pool}
}

var _ repository.MeetingRepository = (*PgMeetingRepository)(nil)

func (r *PgMeetingRepository) FindByMeetingID(ctx context.Context, meetingID string) (*meeting.Meeting, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMeetingRepository: nil pool")
	}
	var m meeting.Meeting
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, meeting_id, workspace_id, title, created_by, participants, participant_emails, starts_at, created_at
		FROM meeting.meeting
		WHERE meeting_id = $1
	`, meetingID).Scan(&m.ID, &m.MeetingID, &m.WorkspaceID, &m.Title, &m.CreatedBy, &m.Participants, &m.ParticipantEmails, &m.StartsAt, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, meeting.ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgMeetingRepository) Create(ctx context.Context, m meeting.Meeting) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgMeetingRepository: nil pool")
	}
	if m.Participants == nil {
		m.Participants = []string{}
	}
	if m.ParticipantEmails == nil {
		m.ParticipantEmails = []string{}
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO meeting.meeting (meeting_id, workspace_id, title, created_by, participants, participant_emails, starts_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text
	`, m.MeetingID, m.WorkspaceID, m.Title, m.CreatedBy, m.Participants, m.ParticipantEmails, m.StartsAt, m.CreatedAt).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return "", repository.ErrDuplicateMeetingID
	}
	return id, err
}
