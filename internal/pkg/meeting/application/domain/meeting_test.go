package meeting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareableID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id, err := NewShareableID()
		require.NoError(t, err)
		assert.True(t, ValidShareableID(id), id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 190)

	assert.True(t, ValidShareableID("ABCD-1234"))
	for _, bad := range []string{"", "abcd-1234", "ABCD1234", "ABCD-12345", "AB1D-1234", "ABCD-12A4"} {
		assert.False(t, ValidShareableID(bad), bad)
	}
}

func TestNewMeetingNormalizes(t *testing.T) {
	m, err := NewMeeting("ABCD-1234", "w1", "  Standup ", "boss",
		[]string{"a", "a", " ", "boss", "b"},
		[]string{"Ann <ANN@example.com>", "ann@example.com"},
		nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Standup", m.Title)
	assert.Equal(t, []string{"a", "b"}, m.Participants)
	assert.Equal(t, []string{"ann@example.com"}, m.ParticipantEmails)

	assert.True(t, m.IsAdmin("boss"))
	assert.False(t, m.IsAdmin("a"))
	assert.True(t, m.IsInvited("a"))
	assert.False(t, m.IsInvited("boss"))
	assert.False(t, m.IsInvited(""))
}

func TestNewMeetingRejects(t *testing.T) {
	cases := []struct {
		id, ws, title, by string
		emails            []string
	}{
		{"ABCD-1234", "", "t", "u", nil},
		{"ABCD-1234", "w", " ", "u", nil},
		{"ABCD-1234", "w", "t", "", nil},
		{"bad", "w", "t", "u", nil},
		{"ABCD-1234", "w", "t", "u", []string{"not-an-email"}},
	}
	for _, c := range cases {
		_, err := NewMeeting(c.id, c.ws, c.title, c.by, nil, c.emails, nil, time.Now())
		assert.ErrorIs(t, err, ErrInvalidMeeting, "%+v", c)
	}
}
