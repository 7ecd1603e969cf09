package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	payload, err := Encode("messagesRead", map[string]string{"conversationId": "c1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"messagesRead","data":{"conversationId":"c1"}}`, string(payload))

	f, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "messagesRead", f.Event)
	assert.JSONEq(t, `{"conversationId":"c1"}`, string(f.Data))
}

func TestEncodeWithoutData(t *testing.T) {
	payload, err := Encode("waiting-for-host", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"waiting-for-host"}`, string(payload))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
