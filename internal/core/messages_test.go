package core_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dkeye/groupcall/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want core.Envelope
	}{
		{
			name: "join",
			in:   `{"id":"joinRoom","room":"demo","name":"Alice"}`,
			want: core.JoinRoom{Room: "demo", Name: "Alice"},
		},
		{
			name: "receive",
			in:   `{"id":"receiveVideoFrom","sender":"Bob","sdpOffer":"v=0"}`,
			want: core.ReceiveVideoFrom{Sender: "Bob", SDPOffer: "v=0"},
		},
		{
			name: "leave",
			in:   `{"id":"leaveRoom"}`,
			want: core.LeaveRoom{},
		},
		{
			name: "candidate",
			in:   `{"id":"onIceCandidate","name":"Bob","candidate":{"candidate":"candidate:0","sdpMid":"1","sdpMLineIndex":1}}`,
			want: core.OnIceCandidate{Name: "Bob", Candidate: core.Candidate{Candidate: "candidate:0", SDPMid: "1", SDPMLineIndex: 1}},
		},
		{
			name: "unknown",
			in:   `{"id":"stop"}`,
			want: core.Unknown{ID: "stop"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := core.DecodeEnvelope([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, err := core.DecodeEnvelope([]byte(`{"id":`))
	require.Error(t, err)

	_, err = core.DecodeEnvelope([]byte(`{"id":"joinRoom","room":7}`))
	require.Error(t, err)
}

func TestServerMessagesWireFormat(t *testing.T) {
	b, err := json.Marshal(core.NewReceiveVideoAnswerMessage("Alice", "A1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"receiveVideoAnswer","name":"Alice","sdpAnswer":"A1"}`, string(b))

	b, err = json.Marshal(core.NewIceCandidateMessage("Bob", core.Candidate{Candidate: "c", SDPMid: "0", SDPMLineIndex: 0}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"iceCandidate","name":"Bob","candidate":{"candidate":"c","sdpMid":"0","sdpMLineIndex":0}}`, string(b))

	b, err = json.Marshal(core.NewExistingParticipantsMessage(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"existingParticipants","data":[]}`, string(b))
}

func TestErrorMessageCarriesCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", core.ErrUnknownParticipant)
	m := core.NewErrorMessage(core.IDReceiveVideoFrom, err)
	assert.Equal(t, core.IDError, m.ID)
	assert.Equal(t, "unknown_participant", m.Code)
	assert.Equal(t, "internal", core.ErrorCode(errors.New("boom")))
}
