package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceToggleRequestCoercion(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		mutedMic bool
		mutedAll bool
	}{
		{"booleans", `{"muted_mic":true,"muted_all":false}`, true, false},
		{"numbers", `{"muted_mic":1,"muted_all":0}`, true, false},
		{"non-zero number", `{"muted_mic":2.5,"muted_all":-1}`, true, true},
		{"strings", `{"muted_mic":"true","muted_all":"1"}`, true, true},
		{"false strings", `{"muted_mic":"false","muted_all":"0"}`, false, false},
		{"empty string", `{"muted_mic":"","muted_all":"off"}`, false, false},
		{"null", `{"muted_mic":null,"muted_all":null}`, false, false},
		{"absent", `{}`, false, false},
		{"only one", `{"muted_all":true}`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req VoiceToggleRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.mutedMic, bool(req.MutedMic))
			assert.Equal(t, tt.mutedAll, bool(req.MutedAll))
		})
	}
}

func TestFlagRejectsGarbage(t *testing.T) {
	var req VoiceToggleRequest
	err := json.Unmarshal([]byte(`{"muted_mic":[1]}`), &req)
	assert.Error(t, err)
}

func TestParseFlag(t *testing.T) {
	assert.True(t, bool(ParseFlag("on")))
	assert.True(t, bool(ParseFlag(" YES ")))
	assert.True(t, bool(ParseFlag("3")))
	assert.False(t, bool(ParseFlag("")))
	assert.False(t, bool(ParseFlag("off")))
}

func TestVoiceSettingsRequestBitrateAlias(t *testing.T) {
	var req VoiceSettingsRequest
	require.NoError(t, json.Unmarshal([]byte(`{"bitrate_kbps":96}`), &req))
	require.NoError(t, req.Validate())
	require.NotNil(t, req.Bitrate)
	assert.Equal(t, 96, *req.Bitrate)

	ch := &Channel{Name: "General Voice", Type: ChannelTypeVoice, MaxUsers: 10, BitrateKbps: 64}
	req.Apply(ch)
	assert.Equal(t, 96, ch.BitrateKbps)
	assert.Equal(t, "General Voice", ch.Name)
	assert.False(t, ch.HasPassword)
}

func TestVoiceSettingsRequestValidate(t *testing.T) {
	zero := 0
	req := VoiceSettingsRequest{MaxUsers: &zero}
	assert.Error(t, req.Validate())

	huge := 10_000
	req = VoiceSettingsRequest{Bitrate: &huge}
	assert.Error(t, req.Validate())

	blank := "   "
	req = VoiceSettingsRequest{Name: &blank}
	assert.Error(t, req.Validate())
}

func TestCreateMessageRequestValidate(t *testing.T) {
	req := CreateMessageRequest{Content: "   "}
	assert.Error(t, req.Validate())

	url := "/uploads/a.png"
	req = CreateMessageRequest{ImageURL: &url}
	assert.NoError(t, req.Validate())

	req = CreateMessageRequest{Content: "hi"}
	assert.NoError(t, req.Validate())
}

func TestCreateUserRequestValidate(t *testing.T) {
	req := CreateUserRequest{Username: "  alice ", Password: "secret"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "alice", req.Username)

	req = CreateUserRequest{Username: "bob", Password: "12345"}
	assert.Error(t, req.Validate())

	req = CreateUserRequest{Username: "", Password: "123456"}
	assert.Error(t, req.Validate())
}
