package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRequestParsesAction(t *testing.T) {
	raw := []byte(`{"action":"authenticate","call_id":1,"name":"Alice"}`)
	req, err := DecodeRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionAuthenticate, req.Action)
	assert.Equal(t, "Alice", req.Name)
}

func TestDecodeRequestRejectsMissingAction(t *testing.T) {
	raw := []byte(`{"call_id":1}`)
	_, err := DecodeRequest(raw)
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeRequestRejectsMissingCallID(t *testing.T) {
	raw := []byte(`{"action":"leave_game"}`)
	_, err := DecodeRequest(raw)
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestDecodeRequestRejectsGarbage(t *testing.T) {
	_, err := DecodeRequest([]byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestEncodeResponseRoundTrips(t *testing.T) {
	resp := SuccessResponse("call-1", map[string]any{"id": "abc"})
	raw, err := EncodeResponse(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "call-1", decoded["call_id"])
	assert.Nil(t, decoded["error"])
	assert.Equal(t, "abc", decoded["id"])
}

func TestErrorResponseCarriesCodeAndDescription(t *testing.T) {
	resp := ErrorResponse("call-2", "user_not_in_game", "user not in game")
	raw, err := EncodeResponse(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "user_not_in_game", decoded["error"])
	assert.Equal(t, "user not in game", decoded["description"])
}
