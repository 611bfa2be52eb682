package network

import (
	"encoding/json"
	"errors"
)

// ErrInvalidMessage is returned by DecodeRequest when the payload is not a
// well-formed Request envelope.
var ErrInvalidMessage = errors.New("network: invalid message")

// DecodeRequest parses one client frame into a Request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ErrInvalidMessage
	}
	if req.Action == "" || req.CallID == nil {
		return nil, ErrInvalidMessage
	}
	return &req, nil
}

// DecodeHandshake parses the very first frame a connection sends into a
// HandshakeRequest.
func DecodeHandshake(data []byte) (*HandshakeRequest, error) {
	var req HandshakeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, ErrInvalidMessage
	}
	if req.Version == "" {
		return nil, ErrInvalidMessage
	}
	return &req, nil
}

// EncodeResponse serializes a Response into a client frame.
func EncodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

// EncodePush serializes an unsolicited push message into a client frame.
func EncodePush(push Push) ([]byte, error) {
	return json.Marshal(push)
}

// SuccessResponse builds a Response carrying a handler's result.
func SuccessResponse(callID any, result any) Response {
	return Response{CallID: callID, Result: result}
}

// ErrorResponse builds a Response reporting a GameError's wire code and
// description.
func ErrorResponse(callID any, code, description string) Response {
	return Response{CallID: callID, Error: code, Description: description}
}
