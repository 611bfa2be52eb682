// Package network defines the JSON wire protocol spoken over the
// websocket connection: request/response envelopes and action names,
// grounded on game_server/consumer.py's receive_json dispatch.
package network

import "encoding/json"

// Action names a client request's "action" field may carry.
const (
	ActionAuthenticate = "authenticate"
	ActionCreateGame   = "create_game"
	ActionJoinGame     = "join_game"
	ActionLeaveGame    = "leave_game"
	ActionKickPlayer   = "kick_player"
	ActionGameOptions  = "game_options"
	ActionStartGame    = "start_game"
	ActionStopGame     = "stop_game"
	ActionPlayWhite    = "play_white"
	ActionChooseWinner = "choose_winner"
	ActionChat         = "chat"
	ActionListGames    = "game_list"
)

// Error codes raised by the dispatch layer itself, before a request ever
// reaches a handler.
const (
	// ErrorCodeInternal is returned when a handler panics or otherwise
	// fails in a way that was never meant to reach the client as a typed
	// GameError.
	ErrorCodeInternal = "internal_error"

	// ErrorCodeNotAuthenticated is returned for any action but
	// authenticate, sent before the connection has an attached user.
	ErrorCodeNotAuthenticated = "not_authenticated"

	// ErrorCodeInvalidAction is returned when the action registry has no
	// handler for the request's action name.
	ErrorCodeInvalidAction = "invalid_action"
)

// Request is the envelope every client call arrives wrapped in.
type Request struct {
	Action string `json:"action"`
	CallID any    `json:"call_id"`

	// Authenticate
	ID    string `json:"id,omitempty"`
	Token string `json:"token,omitempty"`
	Name  string `json:"name,omitempty"`

	// CreateGame / GameOptions
	Options *OptionsPatch `json:"options,omitempty"`

	// KickPlayer
	User string `json:"user,omitempty"`

	// JoinGame
	Code     string `json:"code,omitempty"`
	Password string `json:"password,omitempty"`

	// PlayWhite
	Cards []PlayedCardInput `json:"cards,omitempty"`

	// ChooseWinner
	Winner string `json:"winner,omitempty"`

	// Chat
	Text string `json:"text,omitempty"`
}

// HandshakeRequest is the very first message a connection must send,
// before any `{"action", ...}` call is accepted, grounded on
// consumer.py's version check at connect time.
type HandshakeRequest struct {
	Version string `json:"version"`
}

// PlayedCardInput is one submitted card slot with its optional blank text.
type PlayedCardInput struct {
	ID   string  `json:"id"`
	Text *string `json:"text"`
}

// OptionsPatch carries only the option fields the client actually sent;
// nil fields are left unchanged. Pointers distinguish "omitted" from
// "explicitly reset to the zero value" the way the Python handler's
// dict-based content payload naturally does.
type OptionsPatch struct {
	GameTitle    *string  `json:"game_title,omitempty"`
	Public       *bool    `json:"public,omitempty"`
	ThinkTime    *int     `json:"think_time,omitempty"`
	RoundEndTime *int     `json:"round_end_time,omitempty"`
	IdleRounds   *int     `json:"idle_rounds,omitempty"`
	BlankCards   *int     `json:"blank_cards,omitempty"`
	PlayerLimit  *int     `json:"player_limit,omitempty"`
	PointLimit   *int     `json:"point_limit,omitempty"`
	Password     *string  `json:"password,omitempty"`
	CardPacks    []string `json:"card_packs,omitempty"`
}

// Response is the envelope every reply to a Request is wrapped in. Error is
// empty on success; Result carries whatever a handler returned. On the
// wire, Result's fields are flattened into the reply object alongside
// call_id/error/description rather than nested under a "result" key,
// matching consumer.py's send_json(call_id=..., error=None, **result).
type Response struct {
	CallID      any
	Error       string
	Description string
	Result      any
}

// MarshalJSON flattens Result's own JSON object fields up into the reply
// envelope. Result must marshal to a JSON object (a map[string]any, or a
// struct/pointer whose JSON shape is an object) or be nil/omitted.
func (r Response) MarshalJSON() ([]byte, error) {
	out := map[string]any{"call_id": r.CallID}
	if r.Error == "" {
		out["error"] = nil
	} else {
		out["error"] = r.Error
		if r.Description != "" {
			out["description"] = r.Description
		}
	}
	if r.Result != nil {
		fields, err := asJSONObject(r.Result)
		if err != nil {
			return nil, err
		}
		for k, v := range fields {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func asJSONObject(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Push is an unsolicited server-to-client message: game/players/hand/options
// state refreshes and/or events, keyed the same way Game's player-message
// builder assembles its payload.
type Push map[string]any
