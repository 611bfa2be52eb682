package engine

// GameError is the base of the two error families a handler can return;
// both carry a stable wire code alongside the human-readable description,
// grounded on pyxyzzy/exceptions.py's GameError dataclass.
type GameError struct {
	Code        string
	Description string
}

func (e *GameError) Error() string {
	return e.Description
}

// InvalidRequest marks a malformed request that a correct client should
// never send; its wire code is always "invalid_request".
type InvalidRequest struct {
	GameError
}

// NewInvalidRequest builds an InvalidRequest with the given description.
func NewInvalidRequest(description string) *InvalidRequest {
	return &InvalidRequest{GameError{Code: "invalid_request", Description: description}}
}

// InvalidGameState marks an error about a game's current state, usually
// the result of a desync between client and server.
type InvalidGameState struct {
	GameError
}

// NewInvalidGameState builds an InvalidGameState with the given wire code
// and description.
func NewInvalidGameState(code, description string) *InvalidGameState {
	return &InvalidGameState{GameError{Code: code, Description: description}}
}

// Well-known InvalidGameState codes, grounded on pyxyzzy/game.py and
// game_server/consumer.py's raise sites.
const (
	CodeInvalidWhiteCards    = "invalid_white_cards"
	CodeUserNotConnected     = "user_not_connected"
	CodeCardNotInHand        = "card_not_in_hand"
	CodeUserInGame           = "user_in_game"
	CodeGameFull             = "game_full"
	CodeTooFewWhiteCards     = "too_few_white_cards"
	CodeUserNotInGame        = "user_not_in_game"
	CodeGameAlreadyStarted   = "game_already_started"
	CodeTooFewPlayers        = "too_few_players"
	CodeTooFewBlackCards     = "too_few_black_cards"
	CodeInvalidRoundState    = "invalid_round_state"
	CodeWrongRound           = "wrong_round"
	CodeAlreadyPlayed        = "already_played"
	CodeInvalidWinner        = "invalid_winner"
	CodeUserNotHost          = "user_not_host"
	CodeSelfKick             = "self_kick"
	CodePlayerNotInGame      = "player_not_in_game"
	CodeUserNotCzar          = "user_not_czar"
	CodeAlreadyAuthenticated = "already_authenticated"
	CodeUserNotFound         = "user_not_found"
	CodeInvalidToken         = "invalid_token"
	CodeNameInUse            = "name_in_use"
	CodeGameNotFound         = "game_not_found"
	CodePasswordRequired     = "password_required"
	CodePasswordIncorrect    = "password_incorrect"
	CodeOptionLocked         = "option_locked"
	CodeInvalidOptions       = "invalid_options"
)
