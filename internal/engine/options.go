package engine

import (
	"regexp"
	"strconv"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/cards"
)

// GameOptions is the full set of tunables for a single game, validated
// against config's absolute limits at construction and on every in-game
// patch.
type GameOptions struct {
	GameTitle    string
	Public       bool
	ThinkTime    int
	RoundEndTime int
	IdleRounds   int
	BlankCards   int
	PlayerLimit  int
	PointLimit   int
	Password     string
	CardPacks    []cards.CardPack
}

// updateableInGame lists the option fields a host may still change once a
// game has started, grounded on GameOptions.updateable_ingame.
var updateableInGame = map[string]bool{
	"game_title": true,
	"public":     true,
	"password":   true,
}

// IsUpdateableInGame reports whether field may be changed by an options
// patch while a game is already running.
func IsUpdateableInGame(field string) bool {
	return updateableInGame[field]
}

// DefaultGameOptions returns a fresh, fully-populated, valid GameOptions.
func DefaultGameOptions() *GameOptions {
	return &GameOptions{
		GameTitle:    config.DefaultGameTitle,
		Public:       false,
		ThinkTime:    config.DefaultThinkTime,
		RoundEndTime: config.DefaultRoundEndTime,
		IdleRounds:   config.DefaultIdleRounds,
		BlankCards:   config.DefaultBlankCards,
		PlayerLimit:  config.DefaultPlayerLimit,
		PointLimit:   config.DefaultPointLimit,
		Password:     config.DefaultPassword,
	}
}

// Validate checks every field against the absolute limits in config,
// mirroring GameOptions.__post_init__'s min/max/length metadata checks.
func (o *GameOptions) Validate() error {
	if len(o.GameTitle) < 1 || len(o.GameTitle) > config.MaxGameTitleLen {
		return NewInvalidGameState(CodeInvalidOptions, "game_title must be between 1 and "+strconv.Itoa(config.MaxGameTitleLen)+" characters")
	}
	if o.ThinkTime < config.MinThinkTime || o.ThinkTime > config.MaxThinkTime {
		return NewInvalidGameState(CodeInvalidOptions, "think_time out of range")
	}
	if o.RoundEndTime < config.MinRoundEndTime || o.RoundEndTime > config.MaxRoundEndTime {
		return NewInvalidGameState(CodeInvalidOptions, "round_end_time out of range")
	}
	if o.IdleRounds < config.MinIdleRounds || o.IdleRounds > config.MaxIdleRounds {
		return NewInvalidGameState(CodeInvalidOptions, "idle_rounds out of range")
	}
	if o.BlankCards < 0 || o.BlankCards > config.MaxBlankCards {
		return NewInvalidGameState(CodeInvalidOptions, "blank_cards out of range")
	}
	if o.PlayerLimit < config.MinPlayerLimit || o.PlayerLimit > config.MaxPlayerLimit {
		return NewInvalidGameState(CodeInvalidOptions, "player_limit out of range")
	}
	if o.PointLimit < 1 || o.PointLimit > config.MaxPointLimit {
		return NewInvalidGameState(CodeInvalidOptions, "point_limit out of range")
	}
	if len(o.Password) > config.MaxPasswordLen {
		return NewInvalidGameState(CodeInvalidOptions, "password too long")
	}
	return nil
}

// badNamePattern matches anything that disqualifies a name: a leading
// space, a trailing space, doubled interior spaces, or a character outside
// NameRegexCharacters. Grounded on UsernameConfig.is_valid_name's
// bad-regex approach, which is simpler to get right than a positive match.
var badNamePattern = regexp.MustCompile(`^ | {2}| $|[^` + config.NameRegexCharacters + `]`)

// ValidName reports whether name is an acceptable user display name.
func ValidName(name string) bool {
	if len(name) < config.NameMinLength || len(name) > config.NameMaxLength {
		return false
	}
	return !badNamePattern.MatchString(name)
}

// OptionsJSON is the client-facing shape of GameOptions, including card pack
// summaries but never their contents.
type OptionsJSON struct {
	GameTitle    string          `json:"game_title"`
	Public       bool            `json:"public"`
	ThinkTime    int             `json:"think_time"`
	RoundEndTime int             `json:"round_end_time"`
	IdleRounds   int             `json:"idle_rounds"`
	BlankCards   int             `json:"blank_cards"`
	PlayerLimit  int             `json:"player_limit"`
	PointLimit   int             `json:"point_limit"`
	Password     string          `json:"password"`
	CardPacks    []cards.Summary `json:"card_packs"`
}

// ToJSON converts o to its wire shape.
func (o *GameOptions) ToJSON() OptionsJSON {
	packs := make([]cards.Summary, len(o.CardPacks))
	for i, p := range o.CardPacks {
		packs[i] = p.Summarize()
	}
	return OptionsJSON{
		GameTitle:    o.GameTitle,
		Public:       o.Public,
		ThinkTime:    o.ThinkTime,
		RoundEndTime: o.RoundEndTime,
		IdleRounds:   o.IdleRounds,
		BlankCards:   o.BlankCards,
		PlayerLimit:  o.PlayerLimit,
		PointLimit:   o.PointLimit,
		Password:     o.Password,
		CardPacks:    packs,
	}
}
