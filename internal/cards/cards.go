// Package cards implements the immutable black/white card model and card
// packs, grounded on pyxyzzy/game.py's BlackCard, WhiteCard and CardPack
// dataclasses.
package cards

import (
	"github.com/google/uuid"

	"github.com/cahserver/server/config"
)

// BlackCard is a prompt card; black cards have no "physical card" identity
// concern the way white cards do, so a simple value-equatable struct is
// enough.
type BlackCard struct {
	Text      string
	PickCount int
	DrawCount int
	Pack      string
}

// WhiteCardID uniquely identifies a "physical" white card slot. It does not
// uniquely identify a card's content: a blank card keeps the same SlotID
// across being written on, and gets a brand new SlotID every time it is
// recycled back into a deck unwritten.
type WhiteCardID = uuid.UUID

// WhiteCard is an answer card; Blank cards have Text == nil until written
// on for a single play.
type WhiteCard struct {
	SlotID WhiteCardID
	Text   *string
	Blank  bool
	Pack   string
}

// NewBlankCard mints a fresh, unwritten blank white card.
func NewBlankCard() WhiteCard {
	return WhiteCard{SlotID: uuid.New(), Blank: true}
}

// ErrNotBlank is returned by WriteBlank when called on a non-blank card.
type ErrNotBlank struct{}

func (ErrNotBlank) Error() string { return "card is not a blank" }

// ErrInvalidBlankText is returned by WriteBlank when text is empty or
// exceeds config.MaxBlankCardTextLength, mirroring BlankCardConfig's
// max_length field.
type ErrInvalidBlankText struct{}

func (ErrInvalidBlankText) Error() string { return "blank card text is empty or too long" }

// WriteBlank returns a new WhiteCard sharing this card's SlotID, with the
// given text filled in. It fails if the card is not blank, or if text is
// empty or longer than config.MaxBlankCardTextLength.
func (c WhiteCard) WriteBlank(text string) (WhiteCard, error) {
	if !c.Blank {
		return WhiteCard{}, ErrNotBlank{}
	}
	if len(text) == 0 || len(text) > config.MaxBlankCardTextLength {
		return WhiteCard{}, ErrInvalidBlankText{}
	}
	return WhiteCard{SlotID: c.SlotID, Text: &text, Blank: true, Pack: c.Pack}, nil
}

// CardPack is an immutable, read-only collection of cards loaded at boot.
type CardPack struct {
	ID         uuid.UUID
	Name       string
	BlackCards []BlackCard
	WhiteCards []WhiteCard
}

// Summary is the client-facing JSON shape of a card pack (counts only, no
// card contents), used both in the handshake catalog and in GameOptions.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BlackCards int    `json:"black_cards"`
	WhiteCards int    `json:"white_cards"`
}

// Summarize returns the client-facing summary of this pack.
func (p CardPack) Summarize() Summary {
	return Summary{
		ID:         p.ID.String(),
		Name:       p.Name,
		BlackCards: len(p.BlackCards),
		WhiteCards: len(p.WhiteCards),
	}
}

// BlackCardJSON is the wire shape of a black card.
type BlackCardJSON struct {
	Text      string `json:"text"`
	PickCount int    `json:"pick_count"`
	DrawCount int    `json:"draw_count"`
}

// ToJSON converts a BlackCard to its wire shape.
func (c BlackCard) ToJSON() BlackCardJSON {
	return BlackCardJSON{Text: c.Text, PickCount: c.PickCount, DrawCount: c.DrawCount}
}

// WhiteCardJSON is the wire shape of a white card.
type WhiteCardJSON struct {
	ID    string  `json:"id"`
	Text  *string `json:"text"`
	Blank bool    `json:"blank"`
}

// ToJSON converts a WhiteCard to its wire shape.
func (c WhiteCard) ToJSON() WhiteCardJSON {
	return WhiteCardJSON{ID: c.SlotID.String(), Text: c.Text, Blank: c.Blank}
}
