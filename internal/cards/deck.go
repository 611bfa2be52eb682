package cards

import (
	"errors"
	"math/rand/v2"
)

// ErrEmptyDeck is returned by Draw when neither the draw pile nor the
// discard pile has any cards left.
var ErrEmptyDeck = errors.New("cards: no cards left in deck")

// Deck is a generic draw/discard pile. It is not safe for concurrent use;
// callers are expected to only touch a Game's decks from the engine loop.
type Deck[T any] struct {
	draw    []T
	discard []T
	recycle func(T) T
}

// NewDeck creates an empty deck. recycle transforms a card on its way into
// the discard pile; pass nil for "discard unchanged". White decks use this
// hook to mint a fresh blank in place of a written-on one.
func NewDeck[T any](recycle func(T) T) *Deck[T] {
	if recycle == nil {
		recycle = func(c T) T { return c }
	}
	return &Deck[T]{recycle: recycle}
}

// BuildBlack builds a black-card deck from the given packs, deduping by
// text across packs.
func BuildBlack(packs []CardPack) *Deck[BlackCard] {
	d := NewDeck[BlackCard](nil)
	seen := make(map[string]bool)
	for _, pack := range packs {
		for _, c := range pack.BlackCards {
			if seen[c.Text] {
				continue
			}
			seen[c.Text] = true
			d.discard = append(d.discard, c)
		}
	}
	return d
}

// recycleWhite replaces a blank card with a freshly minted one on discard,
// so a written-on card never lingers in the deck under its old content.
func recycleWhite(c WhiteCard) WhiteCard {
	if c.Blank {
		return NewBlankCard()
	}
	return c
}

// BuildWhite builds a white-card deck from the given packs plus blanks
// freshly-minted blank cards, deduping pack cards by text across packs.
func BuildWhite(packs []CardPack, blanks int) *Deck[WhiteCard] {
	d := NewDeck[WhiteCard](recycleWhite)
	seen := make(map[string]bool)
	for _, pack := range packs {
		for _, c := range pack.WhiteCards {
			if c.Blank || c.Text == nil {
				continue
			}
			if seen[*c.Text] {
				continue
			}
			seen[*c.Text] = true
			d.discard = append(d.discard, c)
		}
	}
	for i := 0; i < blanks; i++ {
		d.discard = append(d.discard, NewBlankCard())
	}
	return d
}

// Draw pops the top of the draw pile, reshuffling the discard pile into it
// first if empty.
func (d *Deck[T]) Draw() (T, error) {
	if len(d.draw) == 0 {
		d.Reshuffle()
		if len(d.draw) == 0 {
			var zero T
			return zero, ErrEmptyDeck
		}
	}
	n := len(d.draw) - 1
	card := d.draw[n]
	d.draw = d.draw[:n]
	return card, nil
}

// DrawDiscard draws a card and immediately discards it (used for the black
// card shown to the table each round).
func (d *Deck[T]) DrawDiscard() (T, error) {
	card, err := d.Draw()
	if err != nil {
		return card, err
	}
	d.Discard(card)
	return card, nil
}

// Discard adds card to the discard pile, running it through the recycle
// hook first.
func (d *Deck[T]) Discard(card T) {
	d.discard = append(d.discard, d.recycle(card))
}

// DiscardAll discards every card in cards, in order.
func (d *Deck[T]) DiscardAll(cardsToDiscard []T) {
	for _, c := range cardsToDiscard {
		d.Discard(c)
	}
}

// TotalCards returns the combined size of the draw and discard piles.
func (d *Deck[T]) TotalCards() int {
	return len(d.draw) + len(d.discard)
}

// Reshuffle moves every discarded card back into the draw pile in a
// uniformly random order, then clears the discard pile.
func (d *Deck[T]) Reshuffle() {
	d.draw = append(d.draw, d.discard...)
	d.discard = nil
	rand.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}
