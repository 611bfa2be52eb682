package engine

import (
	"crypto/md5"
	"crypto/rand"
	"sort"

	"github.com/google/uuid"

	"github.com/cahserver/server/internal/cards"
)

// Round is a single hand of play: one black card, one card czar, and the
// white cards each other player has submitted so far.
type Round struct {
	ID        uuid.UUID
	CardCzar  *Player
	BlackCard cards.BlackCard
	Winner    *Player

	whiteCards map[uuid.UUID][]cards.WhiteCard
	// orderKey seeds the pseudo-random display order of submitted white
	// cards, so the order is stable across resends within a round but
	// unpredictable across rounds.
	orderKey [16]byte
}

// NewRound starts a round with czar as card czar and blackCard drawn for it.
func NewRound(czar *Player, blackCard cards.BlackCard) *Round {
	r := &Round{
		ID:         uuid.New(),
		CardCzar:   czar,
		BlackCard:  blackCard,
		whiteCards: make(map[uuid.UUID][]cards.WhiteCard),
	}
	_, _ = rand.Read(r.orderKey[:])
	return r
}

// NeedsToPlay reports whether player still owes white cards this round:
// false for the card czar, for anyone who already played, and for anyone
// who just joined with an empty hand.
func (r *Round) NeedsToPlay(player *Player) bool {
	if player == r.CardCzar {
		return false
	}
	if len(player.Hand) == 0 {
		return false
	}
	_, played := r.whiteCards[player.ID()]
	return !played
}

// RecordPlay stores the cards a player submitted for this round.
func (r *Round) RecordPlay(player *Player, playedCards []cards.WhiteCard) {
	r.whiteCards[player.ID()] = playedCards
}

// PlayedBy returns the cards player submitted this round, if any.
func (r *Round) PlayedBy(player *Player) ([]cards.WhiteCard, bool) {
	c, ok := r.whiteCards[player.ID()]
	return c, ok
}

// TakeBack removes and returns player's submission, used when cancelling a
// round to return cards to hands.
func (r *Round) TakeBack(playerID uuid.UUID) ([]cards.WhiteCard, bool) {
	c, ok := r.whiteCards[playerID]
	if ok {
		delete(r.whiteCards, playerID)
	}
	return c, ok
}

// PlayedCount returns how many players have submitted cards so far.
func (r *Round) PlayedCount() int {
	return len(r.whiteCards)
}

// WinningPlayerID returns the id of the player whose play starts with
// winningCard, if any play does; later cards of a play are not matched.
func (r *Round) WinningPlayerID(winningCard uuid.UUID) (uuid.UUID, bool) {
	for playerID, played := range r.whiteCards {
		if len(played) > 0 && played[0].SlotID == winningCard {
			return playerID, true
		}
	}
	return uuid.Nil, false
}

// playSet pairs a player id with the cards it submitted, for a stable,
// externally-sortable view of RandomizedPlays.
type playSet struct {
	playerID uuid.UUID
	cards    []cards.WhiteCard
}

// RandomizedPlays returns every submitted play in a random but
// round-consistent order, determined by hashing orderKey with each
// player's id — the same technique pyxyzzy used with md5 as a
// pseudo-random permutation function.
func (r *Round) RandomizedPlays() [][]cards.WhiteCard {
	sets := make([]playSet, 0, len(r.whiteCards))
	for playerID, played := range r.whiteCards {
		sets = append(sets, playSet{playerID: playerID, cards: played})
	}
	sort.Slice(sets, func(i, j int) bool {
		return string(orderHash(r.orderKey, sets[i].playerID)) < string(orderHash(r.orderKey, sets[j].playerID))
	})
	out := make([][]cards.WhiteCard, len(sets))
	for i, s := range sets {
		out[i] = s.cards
	}
	return out
}

func orderHash(orderKey [16]byte, playerID uuid.UUID) []byte {
	h := md5.New()
	h.Write(orderKey[:])
	h.Write(playerID[:])
	return h.Sum(nil)
}
