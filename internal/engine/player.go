package engine

import (
	"github.com/google/uuid"

	"github.com/cahserver/server/internal/cards"
)

// UpdateKind identifies one facet of a player's view of the game that the
// server may owe them a refresh of.
type UpdateKind int

const (
	UpdateGame UpdateKind = iota
	UpdatePlayers
	UpdateHand
	UpdateOptions
)

var allUpdateKinds = []UpdateKind{UpdateGame, UpdatePlayers, UpdateHand, UpdateOptions}

// Player is a User's seat at one particular Game.
type Player struct {
	User *User

	Hand      []cards.WhiteCard
	Score     int
	IdleRounds int

	pendingUpdates map[UpdateKind]bool
	pendingEvents  []map[string]any
}

// NewPlayer seats user at a fresh, empty hand.
func NewPlayer(user *User) *Player {
	return &Player{User: user, pendingUpdates: make(map[UpdateKind]bool)}
}

// ID is the player's identity, delegated to its underlying user: a player
// is only ever looked up by the user occupying the seat.
func (p *Player) ID() uuid.UUID { return p.User.ID }

// PlayCard removes card from the player's hand by slot id, failing if the
// player is not actually holding it.
func (p *Player) PlayCard(card cards.WhiteCard) error {
	for i, held := range p.Hand {
		if held.SlotID == card.SlotID {
			p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
			return nil
		}
	}
	return NewInvalidGameState(CodeCardNotInHand, "you do not have the card")
}

func (p *Player) queueUpdate(kind UpdateKind) {
	p.pendingUpdates[kind] = true
}

func (p *Player) queueEvent(event map[string]any) {
	p.pendingEvents = append(p.pendingEvents, event)
}

func (p *Player) hasPendingUpdate(kind UpdateKind) bool {
	return p.pendingUpdates[kind]
}

func (p *Player) clearPending() {
	p.pendingUpdates = make(map[UpdateKind]bool)
	p.pendingEvents = nil
}
