package engine

import (
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/cards"
	"github.com/cahserver/server/internal/collection"
	"github.com/cahserver/server/internal/timer"
)

// State is one of the five states a Game cycles through.
type State int

const (
	StateNotStarted State = iota
	StatePlaying
	StateJudging
	StateRoundEnded
	StateGameEnded
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StatePlaying:
		return "playing"
	case StateJudging:
		return "judging"
	case StateRoundEnded:
		return "round_ended"
	case StateGameEnded:
		return "game_ended"
	default:
		return "unknown"
	}
}

// Game is one table: its players, its options, its decks and its round
// history. All mutation happens on the owning Server's single loop
// goroutine, so Game itself holds no locks.
type Game struct {
	Code    string
	Options *GameOptions

	server  *Server
	rounds  []*Round
	players *collection.List[*Player]
	state   State

	blackDeck *cards.Deck[cards.BlackCard]
	whiteDeck *cards.Deck[cards.WhiteCard]

	roundTimer     *timer.CallbackTimer
	flushScheduled bool
}

// NewGame creates a game owned by server with a fresh code and the given
// (already-validated) options.
func NewGame(server *Server, options *GameOptions) *Game {
	g := &Game{
		Code:    server.GenerateGameCode(),
		Options: options,
		server:  server,
		players: collection.New[*Player](collection.IndexDef[*Player]{
			Name: "id",
			Key:  func(p *Player) (any, bool) { return p.ID(), true },
		}),
	}
	g.roundTimer = timer.New(server)
	g.buildDecks()
	return g
}

func (g *Game) buildDecks() {
	g.blackDeck = cards.BuildBlack(g.Options.CardPacks)
	g.whiteDeck = cards.BuildWhite(g.Options.CardPacks, g.Options.BlankCards)
}

// GameRunning reports whether a round is currently in progress.
func (g *Game) GameRunning() bool {
	return g.state != StateNotStarted && g.state != StateGameEnded
}

// State returns the game's current state.
func (g *Game) State() State { return g.state }

// CurrentRound returns the round in progress, or nil if none is.
func (g *Game) CurrentRound() *Round {
	if !g.GameRunning() || len(g.rounds) == 0 {
		return nil
	}
	return g.rounds[len(g.rounds)-1]
}

// CardCzar returns the current round's card czar, or nil if no round is
// running.
func (g *Game) CardCzar() *Player {
	if round := g.CurrentRound(); round != nil {
		return round.CardCzar
	}
	return nil
}

// Host returns the player who has been seated longest.
func (g *Game) Host() *Player {
	if g.players.Len() == 0 {
		return nil
	}
	return g.players.At(0)
}

// Players returns every seated player, in join order.
func (g *Game) Players() []*Player {
	return g.players.All()
}

// PlayerCount returns the number of seated players.
func (g *Game) PlayerCount() int {
	return g.players.Len()
}

// FindPlayer looks up the player seated for the given user id.
func (g *Game) FindPlayer(userID uuid.UUID) (*Player, bool) {
	return g.players.FindBy("id", userID)
}

// AddPlayer seats user at a new Player, rejecting the join if the user is
// already seated elsewhere, the table is full, or (mid-game) there are not
// enough white cards to support another hand.
func (g *Game) AddPlayer(user *User) error {
	if user.Game() != nil {
		return NewInvalidGameState(CodeUserInGame, "user already in game")
	}
	if g.players.Len() >= g.Options.PlayerLimit {
		return NewInvalidGameState(CodeGameFull, "the game is full")
	}
	if g.GameRunning() {
		totalAvailable := g.whiteDeck.TotalCards()
		for _, p := range g.players.All() {
			totalAvailable += len(p.Hand)
		}
		if totalAvailable < (config.HandSize+2)*(g.players.Len()+1) {
			return NewInvalidGameState(CodeTooFewWhiteCards, "too few white cards in the game for any more players")
		}
	}

	player := NewPlayer(user)
	if err := g.players.Append(player); err != nil {
		return err
	}
	if err := user.AddedToGame(g, player); err != nil {
		g.players.Remove(player)
		return err
	}

	g.sendEvent(map[string]any{"type": "player_join", "player": user.Name}, nil)
	g.sendUpdatesFullResync(player)
	g.sendUpdates(nil, UpdatePlayers)
	return nil
}

// RemovePlayer removes player from the table, handling every downstream
// consequence: ending the game if too few players remain, cancelling the
// round if the card czar left, and discarding the player's cards.
func (g *Game) RemovePlayer(player *Player, reason LeaveReason) error {
	if !g.players.Contains(player) {
		return NewInvalidGameState(CodeUserNotInGame, "user not in game")
	}
	g.sendEvent(map[string]any{
		"type":   "player_leave",
		"player": player.User.Name,
		"reason": reason.String(),
	}, nil)

	player.User.RemovedFromGame()
	g.players.Remove(player)
	g.flushPendingFor(player)

	if g.players.Len() == 0 {
		g.server.RemoveGame(g)
		return nil
	}
	if g.players.Len() <= 2 {
		g.sendEvent(map[string]any{"type": "too_few_players"}, nil)
		g.StopGame()
		return nil
	}

	round := g.CurrentRound()
	if round != nil && player == round.CardCzar {
		g.sendEvent(map[string]any{"type": "card_czar_leave"}, nil)
		g.cancelRound()
	}

	g.whiteDeck.DiscardAll(player.Hand)
	if (g.state == StatePlaying || g.state == StateJudging) && round != nil {
		if played, ok := round.TakeBack(player.ID()); ok {
			g.whiteDeck.DiscardAll(played)
			g.sendUpdates(nil, UpdateGame)
		}
	}
	if g.state == StatePlaying {
		g.checkAllPlayed()
	}
	g.sendUpdates(nil, UpdatePlayers)
	return nil
}

// setState transitions to state, (re)arming the round timer appropriately,
// and queues a game update for every player.
func (g *Game) setState(state State) {
	g.state = state
	switch state {
	case StateNotStarted, StateGameEnded:
		g.roundTimer.Cancel()
	case StatePlaying:
		g.roundTimer.Start(secondsToDuration(g.Options.ThinkTime), g.playIdleTimer)
	case StateJudging:
		g.roundTimer.Start(secondsToDuration(g.Options.ThinkTime), g.judgeIdleTimer)
	case StateRoundEnded:
		g.roundTimer.Start(secondsToDuration(g.Options.RoundEndTime), g.roundEndTimer)
	}
	g.sendUpdates(nil, UpdateGame)
}

// StartGame begins play, resetting first if a previous game on this table
// already finished. The decks are rebuilt from the current options' card
// packs before the card-count checks.
func (g *Game) StartGame() error {
	if g.state == StateGameEnded {
		g.StopGame()
	}
	if g.state != StateNotStarted {
		return NewInvalidGameState(CodeGameAlreadyStarted, "game is already ongoing")
	}
	g.buildDecks()
	if g.players.Len() < 3 {
		return NewInvalidGameState(CodeTooFewPlayers, "too few players")
	}
	if g.blackDeck.TotalCards() == 0 {
		return NewInvalidGameState(CodeTooFewBlackCards, "no black cards in selected packs")
	}
	if g.whiteDeck.TotalCards() < (config.HandSize+2)*g.players.Len() {
		return NewInvalidGameState(CodeTooFewWhiteCards, "too few white cards in selected packs for this many players")
	}
	g.startNextRound()
	return nil
}

// StopGame resets the table to its pre-game state: empty hands, zeroed
// scores, cleared round history, freshly built decks.
func (g *Game) StopGame() {
	g.setState(StateNotStarted)
	for _, p := range g.players.All() {
		p.Hand = nil
		p.Score = 0
		p.IdleRounds = 0
	}
	g.rounds = nil
	g.buildDecks()
	g.sendUpdates(nil, UpdateGame, UpdateHand, UpdatePlayers)
}

func (g *Game) startNextRound() {
	players := g.players.All()
	var czar *Player
	for i := len(g.rounds) - 1; i >= 0; i-- {
		prev := g.rounds[i].CardCzar
		if pos := indexOfPlayer(players, prev); pos >= 0 {
			czar = players[(pos+1)%len(players)]
			break
		}
	}
	if czar == nil {
		czar = players[rand.IntN(len(players))]
	}

	blackCard, err := g.blackDeck.DrawDiscard()
	if err != nil {
		// an empty black deck here means StartGame's precondition was
		// violated by a desync; surface it rather than panic downstream.
		return
	}
	round := NewRound(czar, blackCard)
	g.rounds = append(g.rounds, round)

	for _, p := range players {
		target := config.HandSize
		if p != czar {
			target += blackCard.DrawCount
		}
		for len(p.Hand) < target {
			card, err := g.whiteDeck.Draw()
			if err != nil {
				break
			}
			p.Hand = append(p.Hand, card)
		}
	}

	g.setState(StatePlaying)
	g.sendUpdates(nil, UpdateGame, UpdateHand, UpdatePlayers)
}

func indexOfPlayer(players []*Player, target *Player) int {
	for i, p := range players {
		if p == target {
			return i
		}
	}
	return -1
}

func (g *Game) playIdleTimer() {
	if g.state != StatePlaying {
		return
	}
	round := g.CurrentRound()
	var toKick []*Player
	for _, p := range g.players.All() {
		if !round.NeedsToPlay(p) {
			continue
		}
		p.IdleRounds++
		if p.IdleRounds >= g.Options.IdleRounds {
			toKick = append(toKick, p)
		}
	}
	for _, p := range toKick {
		_ = g.RemovePlayer(p, LeaveReasonIdle)
	}
	if round := g.CurrentRound(); round != nil && round.PlayedCount() < 2 {
		g.sendEvent(map[string]any{"type": "too_few_cards_played"}, nil)
		g.cancelRound()
	} else if g.state == StatePlaying {
		g.setState(StateJudging)
	}
}

// PlayedCard is one (slotID, writtenText) pair from a play_white_cards
// request; writtenText is nil unless the slot is a blank.
type PlayedCard struct {
	SlotID uuid.UUID
	Text   *string
}

// PlayWhiteCards submits player's chosen cards for the current round.
func (g *Game) PlayWhiteCards(roundID uuid.UUID, player *Player, chosen []PlayedCard) error {
	if g.state != StatePlaying {
		return NewInvalidGameState(CodeInvalidRoundState, "white cards are not being played for the round")
	}
	round := g.CurrentRound()
	if round == nil || roundID != round.ID {
		return NewInvalidGameState(CodeWrongRound, "the round is not being played")
	}
	if !round.NeedsToPlay(player) {
		return NewInvalidGameState(CodeAlreadyPlayed, "you already played white cards for the round")
	}
	seen := make(map[uuid.UUID]bool, len(chosen))
	for _, c := range chosen {
		if seen[c.SlotID] {
			return NewInvalidGameState(CodeInvalidWhiteCards, "duplicate cards chosen")
		}
		seen[c.SlotID] = true
	}
	if len(chosen) != round.BlackCard.PickCount {
		return NewInvalidGameState(CodeInvalidWhiteCards, "wrong number of cards chosen")
	}

	played := make([]cards.WhiteCard, 0, len(chosen))
	for _, c := range chosen {
		card, ok := findInHand(player.Hand, c.SlotID)
		if !ok {
			return NewInvalidGameState(CodeCardNotInHand, "you do not have the chosen cards")
		}
		if c.Text != nil {
			written, err := card.WriteBlank(*c.Text)
			if err != nil {
				return NewInvalidGameState(CodeInvalidWhiteCards, err.Error())
			}
			card = written
		}
		played = append(played, card)
	}
	for _, card := range played {
		if err := player.PlayCard(card); err != nil {
			return err
		}
	}
	round.RecordPlay(player, played)
	player.IdleRounds = 0

	g.checkAllPlayed()
	g.sendUpdates(nil, UpdatePlayers)
	g.sendUpdates(player, UpdateHand, UpdateGame)
	return nil
}

func findInHand(hand []cards.WhiteCard, slotID uuid.UUID) (cards.WhiteCard, bool) {
	for _, c := range hand {
		if c.SlotID == slotID {
			return c, true
		}
	}
	return cards.WhiteCard{}, false
}

func (g *Game) checkAllPlayed() {
	if g.state != StatePlaying {
		return
	}
	round := g.CurrentRound()
	for _, p := range g.players.All() {
		if round.NeedsToPlay(p) {
			return
		}
	}
	g.setState(StateJudging)
}

func (g *Game) judgeIdleTimer() {
	if g.state != StateJudging {
		return
	}
	g.cancelRound()
	czar := g.CardCzar()
	if czar == nil {
		return
	}
	czar.IdleRounds++
	if czar.IdleRounds >= g.Options.IdleRounds {
		_ = g.RemovePlayer(czar, LeaveReasonIdle)
	}
}

// ChooseWinner records the card czar's pick and either ends the game (if
// the point limit was reached) or moves to the round-ended state.
func (g *Game) ChooseWinner(roundID uuid.UUID, winningCard uuid.UUID) error {
	if g.state != StateJudging {
		return NewInvalidGameState(CodeInvalidRoundState, "the winner is not being chosen for the round")
	}
	round := g.CurrentRound()
	if round == nil || roundID != round.ID {
		return NewInvalidGameState(CodeWrongRound, "the round is not being played")
	}
	winnerID, ok := round.WinningPlayerID(winningCard)
	if !ok {
		return NewInvalidGameState(CodeInvalidWinner, "no such card played")
	}
	winner, ok := g.FindPlayer(winnerID)
	if !ok {
		return NewInvalidGameState(CodeInvalidWinner, "no such card played")
	}

	if czar := g.CardCzar(); czar != nil {
		czar.IdleRounds = 0
	}
	round.Winner = winner
	winner.Score++
	if winner.Score == g.Options.PointLimit {
		g.setState(StateGameEnded)
	} else {
		g.setState(StateRoundEnded)
	}
	g.sendUpdates(nil, UpdateGame, UpdatePlayers)
	return nil
}

func (g *Game) roundEndTimer() {
	if g.state != StateRoundEnded {
		return
	}
	round := g.CurrentRound()
	if round != nil {
		for _, played := range round.whiteCards {
			g.whiteDeck.DiscardAll(played)
		}
	}
	g.startNextRound()
}

func (g *Game) cancelRound() {
	round := g.CurrentRound()
	if round == nil {
		return
	}
	for _, p := range g.players.All() {
		if played, ok := round.TakeBack(p.ID()); ok {
			p.Hand = append(p.Hand, played...)
		}
	}
	g.setState(StateRoundEnded)
	g.sendUpdates(nil, UpdateGame, UpdateHand)
}

func (g *Game) resolveSendTo(to *Player) []*Player {
	if to != nil {
		return []*Player{to}
	}
	return g.players.All()
}

// sendUpdates queues the given update kinds for to (or every player if to
// is nil), then schedules a single coalesced flush.
func (g *Game) sendUpdates(to *Player, kinds ...UpdateKind) {
	for _, p := range g.resolveSendTo(to) {
		for _, k := range kinds {
			p.queueUpdate(k)
		}
	}
	g.schedulePendingFlush()
}

func (g *Game) sendUpdatesFullResync(to *Player) {
	g.sendUpdates(to, allUpdateKinds...)
}

// SendFullResyncTo queues every update kind for to, used after a
// reconnect hands a user back its seat so it can rebuild full client
// state from scratch. Nil to is a no-op, since a spectating reconnect
// without a seat has nothing to resync.
func (g *Game) SendFullResyncTo(to *Player) {
	if to == nil {
		return
	}
	g.sendUpdatesFullResync(to)
}

// NotifyOptionsChanged queues an options update for every seated player,
// used after the host patches game options.
func (g *Game) NotifyOptionsChanged() {
	g.sendUpdates(nil, UpdateOptions)
}

// SendChatEvent broadcasts a chat message from name to every seated
// player.
func (g *Game) SendChatEvent(name, text string) {
	g.sendEvent(map[string]any{"type": "chat", "player": name, "text": text}, nil)
}

// sendEvent queues a one-shot event (chat message, player_join, etc.) for
// to (or every player if to is nil).
func (g *Game) sendEvent(event map[string]any, to *Player) {
	for _, p := range g.resolveSendTo(to) {
		p.queueEvent(event)
	}
	g.schedulePendingFlush()
}

// schedulePendingFlush defers flushPending to run once, after the current
// synchronous chain of engine calls finishes, coalescing every update and
// event queued along the way into a single message per player.
func (g *Game) schedulePendingFlush() {
	if g.flushScheduled {
		return
	}
	g.flushScheduled = true
	g.server.Defer(func() {
		g.flushScheduled = false
		g.flushPending()
	})
}

// flushPending sends every player their queued updates/events as one
// message, then clears the queue.
func (g *Game) flushPending() {
	for _, p := range g.players.All() {
		g.sendPlayerMessage(p)
	}
}

// flushPendingFor is used when a player has just left: they still need
// their final queued updates even though they're no longer in g.players.
func (g *Game) flushPendingFor(p *Player) {
	g.sendPlayerMessage(p)
}

func (g *Game) sendPlayerMessage(p *Player) {
	toSend := make(map[string]any)
	if !g.players.Contains(p) {
		toSend["game"] = nil
	} else {
		if p.hasPendingUpdate(UpdateHand) {
			handJSON := make([]cards.WhiteCardJSON, len(p.Hand))
			for i, c := range p.Hand {
				handJSON[i] = c.ToJSON()
			}
			toSend["hand"] = handJSON
		}
		if p.hasPendingUpdate(UpdateGame) {
			toSend["game"] = g.gameStateJSON(p)
		}
		if p.hasPendingUpdate(UpdatePlayers) {
			toSend["players"] = g.playersJSON()
		}
		if p.hasPendingUpdate(UpdateOptions) {
			toSend["options"] = g.Options.ToJSON()
		}
	}
	if len(p.pendingEvents) > 0 {
		events := make([]map[string]any, len(p.pendingEvents))
		copy(events, p.pendingEvents)
		toSend["events"] = events
	}
	p.clearPending()
	if len(toSend) > 0 {
		p.User.SendMessage(toSend)
	}
}

func (g *Game) gameStateJSON(p *Player) map[string]any {
	round := g.CurrentRound()
	if round == nil {
		return map[string]any{
			"code":          g.Code,
			"state":         g.state.String(),
			"current_round": nil,
		}
	}
	var whiteCards any
	switch {
	case g.state == StateJudging || g.state == StateRoundEnded:
		plays := round.RandomizedPlays()
		out := make([][]cards.WhiteCardJSON, len(plays))
		for i, set := range plays {
			cardsJSON := make([]cards.WhiteCardJSON, len(set))
			for j, c := range set {
				cardsJSON[j] = c.ToJSON()
			}
			out[i] = cardsJSON
		}
		whiteCards = out
	case g.state == StatePlaying:
		if played, ok := round.PlayedBy(p); ok {
			cardsJSON := make([]cards.WhiteCardJSON, len(played))
			for i, c := range played {
				cardsJSON[i] = c.ToJSON()
			}
			whiteCards = cardsJSON
		}
	}
	var winner any
	if round.Winner != nil {
		winner = round.Winner.ID().String()
	}
	return map[string]any{
		"code":  g.Code,
		"state": g.state.String(),
		"current_round": map[string]any{
			"id":         round.ID.String(),
			"black_card": round.BlackCard.ToJSON(),
			"white_cards": whiteCards,
			"card_czar":   round.CardCzar.ID().String(),
			"winner":      winner,
		},
	}
}

func (g *Game) playersJSON() []map[string]any {
	round := g.CurrentRound()
	players := g.players.All()
	out := make([]map[string]any, len(players))
	for i, p := range players {
		playing := false
		if g.state == StatePlaying && round != nil {
			playing = round.NeedsToPlay(p)
		}
		out[i] = map[string]any{
			"id":      p.ID().String(),
			"name":    p.User.Name,
			"score":   p.Score,
			"playing": playing,
		}
	}
	return out
}

// ListingJSON is the summary shown in the public game list.
type ListingJSON struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Players     int    `json:"players"`
	PlayerLimit int    `json:"player_limit"`
	Passworded  bool   `json:"passworded"`
}

// Listing returns the public game-list summary for this table.
func (g *Game) Listing() ListingJSON {
	return ListingJSON{
		Code:        g.Code,
		Title:       g.Options.GameTitle,
		Players:     g.players.Len(),
		PlayerLimit: g.Options.PlayerLimit,
		Passworded:  g.Options.Password != "",
	}
}
