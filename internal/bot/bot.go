// Package bot implements an in-process random-play client used for soak
// testing the server end to end over its real request/response and push
// protocol, grounded on pyxyzzy/test/bot.py's RandomPlayBot and
// DirectBotConnection: a bot drives a connection against the engine
// directly (no socket), mirroring what run_bots does for debug traffic.
package bot

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/network"
	"github.com/cahserver/server/internal/transport"
)

type whiteCardRef struct {
	ID   string  `json:"id"`
	Text *string `json:"text"`
}

// Bot is one simulated player. It authenticates, finds or creates a public
// game, starts it once enough players have joined, and plays random cards
// each round until the game ends.
type Bot struct {
	Name string

	// CardPackIDs is included when this bot creates a new game, mirroring
	// a host choosing packs before advertising it publicly. Ignored when
	// the bot ends up joining an existing game instead.
	CardPackIDs []string

	server   *engine.Server
	router   *transport.Router
	conn     *transport.Conn
	nextCall int

	ID          string
	isHost      bool
	gameState   string
	gameCode    string
	playerLimit int
	players     int

	roundID    string
	cardCzarID string
	pickCount  int
	whiteCards [][]whiteCardRef
	hand       []whiteCardRef

	rng *rand.Rand
	Log []string
}

// New creates a bot attached directly to server via router, with no
// underlying socket.
func New(name string, server *engine.Server, router *transport.Router, seed int64) *Bot {
	return &Bot{
		Name:      name,
		server:    server,
		router:    router,
		conn:      transport.NewConn(nil, server, router),
		gameState: "not_in_game",
		rng:       rand.New(rand.NewSource(seed)),
	}
}

func (b *Bot) call(action string, configure func(*network.Request)) (network.Response, error) {
	b.nextCall++
	req := &network.Request{Action: action, CallID: strconv.Itoa(b.nextCall)}
	if configure != nil {
		configure(req)
	}
	resp := b.router.Dispatch(b.conn, req)
	b.server.FlushDeferred()
	b.drainPending()
	if resp.Error != "" {
		return resp, fmt.Errorf("%s: %s", resp.Error, resp.Description)
	}
	return resp, nil
}

// Authenticate registers the bot under a fresh random name, retrying on a
// name collision exactly like perform_authentication's login branch.
func (b *Bot) Authenticate() error {
	for {
		name := fmt.Sprintf("%s%d", b.Name, b.rng.Intn(900000)+100000)
		resp, err := b.call(network.ActionAuthenticate, func(r *network.Request) { r.Name = name })
		if err != nil {
			if resp.Error == engine.CodeNameInUse {
				continue
			}
			return err
		}
		result := resp.Result.(map[string]any)
		b.ID = result["id"].(string)
		return nil
	}
}

// JoinOrCreateGame joins the first public game with room, or creates and
// advertises a new one if none has space, mirroring join_or_create_game.
func (b *Bot) JoinOrCreateGame() error {
	listResp, err := b.call(network.ActionListGames, nil)
	if err != nil {
		return err
	}
	if listed, ok := listResp.Result.(map[string]any); ok {
		listings, _ := listed["games"].([]engine.ListingJSON)
		for _, g := range listings {
			if g.Passworded || g.Players >= g.PlayerLimit {
				continue
			}
			if _, err := b.call(network.ActionJoinGame, func(r *network.Request) { r.Code = g.Code }); err != nil {
				continue
			}
			b.isHost = false
			return nil
		}
	}

	if _, err := b.call(network.ActionCreateGame, nil); err != nil {
		return err
	}
	public := true
	if _, err := b.call(network.ActionGameOptions, func(r *network.Request) {
		r.Options = &network.OptionsPatch{Public: &public, CardPacks: b.CardPackIDs}
	}); err != nil {
		return err
	}
	b.isHost = true
	return nil
}

// drainPending folds every push message already queued for this bot's
// connection into its view of game/hand/players/options, mirroring
// handle_update/handle_event. Calls never block: every queued message was
// put there synchronously by the engine call that just returned.
func (b *Bot) drainPending() {
	for {
		data, ok := b.conn.TryRecv()
		if !ok {
			return
		}
		b.applyPush(data)
	}
}

func (b *Bot) applyPush(data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if events, ok := msg["events"].([]any); ok {
		for _, e := range events {
			if event, ok := e.(map[string]any); ok {
				b.Log = append(b.Log, fmt.Sprintf("%v", event["type"]))
			}
		}
	}

	if game, present := msg["game"]; present {
		if game == nil {
			b.gameState = "not_in_game"
			b.roundID, b.cardCzarID = "", ""
		} else if gameMap, ok := game.(map[string]any); ok {
			b.gameState, _ = gameMap["state"].(string)
			b.gameCode, _ = gameMap["code"].(string)
			b.applyRound(gameMap["current_round"])
		}
	}
	if players, ok := msg["players"].([]any); ok {
		b.players = len(players)
	}
	if options, ok := msg["options"].(map[string]any); ok {
		if pl, ok := options["player_limit"].(float64); ok {
			b.playerLimit = int(pl)
		}
	}
	if hand, ok := msg["hand"].([]any); ok {
		b.hand = decodeCardRefs(hand)
	}
}

func (b *Bot) applyRound(raw any) {
	round, ok := raw.(map[string]any)
	if !ok || round == nil {
		b.roundID, b.cardCzarID = "", ""
		b.whiteCards = nil
		return
	}
	b.roundID, _ = round["id"].(string)
	b.cardCzarID, _ = round["card_czar"].(string)
	if blackCard, ok := round["black_card"].(map[string]any); ok {
		if pc, ok := blackCard["pick_count"].(float64); ok {
			b.pickCount = int(pc)
		}
	}
	switch wc := round["white_cards"].(type) {
	case []any:
		// During judging/round_ended this is a list of played sets; during
		// play it is this player's own flat list of cards, if any.
		if len(wc) > 0 {
			if _, nested := wc[0].([]any); nested {
				sets := make([][]whiteCardRef, len(wc))
				for i, set := range wc {
					sets[i] = decodeCardRefs(set.([]any))
				}
				b.whiteCards = sets
				return
			}
		}
		b.whiteCards = nil
	default:
		b.whiteCards = nil
	}
}

func decodeCardRefs(raw []any) []whiteCardRef {
	out := make([]whiteCardRef, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ref := whiteCardRef{}
		ref.ID, _ = m["id"].(string)
		if text, ok := m["text"].(string); ok {
			ref.Text = &text
		}
		out = append(out, ref)
	}
	return out
}

// Poll drains any push messages already queued for this bot, without
// making a new call — used to pick up state changes caused by other
// players' actions between this bot's own turns.
func (b *Bot) Poll() {
	b.drainPending()
}

// ShouldStartGame reports whether this host-seated bot should start play.
func (b *Bot) ShouldStartGame() bool {
	return b.isHost && b.gameState == "not_started" && b.players >= 3
}

// StartGame starts the seated game.
func (b *Bot) StartGame() error {
	_, err := b.call(network.ActionStartGame, nil)
	return err
}

// NeedsToPlayWhite reports whether the game is in play, the bot is not the
// card czar and its hand holds at least pick-count cards. It does not track
// whether the bot already played this round.
func (b *Bot) NeedsToPlayWhite() bool {
	return b.gameState == "playing" && !b.IsCardCzar() && len(b.hand) >= b.pickCount
}

// PlayWhite submits a random legal selection of cards from hand for the
// round in progress, mirroring play_white's random.sample.
func (b *Bot) PlayWhite() error {
	if len(b.hand) < b.pickCount {
		return fmt.Errorf("bot: hand too small to satisfy pick count")
	}
	shuffled := append([]whiteCardRef(nil), b.hand...)
	b.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	chosen := shuffled[:b.pickCount]

	cards := make([]network.PlayedCardInput, len(chosen))
	for i, c := range chosen {
		// Only an unwritten blank (no text in hand) may be sent with text.
		var text *string
		if c.Text == nil {
			filler := b.Name + " blank answer"
			text = &filler
		}
		cards[i] = network.PlayedCardInput{ID: c.ID, Text: text}
	}
	_, err := b.call(network.ActionPlayWhite, func(r *network.Request) { r.Cards = cards })
	return err
}

// NeedsToJudge reports whether the bot is the card czar with sets to judge.
func (b *Bot) NeedsToJudge() bool {
	return b.gameState == "judging" && b.IsCardCzar() && len(b.whiteCards) > 0
}

// PlayCzar picks a random submitted set as the round's winner, mirroring
// play_czar's random.choice.
func (b *Bot) PlayCzar() error {
	if len(b.whiteCards) == 0 {
		return fmt.Errorf("bot: nothing to judge")
	}
	winner := b.whiteCards[b.rng.Intn(len(b.whiteCards))][0]
	_, err := b.call(network.ActionChooseWinner, func(r *network.Request) { r.Winner = winner.ID })
	return err
}

// IsCardCzar reports whether this bot is the current round's card czar.
func (b *Bot) IsCardCzar() bool { return b.ID != "" && b.ID == b.cardCzarID }

// GameState returns the bot's last observed game state string.
func (b *Bot) GameState() string { return b.gameState }

// GameEnded reports whether the bot's game has reached game_ended.
func (b *Bot) GameEnded() bool { return b.gameState == "game_ended" }
