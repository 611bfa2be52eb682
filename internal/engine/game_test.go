package engine

import (
	"strconv"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/cards"
)

// fakeConn is a Connection that records every message sent to it instead
// of touching a real socket.
type fakeConn struct {
	sent    []any
	replace int
}

func (c *fakeConn) SendJSON(message any) error {
	c.sent = append(c.sent, message)
	return nil
}

func (c *fakeConn) Replaced() { c.replace++ }

func newTestServer() *Server {
	return NewServer(config.DefaultServerConfig(), nil, slog.Disabled)
}

func newTestPack(name string, blackPickCount int, whiteCount int) cards.CardPack {
	pack := cards.CardPack{Name: name}
	pack.BlackCards = append(pack.BlackCards, cards.BlackCard{
		Text: name + " black 1", PickCount: blackPickCount, DrawCount: 0, Pack: name,
	})
	for i := 0; i < whiteCount; i++ {
		text := name + " white card " + strconv.Itoa(i)
		pack.WhiteCards = append(pack.WhiteCards, cards.WhiteCard{
			SlotID: cards.NewBlankCard().SlotID, Text: &text, Pack: name,
		})
	}
	return pack
}

// seatPlayers creates n users directly connected to the server and joins
// them all to game, returning the players in join order.
func seatPlayers(t *testing.T, s *Server, g *Game, n int) []*Player {
	t.Helper()
	players := make([]*Player, 0, n)
	for i := 0; i < n; i++ {
		conn := &fakeConn{}
		u := NewUser("player", s, conn)
		require.NoError(t, s.AddUser(u))
		require.NoError(t, g.AddPlayer(u))
		players = append(players, u.Player())
	}
	return players
}

func testOptions(packs ...cards.CardPack) *GameOptions {
	o := DefaultGameOptions()
	o.CardPacks = packs
	o.PlayerLimit = 8
	o.PointLimit = 3
	o.IdleRounds = 2
	o.ThinkTime = config.MinThinkTime
	o.RoundEndTime = config.MinRoundEndTime
	o.BlankCards = 0
	return o
}

func TestAddPlayerRejectsSecondJoinByOneUser(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 1, 20)))
	players := seatPlayers(t, s, g, 1)
	err := g.AddPlayer(players[0].User)
	require.Error(t, err)
	var gameErr *InvalidGameState
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, CodeUserInGame, gameErr.Code)
}

func TestAddPlayerRejectsWhenFull(t *testing.T) {
	s := newTestServer()
	opts := testOptions(newTestPack("Base", 1, 20))
	opts.PlayerLimit = 3
	g := NewGame(s, opts)
	seatPlayers(t, s, g, 3)

	conn := &fakeConn{}
	u := NewUser("overflow", s, conn)
	require.NoError(t, s.AddUser(u))
	err := g.AddPlayer(u)
	require.Error(t, err)
	var gameErr *InvalidGameState
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, CodeGameFull, gameErr.Code)
}

func TestStartGameRequiresThreePlayers(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 1, 20)))
	seatPlayers(t, s, g, 2)
	err := g.StartGame()
	require.Error(t, err)
	var gameErr *InvalidGameState
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, CodeTooFewPlayers, gameErr.Code)
}

func TestStartGameDealsHandsAndEntersPlaying(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 1, 60)))
	players := seatPlayers(t, s, g, 3)
	require.NoError(t, g.StartGame())

	assert.Equal(t, StatePlaying, g.State())
	round := g.CurrentRound()
	require.NotNil(t, round)
	for _, p := range players {
		if p == round.CardCzar {
			assert.Len(t, p.Hand, config.HandSize)
		} else {
			assert.Len(t, p.Hand, config.HandSize+round.BlackCard.DrawCount)
		}
	}
}

func TestPlayWhiteCardsRejectsWrongCount(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 2, 60)))
	players := seatPlayers(t, s, g, 3)
	require.NoError(t, g.StartGame())

	round := g.CurrentRound()
	var nonCzar *Player
	for _, p := range players {
		if p != round.CardCzar {
			nonCzar = p
			break
		}
	}
	err := g.PlayWhiteCards(round.ID, nonCzar, []PlayedCard{{SlotID: nonCzar.Hand[0].SlotID}})
	require.Error(t, err)
	var gameErr *InvalidGameState
	require.ErrorAs(t, err, &gameErr)
	assert.Equal(t, CodeInvalidWhiteCards, gameErr.Code)
}

func TestPlayWhiteCardsThenChooseWinnerAwardsPoint(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 1, 60)))
	players := seatPlayers(t, s, g, 3)
	require.NoError(t, g.StartGame())

	round := g.CurrentRound()
	var nonCzars []*Player
	for _, p := range players {
		if p != round.CardCzar {
			nonCzars = append(nonCzars, p)
		}
	}
	for _, p := range nonCzars {
		err := g.PlayWhiteCards(round.ID, p, []PlayedCard{{SlotID: p.Hand[0].SlotID}})
		require.NoError(t, err)
	}
	assert.Equal(t, StateJudging, g.State())

	winningCard := round.whiteCards[nonCzars[0].ID()][0]
	require.NoError(t, g.ChooseWinner(round.ID, winningCard.SlotID))
	assert.Equal(t, 1, nonCzars[0].Score)
	assert.Equal(t, StateRoundEnded, g.State())
}

func TestChooseWinnerAtPointLimitEndsGame(t *testing.T) {
	s := newTestServer()
	opts := testOptions(newTestPack("Base", 1, 60))
	opts.PointLimit = 1
	g := NewGame(s, opts)
	players := seatPlayers(t, s, g, 3)
	require.NoError(t, g.StartGame())

	round := g.CurrentRound()
	var nonCzars []*Player
	for _, p := range players {
		if p != round.CardCzar {
			nonCzars = append(nonCzars, p)
		}
	}
	for _, p := range nonCzars {
		require.NoError(t, g.PlayWhiteCards(round.ID, p, []PlayedCard{{SlotID: p.Hand[0].SlotID}}))
	}
	winningCard := round.whiteCards[nonCzars[0].ID()][0]
	require.NoError(t, g.ChooseWinner(round.ID, winningCard.SlotID))
	assert.Equal(t, StateGameEnded, g.State())
}

func TestRemovePlayerEndsGameWhenTwoRemain(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 1, 60)))
	players := seatPlayers(t, s, g, 3)
	require.NoError(t, g.StartGame())

	require.NoError(t, g.RemovePlayer(players[0], LeaveReasonLeave))
	assert.Equal(t, StateNotStarted, g.State())
	assert.Equal(t, 2, g.PlayerCount())
}

func TestRemovePlayerCancelsRoundWhenCardCzarLeaves(t *testing.T) {
	s := newTestServer()
	g := NewGame(s, testOptions(newTestPack("Base", 1, 80)))
	players := seatPlayers(t, s, g, 4)
	require.NoError(t, g.StartGame())

	round := g.CurrentRound()
	czar := round.CardCzar
	require.NoError(t, g.RemovePlayer(czar, LeaveReasonLeave))
	assert.Equal(t, StateRoundEnded, g.State())
	for _, p := range players {
		if p != czar {
			assert.NotEmpty(t, p.Hand)
		}
	}
}
