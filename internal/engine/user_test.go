package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahserver/server/internal/cards"
)

func TestReconnectedReplacesAndCancelsTimers(t *testing.T) {
	s := newTestServer()
	first := &fakeConn{}
	u := NewUser("alice", s, first)

	u.Disconnected(first)
	assert.False(t, u.Connected())

	second := &fakeConn{}
	u.Reconnected(second)
	assert.True(t, u.Connected())
	// first was already dropped by Disconnected, so it is not notified.
	assert.Equal(t, 0, first.replace)
	assert.False(t, u.disconnectKickTimer.IsRunning())
	assert.False(t, u.disconnectRemoveTimer.IsRunning())
}

func TestDisconnectedByStaleConnectionIsNoop(t *testing.T) {
	s := newTestServer()
	first := &fakeConn{}
	u := NewUser("alice", s, first)
	second := &fakeConn{}
	u.Reconnected(second)

	u.Disconnected(first) // first is no longer u.connection
	assert.True(t, u.Connected())
}

func TestAddedToGameFailsWithoutConnection(t *testing.T) {
	s := newTestServer()
	u := NewUser("alice", s, &fakeConn{})
	u.Disconnected(u.connection)

	g := NewGame(s, testOptions())
	addErr := u.AddedToGame(g, NewPlayer(u))
	require.Error(t, addErr)
	var gameErr *InvalidGameState
	require.ErrorAs(t, addErr, &gameErr)
	assert.Equal(t, CodeUserNotConnected, gameErr.Code)
}

func TestSendMessageDropsWhenDisconnected(t *testing.T) {
	s := newTestServer()
	conn := &fakeConn{}
	u := NewUser("alice", s, conn)
	u.Disconnected(conn)
	u.SendMessage(map[string]any{"hello": "world"})
	assert.Empty(t, conn.sent)
}

func TestSendMessageDeliversWhenConnected(t *testing.T) {
	s := newTestServer()
	conn := &fakeConn{}
	u := NewUser("alice", s, conn)
	u.SendMessage(map[string]any{"hello": "world"})
	require.Len(t, conn.sent, 1)
}

func TestWriteBlankViaPlayerHandRoundTrip(t *testing.T) {
	// sanity check that cards package types used by user/player plumbing
	// behave as player.go expects: a blank keeps its slot id when written.
	blank := cards.NewBlankCard()
	written, err := blank.WriteBlank("zany answer")
	require.NoError(t, err)
	assert.Equal(t, blank.SlotID, written.SlotID)
}
