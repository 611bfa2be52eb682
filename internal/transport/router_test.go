package transport

import (
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/network"
)

func newTestConn(t *testing.T, srv *engine.Server, router *Router) *Conn {
	t.Helper()
	return NewConn(nil, srv, router)
}

func newTestServer(t *testing.T) *engine.Server {
	t.Helper()
	return engine.NewServer(config.DefaultServerConfig(), nil, slog.Disabled)
}

func authenticate(t *testing.T, c *Conn, router *Router, name string) *network.Response {
	t.Helper()
	req := &network.Request{Action: network.ActionAuthenticate, CallID: "1", Name: name}
	resp := router.Dispatch(c, req)
	require.Empty(t, resp.Error)
	return &resp
}

func TestDispatchRequiresAuthenticateFirst(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)
	c := newTestConn(t, srv, router)

	resp := router.Dispatch(c, &network.Request{Action: network.ActionCreateGame, CallID: "1"})
	assert.Equal(t, network.ErrorCodeNotAuthenticated, resp.Error)
}

func TestDispatchRejectsUnknownAction(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)
	c := newTestConn(t, srv, router)
	authenticate(t, c, router, "Alice")

	resp := router.Dispatch(c, &network.Request{Action: "not_a_real_action", CallID: "2"})
	assert.Equal(t, network.ErrorCodeInvalidAction, resp.Error)
}

func TestAuthenticateThenCreateAndJoinGame(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)

	host := newTestConn(t, srv, router)
	hostResp := authenticate(t, host, router, "Host")
	require.NotEmpty(t, hostResp.Result)

	createResp := router.Dispatch(host, &network.Request{Action: network.ActionCreateGame, CallID: "2"})
	require.Empty(t, createResp.Error)
	created, ok := createResp.Result.(map[string]any)
	require.True(t, ok)
	code, ok := created["code"].(string)
	require.True(t, ok)
	require.NotEmpty(t, code)

	guest := newTestConn(t, srv, router)
	authenticate(t, guest, router, "Guest")
	joinResp := router.Dispatch(guest, &network.Request{Action: network.ActionJoinGame, CallID: "3", Code: code})
	require.Empty(t, joinResp.Error)

	assert.NotNil(t, host.user.Game())
	assert.NotNil(t, guest.user.Game())
	assert.Equal(t, host.user.Game(), guest.user.Game())
}

func TestCreateGameRejectsWhenAlreadyInGame(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)
	c := newTestConn(t, srv, router)
	authenticate(t, c, router, "Alice")

	first := router.Dispatch(c, &network.Request{Action: network.ActionCreateGame, CallID: "2"})
	require.Empty(t, first.Error)

	second := router.Dispatch(c, &network.Request{Action: network.ActionCreateGame, CallID: "3"})
	assert.Equal(t, "user_in_game", second.Error)
}

func TestKickPlayerRejectsNonHost(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)

	host := newTestConn(t, srv, router)
	authenticate(t, host, router, "Host")
	createResp := router.Dispatch(host, &network.Request{Action: network.ActionCreateGame, CallID: "2"})
	code := createResp.Result.(map[string]any)["code"].(string)

	guest := newTestConn(t, srv, router)
	authenticate(t, guest, router, "Guest")
	router.Dispatch(guest, &network.Request{Action: network.ActionJoinGame, CallID: "3", Code: code})

	kickResp := router.Dispatch(guest, &network.Request{
		Action: network.ActionKickPlayer, CallID: "4", User: host.user.ID.String(),
	})
	assert.Equal(t, "user_not_host", kickResp.Error)
}

func TestKickPlayerRejectsSelfKick(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)

	host := newTestConn(t, srv, router)
	authenticate(t, host, router, "Host")
	router.Dispatch(host, &network.Request{Action: network.ActionCreateGame, CallID: "2"})

	resp := router.Dispatch(host, &network.Request{
		Action: network.ActionKickPlayer, CallID: "3", User: host.user.ID.String(),
	})
	assert.Equal(t, "self_kick", resp.Error)
}

func TestChatRejectsEmptyText(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)
	c := newTestConn(t, srv, router)
	authenticate(t, c, router, "Alice")
	router.Dispatch(c, &network.Request{Action: network.ActionCreateGame, CallID: "2"})

	resp := router.Dispatch(c, &network.Request{Action: network.ActionChat, CallID: "3", Text: "   "})
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestListGamesOnlyShowsPublicGames(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)
	c := newTestConn(t, srv, router)
	authenticate(t, c, router, "Alice")

	isPublic := true
	resp := router.Dispatch(c, &network.Request{
		Action: network.ActionCreateGame, CallID: "2",
		Options: &network.OptionsPatch{Public: &isPublic},
	})
	require.Empty(t, resp.Error)

	listResp := router.Dispatch(c, &network.Request{Action: network.ActionListGames, CallID: "3"})
	require.Empty(t, listResp.Error)
	listed, ok := listResp.Result.(map[string]any)
	require.True(t, ok)
	listing, ok := listed["games"].([]engine.ListingJSON)
	require.True(t, ok)
	require.Len(t, listing, 1)
	assert.False(t, listing[0].Passworded)
}

func TestAuthenticateRejectsDuplicateName(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)

	first := newTestConn(t, srv, router)
	authenticate(t, first, router, "Alice")

	second := newTestConn(t, srv, router)
	resp := router.Dispatch(second, &network.Request{Action: network.ActionAuthenticate, CallID: "1", Name: "Alice"})
	assert.Equal(t, engine.CodeNameInUse, resp.Error)
}

func TestAuthenticateReconnectsWithValidToken(t *testing.T) {
	router := NewRouter()
	srv := newTestServer(t)

	original := newTestConn(t, srv, router)
	resp := authenticate(t, original, router, "Alice")
	result := resp.Result.(map[string]any)

	reconnecting := newTestConn(t, srv, router)
	reconnectResp := router.Dispatch(reconnecting, &network.Request{
		Action: network.ActionAuthenticate, CallID: "2",
		ID: result["id"].(string), Token: result["token"].(string),
	})
	require.Empty(t, reconnectResp.Error)
	assert.Equal(t, original.user.ID, reconnecting.user.ID)
}
