package bot

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/cahserver/server/config"
	"github.com/cahserver/server/internal/catalog"
	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/transport"
)

// writePlayableCatalog builds a one-pack catalog file with enough white
// cards for a three-player game and returns its loaded Catalog and the
// pack's id.
func writePlayableCatalog(t *testing.T) (*catalog.Catalog, string) {
	t.Helper()
	var whiteCards strings.Builder
	for i := 0; i < 60; i++ {
		whiteCards.WriteString("      - \"a silly answer " + strconv.Itoa(i) + "\"\n")
	}
	yamlSrc := "packs:\n" +
		"  - name: Bot Test Pack\n" +
		"    black_cards:\n" +
		"      - text: \"Why did the chicken cross the road? ____.\"\n" +
		"        pick_count: 1\n" +
		"        draw_count: 0\n" +
		"    white_cards:\n" + whiteCards.String()

	path := filepath.Join(t.TempDir(), "packs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlSrc), 0o644))

	cat, err := catalog.Load(path, nil)
	require.NoError(t, err)
	require.Len(t, cat.All(), 1)
	return cat, cat.All()[0].ID.String()
}

func pollAll(bots []*Bot) {
	for _, b := range bots {
		b.Poll()
	}
}

func TestThreeBotsPlayARound(t *testing.T) {
	cat, packID := writePlayableCatalog(t)
	srv := engine.NewServer(config.DefaultServerConfig(), cat, slog.Disabled)
	router := transport.NewRouter()

	bots := []*Bot{
		New("Alice", srv, router, 1),
		New("Bob", srv, router, 2),
		New("Carol", srv, router, 3),
	}
	for _, b := range bots {
		require.NoError(t, b.Authenticate())
	}

	bots[0].CardPackIDs = []string{packID}
	require.NoError(t, bots[0].JoinOrCreateGame())
	pollAll(bots)
	for _, b := range bots[1:] {
		require.NoError(t, b.JoinOrCreateGame())
		pollAll(bots)
	}

	require.True(t, bots[0].ShouldStartGame(), "host should see enough players to start")
	require.NoError(t, bots[0].StartGame())
	pollAll(bots)

	require.Equal(t, "playing", bots[0].GameState())

	var czar *Bot
	for _, b := range bots {
		if b.IsCardCzar() {
			czar = b
		}
	}
	require.NotNil(t, czar, "exactly one bot should be card czar")

	for _, b := range bots {
		if b == czar {
			continue
		}
		require.True(t, b.NeedsToPlayWhite())
		require.NoError(t, b.PlayWhite())
		pollAll(bots)
	}

	require.Equal(t, "judging", czar.GameState())
	require.True(t, czar.NeedsToJudge())
	require.NoError(t, czar.PlayCzar())
	pollAll(bots)

	require.Equal(t, "round_ended", bots[0].GameState())
}
