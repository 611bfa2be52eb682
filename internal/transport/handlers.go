package transport

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cahserver/server/internal/engine"
	"github.com/cahserver/server/internal/network"
)

func handleAuthenticate(c *Conn, req *network.Request) (any, error) {
	if c.user != nil {
		return nil, engine.NewInvalidGameState(engine.CodeAlreadyAuthenticated, "already authenticated")
	}

	var user *engine.User

	switch {
	case req.ID != "" && req.Token != "":
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, engine.NewInvalidGameState(engine.CodeUserNotFound, "user not found")
		}
		found, ok := c.server.FindUserByID(id)
		if !ok {
			return nil, engine.NewInvalidGameState(engine.CodeUserNotFound, "user not found")
		}
		if found.Token != req.Token {
			return nil, engine.NewInvalidGameState(engine.CodeInvalidToken, "invalid token")
		}
		found.Reconnected(c)
		user = found

	case req.Name != "":
		if !engine.ValidName(req.Name) {
			return nil, engine.NewInvalidRequest("invalid name")
		}
		if nameInUse(c, req.Name) {
			return nil, engine.NewInvalidGameState(engine.CodeNameInUse, "name already in use")
		}
		user = engine.NewUser(req.Name, c.server, c)
		if err := c.server.AddUser(user); err != nil {
			return nil, engine.NewInvalidGameState(engine.CodeNameInUse, "name already in use")
		}

	default:
		return nil, engine.NewInvalidRequest("missing parameters")
	}

	c.user = user
	result := map[string]any{
		"id":      user.ID.String(),
		"token":   user.Token,
		"name":    user.Name,
		"in_game": user.Game() != nil,
	}
	if game := user.Game(); game != nil {
		game.SendFullResyncTo(user.Player())
	}
	return result, nil
}

func nameInUse(c *Conn, name string) bool {
	lower := strings.ToLower(name)
	for _, u := range c.server.AllUsers() {
		if strings.ToLower(u.Name) == lower {
			return true
		}
	}
	return false
}

func handleCreateGame(c *Conn, req *network.Request) (any, error) {
	if c.user.Game() != nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserInGame, "user already in game")
	}
	options := engine.DefaultGameOptions()
	if req.Options != nil {
		if err := applyOptionsPatch(c, options, req.Options, false); err != nil {
			return nil, err
		}
	}
	if err := options.Validate(); err != nil {
		return nil, err
	}
	game, err := c.server.CreateGame(options)
	if err != nil {
		return nil, err
	}
	if err := game.AddPlayer(c.user); err != nil {
		c.server.RemoveGame(game)
		return nil, err
	}
	return map[string]any{"code": game.Code}, nil
}

func handleJoinGame(c *Conn, req *network.Request) (any, error) {
	if c.user.Game() != nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserInGame, "user already in game")
	}
	if req.Code == "" {
		return nil, engine.NewInvalidRequest("missing game code")
	}
	game, ok := c.server.FindGameByCode(strings.ToUpper(req.Code))
	if !ok {
		return nil, engine.NewInvalidGameState(engine.CodeGameNotFound, "no such game")
	}
	if game.Options.Password != "" && req.Password != game.Options.Password {
		if req.Password == "" {
			return nil, engine.NewInvalidGameState(engine.CodePasswordRequired, "a password is required to join this game")
		}
		return nil, engine.NewInvalidGameState(engine.CodePasswordIncorrect, "incorrect password")
	}
	if err := game.AddPlayer(c.user); err != nil {
		return nil, err
	}
	return map[string]any{"code": game.Code}, nil
}

func handleLeaveGame(c *Conn, req *network.Request) (any, error) {
	if c.user.Game() == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	if err := c.user.Game().RemovePlayer(c.user.Player(), engine.LeaveReasonLeave); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleKickPlayer(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	if c.user.Player() != game.Host() {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotHost, "you are not the host")
	}
	userID, err := uuid.Parse(req.User)
	if err != nil {
		return nil, engine.NewInvalidRequest("invalid user")
	}
	if userID == c.user.ID {
		return nil, engine.NewInvalidGameState(engine.CodeSelfKick, "can't kick yourself")
	}
	player, ok := game.FindPlayer(userID)
	if !ok {
		return nil, engine.NewInvalidGameState(engine.CodePlayerNotInGame, "the player is not in the game")
	}
	if err := game.RemovePlayer(player, engine.LeaveReasonHostKick); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleGameOptions(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	if c.user.Player() != game.Host() {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotHost, "you are not the host")
	}
	if req.Options == nil {
		return game.Options.ToJSON(), nil
	}
	inGame := game.GameRunning()
	patched := *game.Options
	if err := applyOptionsPatch(c, &patched, req.Options, inGame); err != nil {
		return nil, err
	}
	if err := patched.Validate(); err != nil {
		return nil, err
	}
	*game.Options = patched
	game.NotifyOptionsChanged()
	return game.Options.ToJSON(), nil
}

// applyOptionsPatch copies every field present in patch onto options. When
// restrictToInGame is true (the game already has a round in progress),
// only fields IsUpdateableInGame allows are accepted, mirroring
// GameOptions.updateable_ingame.
func applyOptionsPatch(c *Conn, options *engine.GameOptions, patch *network.OptionsPatch, restrictToInGame bool) error {
	set := func(field string, apply func()) error {
		if restrictToInGame && !engine.IsUpdateableInGame(field) {
			return engine.NewInvalidGameState(engine.CodeOptionLocked, field+" can't be changed while the game is ongoing")
		}
		apply()
		return nil
	}
	if patch.GameTitle != nil {
		if err := set("game_title", func() { options.GameTitle = *patch.GameTitle }); err != nil {
			return err
		}
	}
	if patch.Public != nil {
		if err := set("public", func() { options.Public = *patch.Public }); err != nil {
			return err
		}
	}
	if patch.Password != nil {
		if err := set("password", func() { options.Password = *patch.Password }); err != nil {
			return err
		}
	}
	if patch.ThinkTime != nil {
		if err := set("think_time", func() { options.ThinkTime = *patch.ThinkTime }); err != nil {
			return err
		}
	}
	if patch.RoundEndTime != nil {
		if err := set("round_end_time", func() { options.RoundEndTime = *patch.RoundEndTime }); err != nil {
			return err
		}
	}
	if patch.IdleRounds != nil {
		if err := set("idle_rounds", func() { options.IdleRounds = *patch.IdleRounds }); err != nil {
			return err
		}
	}
	if patch.BlankCards != nil {
		if err := set("blank_cards", func() { options.BlankCards = *patch.BlankCards }); err != nil {
			return err
		}
	}
	if patch.PlayerLimit != nil {
		if err := set("player_limit", func() { options.PlayerLimit = *patch.PlayerLimit }); err != nil {
			return err
		}
	}
	if patch.PointLimit != nil {
		if err := set("point_limit", func() { options.PointLimit = *patch.PointLimit }); err != nil {
			return err
		}
	}
	if patch.CardPacks != nil {
		if err := set("card_packs", func() {}); err != nil {
			return err
		}
		ids := make([]uuid.UUID, 0, len(patch.CardPacks))
		for _, s := range patch.CardPacks {
			id, err := uuid.Parse(s)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		if c.server.Catalog != nil {
			resolved, err := c.server.Catalog.Resolve(ids)
			if err != nil {
				return engine.NewInvalidGameState(engine.CodeInvalidOptions, "unknown card pack")
			}
			options.CardPacks = resolved
		}
	}
	return nil
}

func handleStartGame(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	if c.user.Player() != game.Host() {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotHost, "you are not the host")
	}
	if err := game.StartGame(); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleStopGame(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	if c.user.Player() != game.Host() {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotHost, "you are not the host")
	}
	game.StopGame()
	return nil, nil
}

func handlePlayWhite(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	round := game.CurrentRound()
	if round == nil {
		return nil, engine.NewInvalidGameState(engine.CodeInvalidRoundState, "white cards are not being played for the round")
	}

	chosen := make([]engine.PlayedCard, 0, len(req.Cards))
	for _, input := range req.Cards {
		slotID, err := uuid.Parse(input.ID)
		if err != nil {
			return nil, engine.NewInvalidRequest("invalid cards")
		}
		var text *string
		if input.Text != nil {
			trimmed := strings.TrimSpace(*input.Text)
			if trimmed == "" {
				return nil, engine.NewInvalidRequest("invalid cards")
			}
			text = &trimmed
		}
		chosen = append(chosen, engine.PlayedCard{SlotID: slotID, Text: text})
	}

	if err := game.PlayWhiteCards(round.ID, c.user.Player(), chosen); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleChooseWinner(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	if c.user.Player() != game.CardCzar() {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotCzar, "you are not the card czar")
	}
	winnerSlot, err := uuid.Parse(req.Winner)
	if err != nil {
		return nil, engine.NewInvalidRequest("invalid winner")
	}
	round := game.CurrentRound()
	if round == nil {
		return nil, engine.NewInvalidGameState(engine.CodeInvalidRoundState, "the winner is not being chosen for the round")
	}
	if err := game.ChooseWinner(round.ID, winnerSlot); err != nil {
		return nil, err
	}
	return nil, nil
}

func handleChat(c *Conn, req *network.Request) (any, error) {
	game := c.user.Game()
	if game == nil {
		return nil, engine.NewInvalidGameState(engine.CodeUserNotInGame, "user not in game")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, engine.NewInvalidRequest("invalid text")
	}
	game.SendChatEvent(c.user.Name, text)
	return nil, nil
}

func handleListGames(c *Conn, req *network.Request) (any, error) {
	return map[string]any{"games": c.server.PublicGames()}, nil
}
