package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/notify"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/testing/suite"
)

type fixture struct {
	ctx    context.Context
	logger *slog.Logger
	hub    *notify.Hub

	gameRepo repository.GameRepository
	players  PlayerService
	games    GameService
	moves    MoveService
}

type fixtureFactory func(t *testing.T) *fixture

var backends = map[string]fixtureFactory{
	"sqlite": newSQLFixture,
	"redis":  newRedisFixture,
}

func newSQLFixture(t *testing.T) *fixture {
	ctx, st := suite.NewSQLite(t)
	require.NoError(t, repository.Migrate(ctx, st.DB))

	return newFixture(ctx, st, repository.NewSQLGameRepository(st.DB), repository.NewSQLPlayerRepository(st.DB))
}

func newRedisFixture(t *testing.T) *fixture {
	ctx, st := suite.NewMiniRedis(t)

	return newFixture(ctx, st, repository.NewRedisGameRepository(st.Redis, time.Second), repository.NewRedisPlayerRepository(st.Redis))
}

func newFixture(ctx context.Context, st *suite.Suite, gameRepo repository.GameRepository, playerRepo repository.PlayerRepository) *fixture {
	hub := notify.NewHub(st.Logger)

	return &fixture{
		ctx:      ctx,
		logger:   st.Logger,
		hub:      hub,
		gameRepo: gameRepo,
		players:  NewPlayerService(st.Logger, playerRepo),
		games:    NewGameService(st.Logger, gameRepo, hub),
		moves:    NewMoveService(st.Logger, gameRepo, playerRepo, hub),
	}
}

func (that *fixture) register(t *testing.T, name string) *entity.Player {
	t.Helper()

	player, err := that.players.Register(that.ctx, name)
	require.NoError(t, err)

	return player
}

// startGame - creates a game for a fresh X player and joins it with a fresh O player.
func (that *fixture) startGame(t *testing.T) (*entity.Game, *entity.Player, *entity.Player) {
	t.Helper()

	x := that.register(t, "alice")
	o := that.register(t, "bob")

	game, err := that.games.CreateGame(that.ctx, x.ID, "")
	require.NoError(t, err)

	game, err = that.games.JoinGame(that.ctx, game.ID, o.ID)
	require.NoError(t, err)

	return game, x, o
}

// play - applies cells alternately for X and O, starting with X.
func (that *fixture) play(t *testing.T, gameID string, x, o *entity.Player, cells ...int) *GameView {
	t.Helper()

	var view *GameView
	for i, cell := range cells {
		player := x
		if i%2 == 1 {
			player = o
		}

		var err error
		view, err = that.moves.ApplyMove(that.ctx, gameID, player.ID, cell)
		require.NoError(t, err, "move %d on cell %d", i, cell)
	}

	return view
}
