package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/testing/suite"
)

func TestMoveService(t *testing.T) {
	for name, newFixture := range backends {
		t.Run(name, func(t *testing.T) {
			testMoveService(t, newFixture)
		})
	}
}

func testMoveService(t *testing.T, newFixture fixtureFactory) {
	t.Run("First move after join", func(t *testing.T) {
		// Given: P1 created a game and P2 joined it
		f := newFixture(t)
		game, x, _ := f.startGame(t)
		require.Equal(t, entity.TurnOf(entity.MarkX), game.Status)

		// When: P1 plays the top-left corner
		view, err := f.moves.ApplyMove(f.ctx, game.ID, x.ID, 0)

		// Then: The cell holds X and it is O's turn
		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, view.Board[0])
		assert.Equal(t, entity.TurnOf(entity.MarkO), view.Status)
		assert.Equal(t, "X |   |  ", view.Row1)
		assert.Empty(t, view.Winner)
	})

	t.Run("Completing a line wins", func(t *testing.T) {
		// Given: X holds cells 0 and 1, O holds 3 and 4
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 0, 3, 1, 4)

		// When: X plays cell 2
		view, err := f.moves.ApplyMove(f.ctx, game.ID, x.ID, 2)

		// Then: X wins and the winner is reported by name
		require.NoError(t, err)
		assert.Equal(t, entity.WonBy(entity.MarkX), view.Status)
		assert.Equal(t, x.ID, view.WinnerID)
		assert.Equal(t, "alice", view.Winner)
	})

	t.Run("O can win too", func(t *testing.T) {
		// Given: O is one move away from the middle column
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 0, 1, 2, 4, 3)

		// When: O plays cell 7
		view, err := f.moves.ApplyMove(f.ctx, game.ID, o.ID, 7)

		// Then: O wins
		require.NoError(t, err)
		assert.Equal(t, entity.WonBy(entity.MarkO), view.Status)
		assert.Equal(t, "bob", view.Winner)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: eight moves that leave no line for anyone
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 0, 1, 2, 4, 3, 5, 7, 6)

		// When: X fills the last cell
		view, err := f.moves.ApplyMove(f.ctx, game.ID, x.ID, 8)

		// Then: The game is drawn and has no winner
		require.NoError(t, err)
		assert.Equal(t, entity.StatusDraw, view.Status)
		assert.Equal(t, "XOXXOOOXX", view.Board.String())
		assert.Empty(t, view.WinnerID)
		assert.Empty(t, view.Winner)
	})

	t.Run("Occupied cell is a conflict and changes nothing", func(t *testing.T) {
		// Given: X played cell 4
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 4)

		// When: O tries cell 4
		_, err := f.moves.ApplyMove(f.ctx, game.ID, o.ID, 4)

		// Then: The move is rejected and the game is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

		view, err := f.moves.ViewGame(f.ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.TurnOf(entity.MarkO), view.Status)
		assert.Equal(t, "____X____", view.Board.String())
	})

	t.Run("Out of turn is forbidden and changes nothing", func(t *testing.T) {
		// Given: X played cell 0
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 0)

		// When: X tries to move again
		_, err := f.moves.ApplyMove(f.ctx, game.ID, x.ID, 1)

		// Then: The move is rejected and the board still has one mark
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))

		moves, err := f.gameRepo.MovesForGame(f.ctx, game.ID)
		require.NoError(t, err)
		assert.Len(t, moves, 1)
	})

	t.Run("Opponent cannot open the game", func(t *testing.T) {
		// Given: A freshly started game
		f := newFixture(t)
		game, _, o := f.startGame(t)

		// When: O tries to move first
		_, err := f.moves.ApplyMove(f.ctx, game.ID, o.ID, 4)

		// Then: It is not O's turn
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Stranger is forbidden", func(t *testing.T) {
		// Given: A running game and a player outside it
		f := newFixture(t)
		game, _, _ := f.startGame(t)
		stranger := f.register(t, "mallory")

		// When: The stranger tries to move
		_, err := f.moves.ApplyMove(f.ctx, game.ID, stranger.ID, 0)

		// Then: The move is forbidden
		require.ErrorIs(t, err, apperror.ErrNotParticipant)
		assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	})

	t.Run("Waiting game rejects moves", func(t *testing.T) {
		// Given: A game without an opponent
		f := newFixture(t)
		x := f.register(t, "alice")
		game, err := f.games.CreateGame(f.ctx, x.ID, "")
		require.NoError(t, err)

		// When: The creator tries to move
		_, err = f.moves.ApplyMove(f.ctx, game.ID, x.ID, 0)

		// Then: The game has not started
		require.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	})

	t.Run("Finished game rejects moves", func(t *testing.T) {
		// Given: X already won
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 0, 3, 1, 4, 2)

		// When: O tries to keep playing
		_, err := f.moves.ApplyMove(f.ctx, game.ID, o.ID, 5)

		// Then: The game is over
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
	})

	t.Run("Invalid input", func(t *testing.T) {
		f := newFixture(t)
		game, x, _ := f.startGame(t)

		tests := []struct {
			name     string
			gameID   string
			playerID string
			cell     int
			want     error
		}{
			{name: "negative cell", gameID: game.ID, playerID: x.ID, cell: -1, want: apperror.ErrInvalidCell},
			{name: "cell past the board", gameID: game.ID, playerID: x.ID, cell: 9, want: apperror.ErrInvalidCell},
			{name: "missing game id", gameID: "", playerID: x.ID, cell: 0, want: apperror.ErrMissingID},
			{name: "missing player id", gameID: game.ID, playerID: "", cell: 0, want: apperror.ErrMissingID},
			{name: "unknown game", gameID: "no-such-game", playerID: x.ID, cell: 0, want: apperror.ErrGameNotFound},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.moves.ApplyMove(f.ctx, tt.gameID, tt.playerID, tt.cell)
				require.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("Racing for one cell", func(t *testing.T) {
		// Given: A game where X is to move
		f := newFixture(t)
		game, x, _ := f.startGame(t)

		const racers = 8

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			kinds     []apperror.Kind
		)

		// When: The same move is submitted concurrently
		for range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()

				_, err := f.moves.ApplyMove(f.ctx, game.ID, x.ID, 4)

				mu.Lock()
				defer mu.Unlock()

				if err == nil {
					succeeded++
					return
				}
				kinds = append(kinds, apperror.KindOf(err))
			}()
		}
		wg.Wait()

		// Then: Exactly one wins, every other attempt sees a conflict and one move is recorded
		assert.Equal(t, 1, succeeded)
		require.Len(t, kinds, racers-1)
		for _, kind := range kinds {
			assert.Equal(t, apperror.KindConflict, kind)
		}

		moves, err := f.gameRepo.MovesForGame(f.ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, moves, 1)
		assert.Equal(t, 4, moves[0].Cell)

		view, err := f.moves.ViewGame(f.ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.TurnOf(entity.MarkO), view.Status)
	})

	t.Run("Both players racing for different cells", func(t *testing.T) {
		// Given: A game where X is to move
		f := newFixture(t)
		game, x, o := f.startGame(t)

		var wg sync.WaitGroup
		errs := make([]error, 2)

		// When: X and O submit at the same time
		for i, player := range []*entity.Player{x, o} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = f.moves.ApplyMove(f.ctx, game.ID, player.ID, i)
			}()
		}
		wg.Wait()

		// Then: X's move always lands; O's lands only if it was serialized after X
		require.NoError(t, errs[0])

		moves, err := f.gameRepo.MovesForGame(f.ctx, game.ID)
		require.NoError(t, err)

		if errs[1] != nil {
			require.ErrorIs(t, errs[1], apperror.ErrNotYourTurn)
			assert.Len(t, moves, 1)
		} else {
			assert.Len(t, moves, 2)
		}
	})

	t.Run("Spectators get every applied move", func(t *testing.T) {
		// Given: A subscriber on a running game
		f := newFixture(t)
		game, x, _ := f.startGame(t)

		updates, cancel := f.hub.Subscribe(game.ID)
		defer cancel()

		// When: X plays
		_, err := f.moves.ApplyMove(f.ctx, game.ID, x.ID, 8)
		require.NoError(t, err)

		// Then: The subscriber receives the new view
		var view map[string]any
		require.NoError(t, json.Unmarshal((<-updates).Payload, &view))
		assert.Equal(t, game.ID, view["game_id"])
		assert.Equal(t, "PLAYER_O_TURN", view["status"])
		assert.Equal(t, "X", view["board"].([]any)[8])
		assert.EqualValues(t, 2, view["version"])
	})

	t.Run("ViewGame", func(t *testing.T) {
		// Given: A game with two moves
		f := newFixture(t)
		game, x, o := f.startGame(t)
		f.play(t, game.ID, x, o, 0, 4)

		// When: Viewing it
		view, err := f.moves.ViewGame(f.ctx, game.ID)

		// Then: The board is rebuilt from the moves
		require.NoError(t, err)
		assert.Equal(t, "X___O____", view.Board.String())
		assert.Equal(t, entity.TurnOf(entity.MarkX), view.Status)

		_, err = f.moves.ViewGame(f.ctx, "no-such-game")
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestMoveService_DuplicateMoveIsRecomputedFromStoredMoves(t *testing.T) {
	// Given: X wins on cell 2, but the store reports that move as already recorded
	game := &entity.Game{ID: "g1", CreatorID: "px", OpponentID: "po", Status: entity.TurnOf(entity.MarkX), Version: 4}

	before := []entity.Move{
		{GameID: "g1", PlayerID: "px", Cell: 0, Mark: entity.MarkX},
		{GameID: "g1", PlayerID: "po", Cell: 3, Mark: entity.MarkO},
		{GameID: "g1", PlayerID: "px", Cell: 1, Mark: entity.MarkX},
		{GameID: "g1", PlayerID: "po", Cell: 4, Mark: entity.MarkO},
	}
	after := append(append([]entity.Move{}, before...), entity.Move{GameID: "g1", PlayerID: "px", Cell: 2, Mark: entity.MarkX})

	tx := new(mockGameTx)
	tx.On("MovesForGame", mock.Anything, "g1").Return(before, nil).Once()
	tx.On("SaveMove", mock.Anything, mock.MatchedBy(func(m *entity.Move) bool { return m.Cell == 2 })).
		Return(repository.ErrDuplicateMove).Once()
	tx.On("MovesForGame", mock.Anything, "g1").Return(after, nil).Once()
	tx.On("SaveGame", mock.Anything, mock.MatchedBy(func(g *entity.Game) bool { return g.Status == entity.WonBy(entity.MarkX) })).
		Run(func(args mock.Arguments) { args.Get(1).(*entity.Game).Version++ }).
		Return(nil).Once()

	games := new(mockGameRepo)
	games.On("LockGameForUpdate", mock.Anything, "g1").Return(tx, game).Once()

	players := new(mockPlayerFinder)
	players.On("GetByID", mock.Anything, "px").Return(&entity.Player{ID: "px", Name: "alice"}, nil).Once()

	pub := new(mockPublisher)
	pub.On("Publish", "g1", int64(5), mock.Anything).Once()

	moves := NewMoveService(suite.NewLogger(), games, players, pub)

	// When: X plays cell 2
	view, err := moves.ApplyMove(context.Background(), "g1", "px", 2)

	// Then: The move succeeds and the status is rebuilt from what the store holds
	require.NoError(t, err)
	assert.Equal(t, entity.WonBy(entity.MarkX), view.Status)
	assert.Equal(t, entity.MarkX, view.Board[2])
	assert.Equal(t, "alice", view.Winner)
	assert.EqualValues(t, 5, view.Version)

	mock.AssertExpectationsForObjects(t, tx, games, players, pub)
	tx.AssertNumberOfCalls(t, "MovesForGame", 2)
}

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateGame(ctx context.Context, game *entity.Game) error {
	return that.Called(ctx, game).Error(0)
}

func (that *mockGameRepo) FindGame(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameRepo) MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error) {
	args := that.Called(ctx, gameID)
	moves, _ := args.Get(0).([]entity.Move)

	return moves, args.Error(1)
}

func (that *mockGameRepo) ExistsActiveGameForPlayer(ctx context.Context, playerID string) (bool, error) {
	args := that.Called(ctx, playerID)

	return args.Bool(0), args.Error(1)
}

func (that *mockGameRepo) ListWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	args := that.Called(ctx)
	games, _ := args.Get(0).([]*entity.Game)

	return games, args.Error(1)
}

// LockGameForUpdate - runs fn with the tx and game given to Return.
func (that *mockGameRepo) LockGameForUpdate(ctx context.Context, gameID string, fn func(tx repository.GameTx, game *entity.Game) error) error {
	args := that.Called(ctx, gameID)

	return fn(args.Get(0).(repository.GameTx), args.Get(1).(*entity.Game))
}

type mockGameTx struct {
	mock.Mock
}

func (that *mockGameTx) SaveGame(ctx context.Context, game *entity.Game) error {
	return that.Called(ctx, game).Error(0)
}

func (that *mockGameTx) SaveMove(ctx context.Context, move *entity.Move) error {
	return that.Called(ctx, move).Error(0)
}

func (that *mockGameTx) MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error) {
	args := that.Called(ctx, gameID)
	moves, _ := args.Get(0).([]entity.Move)

	return moves, args.Error(1)
}

type mockPlayerFinder struct {
	mock.Mock
}

func (that *mockPlayerFinder) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (that *mockPublisher) Publish(gameID string, version int64, payload any) {
	that.Called(gameID, version, payload)
}
