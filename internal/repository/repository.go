package repository

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

var (
	ErrDuplicateMove   = errors.New("move for this cell is already recorded")
	ErrVersionConflict = errors.New("game was modified concurrently")
)

// GameTx - writes made while holding the exclusive lock on one game.
// They become visible together when the locked callback returns nil.
type GameTx interface {
	SaveGame(ctx context.Context, game *entity.Game) error
	SaveMove(ctx context.Context, move *entity.Move) error
	MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error)
}

type GameRepository interface {
	CreateGame(ctx context.Context, game *entity.Game) error
	FindGame(ctx context.Context, id string) (*entity.Game, error)
	MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error)
	ExistsActiveGameForPlayer(ctx context.Context, playerID string) (bool, error)
	ListWaitingGames(ctx context.Context) ([]*entity.Game, error)

	// LockGameForUpdate - loads the game under an exclusive per-game lock and runs fn.
	// Returns apperror.ErrGameNotFound when the game does not exist. An error from fn discards its writes.
	LockGameForUpdate(ctx context.Context, gameID string, fn func(tx GameTx, game *entity.Game) error) error
}

type PlayerRepository interface {
	Create(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	GetByName(ctx context.Context, name string) (*entity.Player, error)
	List(ctx context.Context) ([]*entity.Player, error)
}
