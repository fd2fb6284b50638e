package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

// GameView - board, status and winner of a game as returned to clients.
type GameView struct {
	GameID   string        `json:"game_id"`
	Board    entity.Board  `json:"-"`
	Cells    []*string     `json:"board"`
	Row1     string        `json:"row1"`
	Row2     string        `json:"row2"`
	Row3     string        `json:"row3"`
	Status   entity.Status `json:"status"`
	WinnerID string        `json:"winner_id,omitempty"`
	Winner   string        `json:"winner,omitempty"`
	Version  int64         `json:"version"`
}

func NewGameView(game *entity.Game, board entity.Board, winnerName string) *GameView {
	rows := board.Rows()

	view := &GameView{
		GameID:  game.ID,
		Board:   board,
		Cells:   board.Cells(),
		Row1:    rows[0],
		Row2:    rows[1],
		Row3:    rows[2],
		Status:  game.Status,
		Version: game.Version,
	}

	if game.Status.IsFinished() && !game.Status.IsDraw() {
		view.WinnerID = game.PlayerOf(game.Status.Winner)
		view.Winner = winnerName
	}

	return view
}

type MoveService interface {
	ApplyMove(ctx context.Context, gameID, playerID string, cell int) (*GameView, error)
	ViewGame(ctx context.Context, gameID string) (*GameView, error)
}

type playerFinder interface {
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type moveService struct {
	logger *slog.Logger

	gameRepo   gameRepo
	playerRepo playerFinder
	publisher  publisher
}

func NewMoveService(logger *slog.Logger, gameRepo gameRepo, playerRepo playerFinder, publisher publisher) MoveService {
	return &moveService{
		logger:     logger.With("component", "move_service"),
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
		publisher:  publisher,
	}
}

// ApplyMove - validates and records one move, then recomputes the status from the full move history.
// Moves on the same game are serialized by the store's game lock.
func (that *moveService) ApplyMove(ctx context.Context, gameID, playerID string, cell int) (*GameView, error) {
	log := that.logger.With("method", "ApplyMove", "game_id", gameID, "player_id", playerID, "cell", cell)

	if gameID == "" || playerID == "" {
		return nil, apperror.ErrMissingID
	}

	if !entity.IsValidCell(cell) {
		return nil, apperror.ErrInvalidCell
	}

	var (
		updated *entity.Game
		board   entity.Board
		mark    entity.Mark
	)

	err := that.gameRepo.LockGameForUpdate(ctx, gameID, func(tx repository.GameTx, game *entity.Game) error {
		var ok bool
		if mark, ok = game.MarkOf(playerID); !ok {
			return apperror.ErrNotParticipant
		}

		switch {
		case game.Status.IsWaiting():
			return apperror.ErrGameIsNotStarted
		case game.Status.IsFinished():
			return apperror.ErrGameFinished
		}

		moves, err := tx.MovesForGame(ctx, game.ID)
		if err != nil {
			return fmt.Errorf("failed to get moves: %w", err)
		}

		// occupancy first: the loser of a race for one cell sees a conflict, not a turn error
		for _, move := range moves {
			if move.Cell == cell {
				return apperror.ErrCellOccupied
			}
		}

		if game.Status.Turn != mark {
			return apperror.ErrNotYourTurn
		}

		move := &entity.Move{
			ID:        uuid.NewString(),
			GameID:    game.ID,
			PlayerID:  playerID,
			Cell:      cell,
			Mark:      mark,
			CreatedAt: time.Now().UTC(),
		}

		if err = tx.SaveMove(ctx, move); err != nil {
			if !errors.Is(err, repository.ErrDuplicateMove) {
				return fmt.Errorf("failed to save move: %w", err)
			}

			log.Warn("move for cell already recorded, continuing", "error", err)
		}

		if moves, err = tx.MovesForGame(ctx, game.ID); err != nil {
			return fmt.Errorf("failed to get moves: %w", err)
		}

		board = tictactoe.Replay(moves)
		game.Status = tictactoe.NextStatus(board, mark)

		if err = tx.SaveGame(ctx, game); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}

		updated = game

		return nil
	})
	if err != nil {
		if apperror.KindOf(err) != apperror.KindInternal {
			log.Debug("move rejected", "error", err)
		}
		return nil, fmt.Errorf("failed to apply move: %w", err)
	}

	movesTotal.WithLabelValues(string(mark)).Inc()
	if updated.Status.IsFinished() {
		gamesFinishedTotal.WithLabelValues(updated.Status.String()).Inc()
	}

	log.Info("move applied", "mark", mark, "status", updated.Status)

	view, err := that.newView(ctx, updated, board)
	if err != nil {
		return nil, err
	}

	that.publisher.Publish(updated.ID, updated.Version, view)

	return view, nil
}

// ViewGame - reads without the game lock; the result may trail a concurrent move.
func (that *moveService) ViewGame(ctx context.Context, gameID string) (*GameView, error) {
	if gameID == "" {
		return nil, apperror.ErrMissingID
	}

	game, err := that.gameRepo.FindGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	moves, err := that.gameRepo.MovesForGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moves: %w", err)
	}

	return that.newView(ctx, game, tictactoe.Replay(moves))
}

func (that *moveService) newView(ctx context.Context, game *entity.Game, board entity.Board) (*GameView, error) {
	var winnerName string

	if game.Status.IsFinished() && !game.Status.IsDraw() {
		winner, err := that.playerRepo.GetByID(ctx, game.PlayerOf(game.Status.Winner))
		if err != nil {
			return nil, fmt.Errorf("failed to get winner: %w", err)
		}

		winnerName = winner.Name
	}

	return NewGameView(game, board, winnerName), nil
}
