package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
)

type GameService interface {
	// CreateGame - without an opponent the game waits for one, otherwise X moves first.
	CreateGame(ctx context.Context, creatorID, opponentID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)

	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	HasActiveGame(ctx context.Context, playerID string) (bool, error)
	ListWaitingGames(ctx context.Context) ([]*entity.Game, error)
}

type gameRepo interface {
	CreateGame(ctx context.Context, game *entity.Game) error
	FindGame(ctx context.Context, id string) (*entity.Game, error)
	MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error)
	ExistsActiveGameForPlayer(ctx context.Context, playerID string) (bool, error)
	ListWaitingGames(ctx context.Context) ([]*entity.Game, error)
	LockGameForUpdate(ctx context.Context, gameID string, fn func(tx repository.GameTx, game *entity.Game) error) error
}

type publisher interface {
	Publish(gameID string, version int64, payload any)
}

type gameService struct {
	logger *slog.Logger

	gameRepo  gameRepo
	publisher publisher
}

func NewGameService(logger *slog.Logger, gameRepo gameRepo, publisher publisher) GameService {
	return &gameService{
		logger:    logger.With("component", "game_service"),
		gameRepo:  gameRepo,
		publisher: publisher,
	}
}

func (that *gameService) CreateGame(ctx context.Context, creatorID, opponentID string) (*entity.Game, error) {
	if creatorID == "" {
		return nil, apperror.ErrMissingID
	}

	game := entity.NewGame(uuid.NewString(), creatorID, time.Now().UTC())
	if opponentID != "" {
		game.OpponentID = opponentID
		game.Status = entity.TurnOf(entity.MarkX)
	}

	if err := that.gameRepo.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game in storage: %w", err)
	}

	that.logger.Info("game created", "game_id", game.ID, "player_id", creatorID, "status", game.Status)

	return game, nil
}

// JoinGame - the only way out of WAITING_FOR_OPPONENT. Runs under the game lock.
func (that *gameService) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	log := that.logger.With("method", "JoinGame", "game_id", gameID, "player_id", playerID)

	if gameID == "" || playerID == "" {
		return nil, apperror.ErrMissingID
	}

	var joined *entity.Game

	err := that.gameRepo.LockGameForUpdate(ctx, gameID, func(tx repository.GameTx, game *entity.Game) error {
		switch {
		case game.HasOpponent():
			return apperror.ErrGameHasOpponent
		case !game.Status.IsWaiting():
			return apperror.ErrGameNotJoinable
		case game.CreatorID == playerID:
			return apperror.ErrJoinOwnGame
		}

		game.OpponentID = playerID
		game.Status = entity.TurnOf(entity.MarkX)

		if err := tx.SaveGame(ctx, game); err != nil {
			return fmt.Errorf("failed to save game: %w", err)
		}

		joined = game

		return nil
	})
	if err != nil {
		log.Debug("join rejected", "error", err)
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	log.Info("player joined game", "status", joined.Status)
	that.publisher.Publish(joined.ID, joined.Version, NewGameView(joined, entity.Board{}, ""))

	return joined, nil
}

func (that *gameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	if id == "" {
		return nil, apperror.ErrMissingID
	}

	game, err := that.gameRepo.FindGame(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) HasActiveGame(ctx context.Context, playerID string) (bool, error) {
	active, err := that.gameRepo.ExistsActiveGameForPlayer(ctx, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to check active games: %w", err)
	}

	return active, nil
}

func (that *gameService) ListWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.gameRepo.ListWaitingGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve waiting games from storage: %w", err)
	}

	return games, nil
}
