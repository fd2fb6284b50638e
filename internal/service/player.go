package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type PlayerService interface {
	Register(ctx context.Context, name string) (*entity.Player, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	GetByName(ctx context.Context, name string) (*entity.Player, error)
	GetOrCreateByName(ctx context.Context, name string) (*entity.Player, error)
	List(ctx context.Context) ([]*entity.Player, error)
}

type playerRepo interface {
	Create(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	GetByName(ctx context.Context, name string) (*entity.Player, error)
	List(ctx context.Context) ([]*entity.Player, error)
}

type playerService struct {
	logger     *slog.Logger
	playerRepo playerRepo
}

func NewPlayerService(logger *slog.Logger, playerRepo playerRepo) PlayerService {
	return &playerService{
		logger:     logger.With("component", "player_service"),
		playerRepo: playerRepo,
	}
}

func (that *playerService) Register(ctx context.Context, name string) (*entity.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ErrEmptyName
	}

	player := &entity.Player{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := that.playerRepo.Create(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	that.logger.Info("player registered", "player_id", player.ID, "name", player.Name)

	return player, nil
}

func (that *playerService) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		return nil, apperror.ErrMissingID
	}

	existingPlayer, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return existingPlayer, nil
}

func (that *playerService) GetByName(ctx context.Context, name string) (*entity.Player, error) {
	existingPlayer, err := that.playerRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by name: %w", err)
	}

	return existingPlayer, nil
}

func (that *playerService) GetOrCreateByName(ctx context.Context, name string) (*entity.Player, error) {
	existingPlayer, err := that.playerRepo.GetByName(ctx, name)
	if err == nil {
		return existingPlayer, nil
	}

	if !errors.Is(err, apperror.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to get player by name: %w", err)
	}

	return that.Register(ctx, name)
}

func (that *playerService) List(ctx context.Context) ([]*entity.Player, error) {
	players, err := that.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	return players, nil
}
