package usecase

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type PlayerUseCase interface {
	Register(ctx context.Context, name string) (*entity.Player, error)
	List(ctx context.Context) ([]*entity.Player, error)
}

type playerDirectory interface {
	Register(ctx context.Context, name string) (*entity.Player, error)
	List(ctx context.Context) ([]*entity.Player, error)
}

type playerUseCase struct {
	players playerDirectory
}

func NewPlayerUseCase(players playerDirectory) PlayerUseCase {
	return &playerUseCase{
		players: players,
	}
}

func (that *playerUseCase) Register(ctx context.Context, name string) (*entity.Player, error) {
	player, err := that.players.Register(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to register player: %w", err)
	}

	return player, nil
}

func (that *playerUseCase) List(ctx context.Context) ([]*entity.Player, error) {
	players, err := that.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	return players, nil
}
