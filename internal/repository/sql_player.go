package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type playerModel struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Name      string    `gorm:"size:255;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

func (playerModel) TableName() string { return "players" }

func (that *playerModel) toEntity() *entity.Player {
	return &entity.Player{
		ID:        that.ID,
		Name:      that.Name,
		CreatedAt: that.CreatedAt,
	}
}

type sqlPlayer struct {
	db *gorm.DB
}

func NewSQLPlayerRepository(db *gorm.DB) PlayerRepository {
	return &sqlPlayer{
		db: db,
	}
}

func (that *sqlPlayer) Create(ctx context.Context, player *entity.Player) error {
	model := &playerModel{
		ID:        player.ID,
		Name:      player.Name,
		CreatedAt: player.CreatedAt,
	}

	if err := that.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	return nil
}

func (that *sqlPlayer) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	return that.take(that.db.WithContext(ctx).Where("id = ?", id))
}

// GetByName - names are not unique; the earliest registered player wins.
func (that *sqlPlayer) GetByName(ctx context.Context, name string) (*entity.Player, error) {
	return that.take(that.db.WithContext(ctx).Where("name = ?", name).Order("created_at ASC, id ASC"))
}

func (that *sqlPlayer) List(ctx context.Context) ([]*entity.Player, error) {
	var models []playerModel

	if err := that.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	players := make([]*entity.Player, 0, len(models))
	for i := range models {
		players = append(players, models[i].toEntity())
	}

	return players, nil
}

func (that *sqlPlayer) take(query *gorm.DB) (*entity.Player, error) {
	var model playerModel

	err := query.Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrPlayerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return model.toEntity(), nil
}
