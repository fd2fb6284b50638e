package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

type gameModel struct {
	ID         string        `gorm:"primaryKey;size:36"`
	Status     entity.Status `gorm:"type:varchar(32);not null;index"`
	CreatorID  string        `gorm:"size:36;not null;index"`
	OpponentID string        `gorm:"size:36;index"`
	CreatedAt  time.Time     `gorm:"not null"`
	Version    int64         `gorm:"not null;default:0"`
}

func (gameModel) TableName() string { return "games" }

// moveModel - (game_id, cell) is unique, the store-level backstop against a second mark on a cell.
type moveModel struct {
	ID        string      `gorm:"primaryKey;size:36"`
	GameID    string      `gorm:"size:36;not null;uniqueIndex:idx_moves_game_cell"`
	Cell      int         `gorm:"not null;uniqueIndex:idx_moves_game_cell"`
	PlayerID  string      `gorm:"size:36;not null"`
	Mark      entity.Mark `gorm:"size:1;not null"`
	CreatedAt time.Time   `gorm:"not null"`
}

func (moveModel) TableName() string { return "moves" }

func newGameModel(game *entity.Game) *gameModel {
	return &gameModel{
		ID:         game.ID,
		Status:     game.Status,
		CreatorID:  game.CreatorID,
		OpponentID: game.OpponentID,
		CreatedAt:  game.CreatedAt,
		Version:    game.Version,
	}
}

func (that *gameModel) toEntity() *entity.Game {
	return &entity.Game{
		ID:         that.ID,
		Status:     that.Status,
		CreatorID:  that.CreatorID,
		OpponentID: that.OpponentID,
		CreatedAt:  that.CreatedAt,
		Version:    that.Version,
	}
}

func (that *moveModel) toEntity() entity.Move {
	return entity.Move{
		ID:        that.ID,
		GameID:    that.GameID,
		PlayerID:  that.PlayerID,
		Cell:      that.Cell,
		Mark:      that.Mark,
		CreatedAt: that.CreatedAt,
	}
}

// Migrate - creates or updates the games, moves and players tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&playerModel{}, &gameModel{}, &moveModel{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

type sqlGame struct {
	db    *gorm.DB
	locks *keyedMutex
}

func NewSQLGameRepository(db *gorm.DB) GameRepository {
	return &sqlGame{
		db:    db,
		locks: newKeyedMutex(),
	}
}

func (that *sqlGame) CreateGame(ctx context.Context, game *entity.Game) error {
	if err := that.db.WithContext(ctx).Create(newGameModel(game)).Error; err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	return nil
}

func (that *sqlGame) FindGame(ctx context.Context, id string) (*entity.Game, error) {
	var model gameModel

	err := that.db.WithContext(ctx).Where("id = ?", id).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return model.toEntity(), nil
}

func (that *sqlGame) MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error) {
	return movesForGame(that.db.WithContext(ctx), gameID)
}

func (that *sqlGame) ExistsActiveGameForPlayer(ctx context.Context, playerID string) (bool, error) {
	var count int64

	err := that.db.WithContext(ctx).
		Model(&gameModel{}).
		Where("(creator_id = ? OR opponent_id = ?) AND status IN ?", playerID, playerID, activeStatusNames()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count active games: %w", err)
	}

	return count > 0, nil
}

func (that *sqlGame) ListWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	var models []gameModel

	err := that.db.WithContext(ctx).
		Where("status = ?", entity.StatusWaiting.String()).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting games: %w", err)
	}

	games := make([]*entity.Game, 0, len(models))
	for i := range models {
		games = append(games, models[i].toEntity())
	}

	return games, nil
}

// LockGameForUpdate - the in-process mutex is taken before the transaction so that
// waiters never hold a pooled connection; SELECT ... FOR UPDATE covers dialects with row locks.
func (that *sqlGame) LockGameForUpdate(ctx context.Context, gameID string, fn func(tx GameTx, game *entity.Game) error) error {
	unlock := that.locks.Lock(gameID)
	defer unlock()

	return that.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model gameModel

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", gameID).Take(&model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrGameNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to lock game: %w", err)
		}

		return fn(&sqlGameTx{tx: tx}, model.toEntity())
	})
}

type sqlGameTx struct {
	tx *gorm.DB
}

// SaveGame - bumps the version; a stale version means someone wrote past the lock.
func (that *sqlGameTx) SaveGame(ctx context.Context, game *entity.Game) error {
	res := that.tx.WithContext(ctx).
		Model(&gameModel{}).
		Where("id = ? AND version = ?", game.ID, game.Version).
		Updates(map[string]any{
			"status":      game.Status,
			"opponent_id": game.OpponentID,
			"version":     game.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to save game: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	game.Version++

	return nil
}

func (that *sqlGameTx) SaveMove(ctx context.Context, move *entity.Move) error {
	model := &moveModel{
		ID:        move.ID,
		GameID:    move.GameID,
		Cell:      move.Cell,
		PlayerID:  move.PlayerID,
		Mark:      move.Mark,
		CreatedAt: move.CreatedAt,
	}

	// nested transaction = savepoint, so a rejected insert leaves the outer one usable
	err := that.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicate(err) {
			return ErrDuplicateMove
		}

		return fmt.Errorf("failed to save move: %w", err)
	}

	return nil
}

func (that *sqlGameTx) MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error) {
	return movesForGame(that.tx.WithContext(ctx), gameID)
}

func movesForGame(db *gorm.DB, gameID string) ([]entity.Move, error) {
	var models []moveModel

	if err := db.Where("game_id = ?", gameID).Order("created_at ASC, cell ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to get moves for game: %w", err)
	}

	moves := make([]entity.Move, 0, len(models))
	for i := range models {
		moves = append(moves, models[i].toEntity())
	}

	return moves, nil
}

func activeStatusNames() []string {
	statuses := entity.ActiveStatuses()

	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, status.String())
	}

	return names
}

// isDuplicate - sqlite reports "UNIQUE constraint failed", postgres "duplicate key value".
func isDuplicate(err error) bool {
	msg := strings.ToLower(err.Error())

	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
