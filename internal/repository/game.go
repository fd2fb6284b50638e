package repository

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

var ErrLockNotAcquired = errors.New("could not acquire game lock")

const (
	gamesKey        = "games"
	lockRetryPeriod = 5 * time.Millisecond
)

// unlockScript - deletes the lock only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func gameKey(id string) string        { return "game:" + id }
func gameMovesKey(id string) string   { return "game:" + id + ":moves" }
func gameLockKey(id string) string    { return "game:" + id + ":lock" }
func playerGamesKey(id string) string { return "player:" + id + ":games" }

type dbGame struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewRedisGameRepository(client *redis.Client, lockTTL time.Duration) GameRepository {
	return &dbGame{
		client:  client,
		lockTTL: lockTTL,
	}
}

func (that *dbGame) CreateGame(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	ok, err := that.client.SetNX(ctx, gameKey(game.ID), gameJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	if !ok {
		return fmt.Errorf("failed to create game %s: already exists", game.ID)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, gamesKey, game.ID)
		pipe.SAdd(ctx, playerGamesKey(game.CreatorID), game.ID)
		if game.HasOpponent() {
			pipe.SAdd(ctx, playerGamesKey(game.OpponentID), game.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index game: %w", err)
	}

	return nil
}

func (that *dbGame) FindGame(ctx context.Context, id string) (*entity.Game, error) {
	return getGame(ctx, that.client, id)
}

func (that *dbGame) MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error) {
	return getMoves(ctx, that.client, gameID)
}

func (that *dbGame) ExistsActiveGameForPlayer(ctx context.Context, playerID string) (bool, error) {
	ids, err := that.client.SMembers(ctx, playerGamesKey(playerID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to get player games: %w", err)
	}

	games, err := that.getGames(ctx, ids)
	if err != nil {
		return false, err
	}

	for _, game := range games {
		if game.Status.IsActive() {
			return true, nil
		}
	}

	return false, nil
}

func (that *dbGame) ListWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	ids, err := that.client.SMembers(ctx, gamesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games, err := that.getGames(ctx, ids)
	if err != nil {
		return nil, err
	}

	waiting := make([]*entity.Game, 0, len(games))
	for _, game := range games {
		if game.Status.IsWaiting() {
			waiting = append(waiting, game)
		}
	}

	slices.SortFunc(waiting, func(a, b *entity.Game) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return waiting, nil
}

// LockGameForUpdate - SET NX PX with a random token; retried until ctx is done.
func (that *dbGame) LockGameForUpdate(ctx context.Context, gameID string, fn func(tx GameTx, game *entity.Game) error) error {
	token := uuid.NewString()

	if err := that.acquire(ctx, gameID, token); err != nil {
		return err
	}

	defer func() {
		// released with a fresh context so a cancelled request still frees the lock
		_ = unlockScript.Run(context.WithoutCancel(ctx), that.client, []string{gameLockKey(gameID)}, token).Err()
	}()

	game, err := getGame(ctx, that.client, gameID)
	if err != nil {
		return err
	}

	tx := &redisGameTx{client: that.client, gameID: gameID, version: game.Version}
	if err = fn(tx, game); err != nil {
		return err
	}

	return tx.commit(ctx)
}

func (that *dbGame) acquire(ctx context.Context, gameID, token string) error {
	ticker := time.NewTicker(lockRetryPeriod)
	defer ticker.Stop()

	for {
		ok, err := that.client.SetNX(ctx, gameLockKey(gameID), token, that.lockTTL).Result()
		if err != nil {
			return fmt.Errorf("failed to lock game: %w", err)
		}

		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (that *dbGame) getGames(ctx context.Context, ids []string) ([]*entity.Game, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, gameKey(id))
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*entity.Game, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var game entity.Game
		if err = json.Unmarshal([]byte(raw), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}

		games = append(games, &game)
	}

	return games, nil
}

// redisGameTx - buffers writes and applies them in one MULTI on commit.
type redisGameTx struct {
	client  *redis.Client
	gameID  string
	version int64

	game  *entity.Game
	moves []entity.Move
}

func (that *redisGameTx) SaveGame(_ context.Context, game *entity.Game) error {
	if game.Version != that.version {
		return ErrVersionConflict
	}

	game.Version++
	that.version = game.Version

	saved := *game
	that.game = &saved

	return nil
}

func (that *redisGameTx) SaveMove(ctx context.Context, move *entity.Move) error {
	for _, pending := range that.moves {
		if pending.Cell == move.Cell {
			return ErrDuplicateMove
		}
	}

	exists, err := that.client.HExists(ctx, gameMovesKey(move.GameID), strconv.Itoa(move.Cell)).Result()
	if err != nil {
		return fmt.Errorf("failed to check move: %w", err)
	}

	if exists {
		return ErrDuplicateMove
	}

	that.moves = append(that.moves, *move)

	return nil
}

func (that *redisGameTx) MovesForGame(ctx context.Context, gameID string) ([]entity.Move, error) {
	moves, err := getMoves(ctx, that.client, gameID)
	if err != nil {
		return nil, err
	}

	if gameID == that.gameID {
		moves = append(moves, that.moves...)
	}

	return moves, nil
}

// commit - WATCH guards the game key; HSETNX keeps a cell from being written twice.
func (that *redisGameTx) commit(ctx context.Context) error {
	if that.game == nil && len(that.moves) == 0 {
		return nil
	}

	var gameJSON []byte
	if that.game != nil {
		var err error
		if gameJSON, err = json.Marshal(that.game); err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}
	}

	movesJSON := make(map[string][]byte, len(that.moves))
	for _, move := range that.moves {
		raw, err := json.Marshal(move)
		if err != nil {
			return fmt.Errorf("could not marshal move: %w", err)
		}
		movesJSON[strconv.Itoa(move.Cell)] = raw
	}

	err := that.client.Watch(ctx, func(rtx *redis.Tx) error {
		if that.game != nil {
			current, err := getGame(ctx, rtx, that.gameID)
			if err != nil {
				return err
			}

			if current.Version != that.game.Version-1 {
				return ErrVersionConflict
			}
		}

		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for cell, raw := range movesJSON {
				pipe.HSetNX(ctx, gameMovesKey(that.gameID), cell, raw)
			}

			if that.game != nil {
				pipe.Set(ctx, gameKey(that.gameID), gameJSON, 0)
				if that.game.HasOpponent() {
					pipe.SAdd(ctx, playerGamesKey(that.game.OpponentID), that.gameID)
				}
			}

			return nil
		})

		return err
	}, gameKey(that.gameID))
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}

	if err != nil {
		return fmt.Errorf("failed to commit game: %w", err)
	}

	return nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getGame(ctx context.Context, client stringGetter, id string) (*entity.Game, error) {
	response, err := client.Get(ctx, gameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	var existingGame entity.Game
	if err = json.Unmarshal([]byte(response), &existingGame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &existingGame, nil
}

func getMoves(ctx context.Context, client *redis.Client, gameID string) ([]entity.Move, error) {
	values, err := client.HGetAll(ctx, gameMovesKey(gameID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get moves for game: %w", err)
	}

	moves := make([]entity.Move, 0, len(values))
	for _, raw := range values {
		var move entity.Move
		if err = json.Unmarshal([]byte(raw), &move); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}

		moves = append(moves, move)
	}

	slices.SortFunc(moves, func(a, b entity.Move) int { return a.Cell - b.Cell })

	return moves, nil
}
