package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-arena/internal/engine"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

const DefaultBotName = "AI_BOT"

type BotService interface {
	// EnsureBotPlayer - finds the bot participant by name, registering it on first use.
	EnsureBotPlayer(ctx context.Context) (*entity.Player, error)
	// ChooseMove - optimal cell for mark, false when the board is already decided.
	ChooseMove(board entity.Board, mark entity.Mark) (int, bool)
}

type botPlayers interface {
	GetOrCreateByName(ctx context.Context, name string) (*entity.Player, error)
}

type botService struct {
	logger  *slog.Logger
	name    string
	players botPlayers

	mu  sync.Mutex
	bot *entity.Player
}

func NewBotService(logger *slog.Logger, name string, players botPlayers) BotService {
	if name == "" {
		name = DefaultBotName
	}

	return &botService{
		logger:  logger.With("component", "bot_service"),
		name:    name,
		players: players,
	}
}

func (that *botService) EnsureBotPlayer(ctx context.Context) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.bot != nil {
		return that.bot, nil
	}

	bot, err := that.players.GetOrCreateByName(ctx, that.name)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure bot player: %w", err)
	}

	that.bot = bot
	that.logger.Info("bot player ready", "player_id", bot.ID, "name", bot.Name)

	return bot, nil
}

func (that *botService) ChooseMove(board entity.Board, mark entity.Mark) (int, bool) {
	start := time.Now()
	cell, ok := engine.BestMove(board, mark)
	botSearchSeconds.Observe(time.Since(start).Seconds())

	that.logger.Debug("bot chose move", "board", board.String(), "mark", mark, "cell", cell, "ok", ok)

	return cell, ok
}
