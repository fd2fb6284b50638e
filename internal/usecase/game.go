package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/service"
)

// NoBotMove - bot_move value when the bot did not play.
const NoBotMove = -1

// BotMoveView - game view after a human-vs-bot exchange.
type BotMoveView struct {
	*service.GameView
	BotMove int `json:"bot_move"`
}

type GameUseCase interface {
	CreateGame(ctx context.Context, initiatorID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	ListWaitingGames(ctx context.Context) ([]*entity.Game, error)

	ApplyMove(ctx context.Context, gameID, playerID string, cell int) (*service.GameView, error)
	ViewGame(ctx context.Context, gameID string) (*service.GameView, error)

	CreateGameVsBot(ctx context.Context, humanID string, humanPlaysFirst bool) (*BotMoveView, error)
	PlayMoveVsBot(ctx context.Context, gameID, playerID string, cell int) (*BotMoveView, error)
}

type playerService interface {
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameService interface {
	CreateGame(ctx context.Context, creatorID, opponentID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	GetGameByID(ctx context.Context, id string) (*entity.Game, error)
	HasActiveGame(ctx context.Context, playerID string) (bool, error)
	ListWaitingGames(ctx context.Context) ([]*entity.Game, error)
}

type moveService interface {
	ApplyMove(ctx context.Context, gameID, playerID string, cell int) (*service.GameView, error)
	ViewGame(ctx context.Context, gameID string) (*service.GameView, error)
}

type botService interface {
	EnsureBotPlayer(ctx context.Context) (*entity.Player, error)
	ChooseMove(board entity.Board, mark entity.Mark) (int, bool)
}

type gameUseCase struct {
	logger *slog.Logger

	playerService playerService
	gameService   gameService
	moveService   moveService
	botService    botService
}

func NewGameUseCase(logger *slog.Logger, playerService playerService, gameService gameService, moveService moveService, botService botService) GameUseCase {
	return &gameUseCase{
		logger:        logger.With("component", "game_usecase"),
		playerService: playerService,
		gameService:   gameService,
		moveService:   moveService,
		botService:    botService,
	}
}

func (that *gameUseCase) CreateGame(ctx context.Context, initiatorID string) (*entity.Game, error) {
	if err := that.checkCanStart(ctx, initiatorID); err != nil {
		return nil, err
	}

	game, err := that.gameService.CreateGame(ctx, initiatorID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	if gameID == "" {
		return nil, apperror.ErrMissingID
	}

	target, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	// the creator is always busy with their own waiting game
	if target.CreatorID == playerID {
		return nil, apperror.ErrJoinOwnGame
	}

	if err = that.checkCanStart(ctx, playerID); err != nil {
		return nil, err
	}

	game, err := that.gameService.JoinGame(ctx, gameID, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) ListWaitingGames(ctx context.Context) ([]*entity.Game, error) {
	games, err := that.gameService.ListWaitingGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting games: %w", err)
	}

	return games, nil
}

func (that *gameUseCase) ApplyMove(ctx context.Context, gameID, playerID string, cell int) (*service.GameView, error) {
	view, err := that.moveService.ApplyMove(ctx, gameID, playerID, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	return view, nil
}

func (that *gameUseCase) ViewGame(ctx context.Context, gameID string) (*service.GameView, error) {
	view, err := that.moveService.ViewGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to view game: %w", err)
	}

	return view, nil
}

// CreateGameVsBot - X always moves first; when the bot holds X it plays its opening before returning.
func (that *gameUseCase) CreateGameVsBot(ctx context.Context, humanID string, humanPlaysFirst bool) (*BotMoveView, error) {
	log := that.logger.With("method", "CreateGameVsBot", "player_id", humanID, "human_first", humanPlaysFirst)

	if err := that.checkCanStart(ctx, humanID); err != nil {
		return nil, err
	}

	bot, err := that.botService.EnsureBotPlayer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}

	if bot.ID == humanID {
		return nil, apperror.ErrBotAsHuman
	}

	creatorID, opponentID := bot.ID, humanID
	if humanPlaysFirst {
		creatorID, opponentID = humanID, bot.ID
	}

	game, err := that.gameService.CreateGame(ctx, creatorID, opponentID)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	log = log.With("game_id", game.ID)

	if humanPlaysFirst {
		log.Info("bot game created, human to move")
		return &BotMoveView{GameView: service.NewGameView(game, entity.Board{}, ""), BotMove: NoBotMove}, nil
	}

	cell, ok := that.botService.ChooseMove(entity.Board{}, entity.MarkX)
	if !ok {
		return &BotMoveView{GameView: service.NewGameView(game, entity.Board{}, ""), BotMove: NoBotMove}, nil
	}

	view, err := that.moveService.ApplyMove(ctx, game.ID, bot.ID, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to apply bot opening: %w", err)
	}

	log.Info("bot game created, bot opened", "cell", cell)

	return &BotMoveView{GameView: view, BotMove: cell}, nil
}

// PlayMoveVsBot - applies the human move and, while the game is still running, the bot's reply.
func (that *gameUseCase) PlayMoveVsBot(ctx context.Context, gameID, playerID string, cell int) (*BotMoveView, error) {
	bot, err := that.botService.EnsureBotPlayer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot: %w", err)
	}

	if playerID != "" && playerID == bot.ID {
		return nil, apperror.ErrPlaysForBot
	}

	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	botMark, ok := game.MarkOf(bot.ID)
	if !ok {
		return nil, apperror.ErrNotBotGame
	}

	afterHuman, err := that.moveService.ApplyMove(ctx, gameID, playerID, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	if !afterHuman.Status.IsOngoing() || afterHuman.Status.Turn != botMark {
		return &BotMoveView{GameView: afterHuman, BotMove: NoBotMove}, nil
	}

	botCell, ok := that.botService.ChooseMove(afterHuman.Board, botMark)
	if !ok {
		return &BotMoveView{GameView: afterHuman, BotMove: NoBotMove}, nil
	}

	afterBot, err := that.moveService.ApplyMove(ctx, gameID, bot.ID, botCell)
	if err != nil {
		return nil, fmt.Errorf("failed to apply bot move: %w", err)
	}

	return &BotMoveView{GameView: afterBot, BotMove: botCell}, nil
}

// checkCanStart - the player must exist and must not be in another active game.
func (that *gameUseCase) checkCanStart(ctx context.Context, playerID string) error {
	if playerID == "" {
		return apperror.ErrMissingID
	}

	active, err := that.gameService.HasActiveGame(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to check active games: %w", err)
	}

	if active {
		return apperror.ErrAlreadyInGame
	}

	if _, err = that.playerService.GetByID(ctx, playerID); err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}

	return nil
}
