package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-arena/internal/config"
	"github.com/rocketscienceinc/tictactoe-arena/internal/notify"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository"
	"github.com/rocketscienceinc/tictactoe-arena/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-arena/internal/service"
	"github.com/rocketscienceinc/tictactoe-arena/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-arena/transport/rest"
	"github.com/rocketscienceinc/tictactoe-arena/transport/websocket"
)

type repositories struct {
	games   repository.GameRepository
	players repository.PlayerRepository
	close   func() error
}

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repos, err := openRepositories(ctx, log, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = repos.close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	hub := notify.NewHub(logger)

	playerService := service.NewPlayerService(logger, repos.players)
	gameService := service.NewGameService(logger, repos.games, hub)
	moveService := service.NewMoveService(logger, repos.games, repos.players, hub)
	botService := service.NewBotService(logger, conf.Bot.Name, playerService)

	if _, err = botService.EnsureBotPlayer(ctx); err != nil {
		return fmt.Errorf("could not register bot player: %w", err)
	}

	gameUseCase := usecase.NewGameUseCase(logger, playerService, gameService, moveService, botService)
	playerUseCase := usecase.NewPlayerUseCase(playerService)
	spectator := websocket.New(logger, moveService, hub)

	router := rest.NewRouter(logger, gameUseCase, playerUseCase, spectator.Handle)

	if err = rest.New(logger, conf.HTTP, router).Start(ctx); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// Migrate - creates or updates the relational schema.
func Migrate(ctx context.Context, conf *config.Config) error {
	if conf.Storage.Driver != config.DriverSQLite {
		return fmt.Errorf("%w: migrations only apply to %s", config.ErrInvalidDriver, config.DriverSQLite)
	}

	sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("could not open sqlite storage: %w", err)
	}
	defer sqliteStorage.Close()

	if err = repository.Migrate(ctx, sqliteStorage.Connection); err != nil {
		return fmt.Errorf("could not migrate sqlite storage: %w", err)
	}

	return nil
}

func openRepositories(ctx context.Context, log *slog.Logger, conf *config.Config) (*repositories, error) {
	switch conf.Storage.Driver {
	case config.DriverRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		log.Info("using redis storage", "addr", conf.Redis.GetRedisAddr())

		return &repositories{
			games:   repository.NewRedisGameRepository(redisStorage.Connection, conf.Redis.LockTTL),
			players: repository.NewRedisPlayerRepository(redisStorage.Connection),
			close:   redisStorage.Close,
		}, nil
	default:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = repository.Migrate(ctx, sqliteStorage.Connection); err != nil {
			_ = sqliteStorage.Close()
			return nil, fmt.Errorf("could not migrate sqlite storage: %w", err)
		}

		log.Info("using sqlite storage", "path", conf.Storage.SQLitePath)

		return &repositories{
			games:   repository.NewSQLGameRepository(sqliteStorage.Connection),
			players: repository.NewSQLPlayerRepository(sqliteStorage.Connection),
			close:   sqliteStorage.Close,
		}, nil
	}
}
