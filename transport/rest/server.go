package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-arena/internal/config"
)

const shutdownTimeout = 10 * time.Second

// NewRouter - all HTTP routes; spectate serves the websocket upgrade for /ws/games/:id.
func NewRouter(logger *slog.Logger, games gameUseCase, players playerUseCase, spectate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(requestID(), accessLog(logger.With("component", "http")), recovery(), metrics())

	router.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, codeNotFound, "route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		fail(c, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	h := &handlers{games: games, players: players}

	router.GET("/ping", pingHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/players", h.registerPlayer)
	router.GET("/players", h.listPlayers)

	router.POST("/games", h.createGame)
	router.GET("/games/available", h.listAvailableGames)
	router.GET("/games/:id", h.viewGame)
	router.POST("/games/:id/join", h.joinGame)
	router.POST("/games/:id/moves", h.applyMove)

	router.POST("/games/bot", h.createBotGame)
	router.POST("/games/bot/moves", h.playBotMove)

	if spectate != nil {
		router.GET("/ws/games/:id", spectate)
	}

	return router
}

type Server struct {
	logger *slog.Logger
	srv    *http.Server
}

func New(logger *slog.Logger, conf config.HTTP, handler http.Handler) *Server {
	return &Server{
		logger: logger.With("component", "http_server"),
		srv: &http.Server{
			Addr:         ":" + conf.Port,
			Handler:      handler,
			ReadTimeout:  conf.ReadTimeout,
			WriteTimeout: conf.WriteTimeout,
			IdleTimeout:  conf.IdleTimeout,
		},
	}
}

// Start - serves until ctx is canceled, then drains in-flight requests.
func (that *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		that.logger.Info("Starting HTTP server", "addr", that.srv.Addr)
		if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	that.logger.Info("Shutting down HTTP server")
	if err := that.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
