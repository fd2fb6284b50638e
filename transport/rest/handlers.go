package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/service"
	"github.com/rocketscienceinc/tictactoe-arena/internal/usecase"
)

type gameUseCase interface {
	CreateGame(ctx context.Context, initiatorID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	ListWaitingGames(ctx context.Context) ([]*entity.Game, error)

	ApplyMove(ctx context.Context, gameID, playerID string, cell int) (*service.GameView, error)
	ViewGame(ctx context.Context, gameID string) (*service.GameView, error)

	CreateGameVsBot(ctx context.Context, humanID string, humanPlaysFirst bool) (*usecase.BotMoveView, error)
	PlayMoveVsBot(ctx context.Context, gameID, playerID string, cell int) (*usecase.BotMoveView, error)
}

type playerUseCase interface {
	Register(ctx context.Context, name string) (*entity.Player, error)
	List(ctx context.Context) ([]*entity.Player, error)
}

type registerRequest struct {
	Name string `json:"name"`
}

type createGameRequest struct {
	InitiatorID string `json:"initiator_id"`
}

type joinGameRequest struct {
	PlayerID string `json:"player_id"`
}

type moveRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Cell     *int   `json:"cell"`
}

// gameSummary - create and join responses.
type gameSummary struct {
	ID          string        `json:"id"`
	Status      entity.Status `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	InitiatorID string        `json:"initiator_id"`
	OpponentID  *string       `json:"opponent_id"`
}

func newGameSummary(game *entity.Game) gameSummary {
	summary := gameSummary{
		ID:          game.ID,
		Status:      game.Status,
		CreatedAt:   game.CreatedAt,
		InitiatorID: game.CreatorID,
	}

	if game.HasOpponent() {
		opponentID := game.OpponentID
		summary.OpponentID = &opponentID
	}

	return summary
}

type handlers struct {
	games   gameUseCase
	players playerUseCase
}

func (that *handlers) registerPlayer(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	player, err := that.players.Register(c.Request.Context(), req.Name)
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, player)
}

func (that *handlers) listPlayers(c *gin.Context) {
	players, err := that.players.List(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, players)
}

func (that *handlers) createGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req) {
		return
	}

	game, err := that.games.CreateGame(c.Request.Context(), req.InitiatorID)
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGameSummary(game))
}

func (that *handlers) listAvailableGames(c *gin.Context) {
	games, err := that.games.ListWaitingGames(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}

	out := make([]gameSummary, 0, len(games))
	for _, game := range games {
		out = append(out, newGameSummary(game))
	}

	c.JSON(http.StatusOK, out)
}

func (that *handlers) joinGame(c *gin.Context) {
	var req joinGameRequest
	if !bindJSON(c, &req) {
		return
	}

	game, err := that.games.JoinGame(c.Request.Context(), c.Param("id"), req.PlayerID)
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, newGameSummary(game))
}

func (that *handlers) applyMove(c *gin.Context) {
	var req moveRequest
	if !bindMove(c, &req) {
		return
	}

	view, err := that.games.ApplyMove(c.Request.Context(), c.Param("id"), req.PlayerID, *req.Cell)
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) viewGame(c *gin.Context) {
	view, err := that.games.ViewGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (that *handlers) createBotGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req) {
		return
	}

	humanFirst := true
	if raw := c.Query("plays_first"); raw != "" {
		var err error
		if humanFirst, err = strconv.ParseBool(raw); err != nil {
			fail(c, http.StatusBadRequest, apperror.KindInvalidArgument.String(), "plays_first must be a boolean")
			return
		}
	}

	view, err := that.games.CreateGameVsBot(c.Request.Context(), req.InitiatorID, humanFirst)
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (that *handlers) playBotMove(c *gin.Context) {
	var req moveRequest
	if !bindMove(c, &req) {
		return
	}

	view, err := that.games.PlayMoveVsBot(c.Request.Context(), req.GameID, req.PlayerID, *req.Cell)
	if err != nil {
		failWith(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, http.StatusBadRequest, apperror.KindInvalidArgument.String(), "malformed request body")
		return false
	}

	return true
}

// bindMove - cell must be present and on the board; ids are checked by the core.
func bindMove(c *gin.Context, req *moveRequest) bool {
	if !bindJSON(c, req) {
		return false
	}

	if req.Cell == nil || !entity.IsValidCell(*req.Cell) {
		failWith(c, apperror.ErrInvalidCell)
		return false
	}

	return true
}
