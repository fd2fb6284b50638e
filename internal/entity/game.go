package entity

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

type Mark string

const (
	MarkNone Mark = ""
	MarkX    Mark = "X"
	MarkO    Mark = "O"
)

// Opponent - returns the mark that plays against this one.
func (that Mark) Opponent() Mark {
	switch that {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkNone
	}
}

func (that Mark) IsValid() bool {
	return that == MarkX || that == MarkO
}

type Phase uint8

const (
	PhaseWaiting Phase = iota
	PhaseOngoing
	PhaseFinished
)

const (
	statusWaiting = "WAITING_FOR_OPPONENT"
	statusXTurn   = "PLAYER_X_TURN"
	statusOTurn   = "PLAYER_O_TURN"
	statusXWon    = "X_WON"
	statusOWon    = "O_WON"
	statusDraw    = "DRAW"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Status - game lifecycle state. Turn is set only while the game is ongoing,
// Winner only when it finished with a winning line (a finished game without a winner is a draw).
type Status struct {
	Phase  Phase
	Turn   Mark
	Winner Mark
}

var (
	StatusWaiting = Status{Phase: PhaseWaiting}
	StatusDraw    = Status{Phase: PhaseFinished}
)

func TurnOf(mark Mark) Status {
	return Status{Phase: PhaseOngoing, Turn: mark}
}

func WonBy(mark Mark) Status {
	return Status{Phase: PhaseFinished, Winner: mark}
}

// ActiveStatuses - statuses that count toward the one-active-game-per-player rule.
func ActiveStatuses() []Status {
	return []Status{StatusWaiting, TurnOf(MarkX), TurnOf(MarkO)}
}

func (that Status) IsWaiting() bool {
	return that.Phase == PhaseWaiting
}

func (that Status) IsOngoing() bool {
	return that.Phase == PhaseOngoing
}

func (that Status) IsFinished() bool {
	return that.Phase == PhaseFinished
}

func (that Status) IsActive() bool {
	return that.Phase != PhaseFinished
}

func (that Status) IsDraw() bool {
	return that.Phase == PhaseFinished && that.Winner == MarkNone
}

func (that Status) String() string {
	switch {
	case that == StatusWaiting:
		return statusWaiting
	case that == TurnOf(MarkX):
		return statusXTurn
	case that == TurnOf(MarkO):
		return statusOTurn
	case that == WonBy(MarkX):
		return statusXWon
	case that == WonBy(MarkO):
		return statusOWon
	case that == StatusDraw:
		return statusDraw
	default:
		return fmt.Sprintf("Status(%d,%q,%q)", that.Phase, that.Turn, that.Winner)
	}
}

func ParseStatus(s string) (Status, error) {
	switch s {
	case statusWaiting:
		return StatusWaiting, nil
	case statusXTurn:
		return TurnOf(MarkX), nil
	case statusOTurn:
		return TurnOf(MarkO), nil
	case statusXWon:
		return WonBy(MarkX), nil
	case statusOWon:
		return WonBy(MarkO), nil
	case statusDraw:
		return StatusDraw, nil
	default:
		return Status{}, fmt.Errorf("%w: %s", ErrUnknownGameStatus, s)
	}
}

func (that Status) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}

	*that = status

	return nil
}

// Value - stores the status by its external name.
func (that Status) Value() (driver.Value, error) {
	return that.String(), nil
}

func (that *Status) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return that.UnmarshalText([]byte(v))
	case []byte:
		return that.UnmarshalText(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrUnknownGameStatus, src)
	}
}

type Game struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	CreatorID  string    `json:"initiator_id"`
	OpponentID string    `json:"opponent_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Version    int64     `json:"version"`
}

func NewGame(id, creatorID string, createdAt time.Time) *Game {
	return &Game{
		ID:        id,
		Status:    StatusWaiting,
		CreatorID: creatorID,
		CreatedAt: createdAt,
	}
}

func (that *Game) HasOpponent() bool {
	return that.OpponentID != ""
}

func (that *Game) IsParticipant(playerID string) bool {
	return playerID != "" && (playerID == that.CreatorID || playerID == that.OpponentID)
}

// MarkOf - the creator always plays X, the opponent O.
func (that *Game) MarkOf(playerID string) (Mark, bool) {
	switch {
	case playerID == "":
		return MarkNone, false
	case playerID == that.CreatorID:
		return MarkX, true
	case playerID == that.OpponentID:
		return MarkO, true
	default:
		return MarkNone, false
	}
}

func (that *Game) PlayerOf(mark Mark) string {
	switch mark {
	case MarkX:
		return that.CreatorID
	case MarkO:
		return that.OpponentID
	default:
		return ""
	}
}
