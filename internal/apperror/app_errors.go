package apperror

import "errors"

// Kind - category of a failure, used by transports to pick a response code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalidArgument
	KindAlreadyActive
)

func (that Kind) String() string {
	switch that {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindAlreadyActive:
		return "already_active"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	msg  string
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg}
}

func (that *Error) Error() string {
	return that.msg
}

// KindOf - kind of the first *Error in the chain, KindInternal for anything else.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return KindInternal
}

var (
	ErrGameNotFound   = New(KindNotFound, "game not found")
	ErrPlayerNotFound = New(KindNotFound, "player not found")

	ErrNotParticipant = New(KindForbidden, "player is not a participant of the game")
	ErrNotYourTurn    = New(KindForbidden, "it's not your turn")
	ErrPlaysForBot    = New(KindForbidden, "moves for the bot are chosen by the server")

	ErrGameIsNotStarted = New(KindConflict, "game is not started")
	ErrGameFinished     = New(KindConflict, "game is already finished")
	ErrCellOccupied     = New(KindConflict, "cell is already occupied")
	ErrGameHasOpponent  = New(KindConflict, "game already has an opponent")
	ErrGameNotJoinable  = New(KindConflict, "game is not waiting for an opponent")

	ErrJoinOwnGame  = New(KindInvalidArgument, "can't join your own game")
	ErrInvalidCell  = New(KindInvalidArgument, "cell must be between 0 and 8")
	ErrMissingID    = New(KindInvalidArgument, "id is required")
	ErrEmptyName    = New(KindInvalidArgument, "name is required")
	ErrInvalidBoard = New(KindInvalidArgument, "invalid board")
	ErrNotBotGame   = New(KindInvalidArgument, "game is not played against the bot")
	ErrBotAsHuman   = New(KindInvalidArgument, "the bot can't be the human player")

	ErrAlreadyInGame = New(KindAlreadyActive, "player already has an active game")
)
