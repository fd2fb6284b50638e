package entity

import (
	"errors"
	"fmt"
	"time"
)

const BoardSize = 9

var ErrInvalidBoard = errors.New("invalid board")

// Board - cells indexed 0-8 in row-major order.
type Board [BoardSize]Mark

// Move - an immutable fact; the board of a game is the fold of all its moves.
type Move struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	PlayerID  string    `json:"player_id"`
	Cell      int       `json:"cell"`
	Mark      Mark      `json:"mark"`
	CreatedAt time.Time `json:"created_at"`
}

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < BoardSize
}

// Cells - external rendering of the board, nil for an empty cell.
func (that Board) Cells() []*string {
	out := make([]*string, 0, BoardSize)
	for _, mark := range that {
		if mark == MarkNone {
			out = append(out, nil)
			continue
		}

		s := string(mark)
		out = append(out, &s)
	}

	return out
}

// Rows - three human-readable rows "a | b | c", empty cells rendered as a space.
func (that Board) Rows() [3]string {
	var rows [3]string
	for r := range rows {
		rows[r] = fmt.Sprintf("%s | %s | %s", that.cellText(r*3), that.cellText(r*3+1), that.cellText(r*3+2))
	}

	return rows
}

func (that Board) cellText(i int) string {
	if that[i] == MarkNone {
		return " "
	}

	return string(that[i])
}

// String - compact form, "_" for an empty cell.
func (that Board) String() string {
	buf := make([]byte, 0, BoardSize)
	for _, mark := range that {
		if mark == MarkNone {
			buf = append(buf, '_')
			continue
		}

		buf = append(buf, mark[0])
	}

	return string(buf)
}

// ParseBoard - reads the compact form produced by String; "_", "-", "." and " " mean empty.
func ParseBoard(s string) (Board, error) {
	var board Board
	if len(s) != BoardSize {
		return board, fmt.Errorf("%w: want %d cells, got %d", ErrInvalidBoard, BoardSize, len(s))
	}

	for i := range len(s) {
		switch s[i] {
		case 'X', 'x':
			board[i] = MarkX
		case 'O', 'o':
			board[i] = MarkO
		case '_', '-', '.', ' ':
			board[i] = MarkNone
		default:
			return board, fmt.Errorf("%w: unexpected %q at %d", ErrInvalidBoard, s[i], i)
		}
	}

	return board, nil
}
