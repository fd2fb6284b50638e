package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

// WinCombos - scanned in this order; the first complete line decides the winner.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Winner - returns the mark occupying a complete line, or MarkNone.
func Winner(board entity.Board) entity.Mark {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.MarkNone && a == b && b == c {
			return a
		}
	}

	return entity.MarkNone
}

// HasWon - reports whether mark occupies any complete line.
func HasWon(board entity.Board, mark entity.Mark) bool {
	for _, combo := range WinCombos {
		if board[combo[0]] == mark && board[combo[1]] == mark && board[combo[2]] == mark {
			return true
		}
	}

	return false
}

func IsFull(board entity.Board) bool {
	for _, cell := range board {
		if cell == entity.MarkNone {
			return false
		}
	}

	return true
}

func IsDraw(board entity.Board) bool {
	return IsFull(board) && Winner(board) == entity.MarkNone
}

// IsTerminal - a win for either side or a full board.
func IsTerminal(board entity.Board) bool {
	return Winner(board) != entity.MarkNone || IsFull(board)
}

// Replay - folds recorded moves onto an empty board. Order is irrelevant since each cell appears at most once.
func Replay(moves []entity.Move) entity.Board {
	var board entity.Board
	for _, move := range moves {
		if entity.IsValidCell(move.Cell) {
			board[move.Cell] = move.Mark
		}
	}

	return board
}

// NextStatus - status after mover placed a mark on board.
func NextStatus(board entity.Board, mover entity.Mark) entity.Status {
	switch winner := Winner(board); {
	case winner != entity.MarkNone:
		return entity.WonBy(winner)
	case IsFull(board):
		return entity.StatusDraw
	default:
		return entity.TurnOf(mover.Opponent())
	}
}
