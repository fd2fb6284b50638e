// Package engine picks moves for the automated opponent by exhaustive minimax.
//
// A 3x3 board has at most 9 empty cells, so the full game tree is searched
// without pruning or depth limits. Every recursive call works on its own copy
// of the board, so concurrent callers never observe each other's simulation.
package engine

import (
	"math"

	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arena/internal/tictactoe"
)

const (
	WinScore  = 1_000_000_000
	LossScore = -1_000_000_000
	DrawScore = 0
)

// BestMove - returns the optimal cell for mark, or false when the board is already
// decided (a win for either side or a full board). Equally scored cells resolve to the lowest index.
func BestMove(board entity.Board, mark entity.Mark) (int, bool) {
	if !mark.IsValid() {
		return -1, false
	}

	opponent := mark.Opponent()
	if tictactoe.HasWon(board, mark) || tictactoe.HasWon(board, opponent) || tictactoe.IsFull(board) {
		return -1, false
	}

	bestScore := math.MinInt
	bestCell := -1

	for cell := range board {
		if board[cell] != entity.MarkNone {
			continue
		}

		next := board
		next[cell] = mark

		if score := minimax(next, false, mark, opponent); score > bestScore {
			bestScore = score
			bestCell = cell
		}
	}

	return bestCell, bestCell != -1
}

// Score - minimax value of board for maximizer when toMove is about to play.
func Score(board entity.Board, maximizer, toMove entity.Mark) int {
	return minimax(board, toMove == maximizer, maximizer, maximizer.Opponent())
}

func minimax(board entity.Board, maximizing bool, maxMark, minMark entity.Mark) int {
	switch {
	case tictactoe.HasWon(board, maxMark):
		return WinScore
	case tictactoe.HasWon(board, minMark):
		return LossScore
	case tictactoe.IsFull(board):
		return DrawScore
	}

	current := minMark
	best := math.MaxInt
	if maximizing {
		current = maxMark
		best = math.MinInt
	}

	for cell := range board {
		if board[cell] != entity.MarkNone {
			continue
		}

		next := board
		next[cell] = current

		score := minimax(next, !maximizing, maxMark, minMark)
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}

	return best
}
