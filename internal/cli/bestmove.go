package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rocketscienceinc/tictactoe-arena/internal/engine"
	"github.com/rocketscienceinc/tictactoe-arena/internal/entity"
)

func newBestMoveCmd() *cobra.Command {
	var mark string

	cmd := &cobra.Command{
		Use:   "bestmove <board>",
		Short: "Print the optimal cell for a position",
		Long: `Prints the cell (0-8) the engine would play on the given board.

The board is nine characters in row-major order: X, O and "_" for an empty cell.`,
		Example: "  arena bestmove XX_OO____ --mark X",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := entity.ParseBoard(args[0])
			if err != nil {
				return err
			}

			m := entity.Mark(mark)
			if !m.IsValid() {
				return fmt.Errorf("%w: mark must be X or O, got %q", entity.ErrInvalidBoard, mark)
			}

			cell, ok := engine.BestMove(board, m)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "position is already decided")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cell)

			return nil
		},
	}

	cmd.Flags().StringVar(&mark, "mark", string(entity.MarkX), "side to move, X or O")

	return cmd
}
