package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-arena/internal/apperror"
)

func TestPlayerUseCase(t *testing.T) {
	t.Run("Register and list", func(t *testing.T) {
		// Given: A player use case over a fresh store
		f := newFixture(t)
		useCase := NewPlayerUseCase(f.players)

		// When: Two players register
		alice, err := useCase.Register(f.ctx, "alice")
		require.NoError(t, err)
		_, err = useCase.Register(f.ctx, "bob")
		require.NoError(t, err)

		// Then: Both are listed
		players, err := useCase.List(f.ctx)
		require.NoError(t, err)
		require.Len(t, players, 2)
		assert.Contains(t, []string{players[0].ID, players[1].ID}, alice.ID)
	})

	t.Run("Blank name is invalid", func(t *testing.T) {
		f := newFixture(t)

		_, err := NewPlayerUseCase(f.players).Register(f.ctx, "")

		require.ErrorIs(t, err, apperror.ErrEmptyName)
	})
}
