package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Wrapped sentinel keeps its kind", func(t *testing.T) {
		// Given: a sentinel wrapped twice
		err := fmt.Errorf("failed to apply move: %w", fmt.Errorf("lock: %w", ErrCellOccupied))

		// Then: the kind is still Conflict and errors.Is matches
		assert.Equal(t, KindConflict, KindOf(err))
		assert.ErrorIs(t, err, ErrCellOccupied)
	})

	t.Run("Plain errors are internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
		assert.Equal(t, KindInternal, KindOf(nil))
	})

	t.Run("Every sentinel has the expected kind", func(t *testing.T) {
		cases := map[error]Kind{
			ErrGameNotFound:     KindNotFound,
			ErrPlayerNotFound:   KindNotFound,
			ErrNotParticipant:   KindForbidden,
			ErrNotYourTurn:      KindForbidden,
			ErrGameIsNotStarted: KindConflict,
			ErrGameFinished:     KindConflict,
			ErrGameHasOpponent:  KindConflict,
			ErrGameNotJoinable:  KindConflict,
			ErrJoinOwnGame:      KindInvalidArgument,
			ErrInvalidCell:      KindInvalidArgument,
			ErrMissingID:        KindInvalidArgument,
			ErrEmptyName:        KindInvalidArgument,
			ErrAlreadyInGame:    KindAlreadyActive,
		}

		for err, kind := range cases {
			assert.Equal(t, kind, KindOf(err), err.Error())
		}
	})
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "already_active", KindAlreadyActive.String())
	assert.Equal(t, "internal", Kind(99).String())
}
