package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalid(t *testing.T) {
	err := Invalid("nb_days must be > 0, got %d", 0)
	require.True(t, errors.Is(err, ErrInvalidArgument))
	require.Equal(t, "invalid argument: nb_days must be > 0, got 0", err.Error())
}
