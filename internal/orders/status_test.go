package orders

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded, StatusExpired} {
		require.True(t, s.Valid(), "%s", s)
	}
	require.False(t, Status("shipped").Valid())
	require.False(t, Status("").Valid())
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusCompleted))
	require.True(t, CanTransition(StatusPending, StatusExpired))

	// Everything out of a non-pending status is rejected.
	for _, from := range []Status{StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded, StatusExpired} {
		for _, to := range []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled, StatusRefunded, StatusExpired} {
			require.False(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	require.False(t, CanTransition(StatusPending, StatusCancelled))
	require.False(t, CanTransition(StatusPending, StatusPending))
}
