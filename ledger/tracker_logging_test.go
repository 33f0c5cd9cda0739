package ledger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	adapter "github.com/raykavin/finsim/logger/zerolog"
)

func TestBalanceTracker_TracesMutations(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.DebugLevel)
	tracker := NewBalanceTracker(WithLogger(adapter.NewAdapter(&zl)))

	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)
	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("60"), "order-1", LockHard))
	require.NoError(t, err)
	require.NoError(t, tracker.RemoveBalance(usdt, d("10"), "withdraw", BalanceAvailable))
	require.NoError(t, tracker.ReleaseLockedBalance(usdt, "order-1", d("60")))

	logged := buf.String()
	require.Contains(t, logged, "balance add")
	require.Contains(t, logged, "balance remove")
	require.Contains(t, logged, "lock created")
	require.Contains(t, logged, "lock released")
}

func TestBalanceTracker_SilentWithoutLogger(t *testing.T) {
	tracker := NewBalanceTracker()

	// the debug path is a no-op when no logger is attached
	require.NotPanics(t, func() {
		tracker.AddBalance(currency("USDT"), d("100"), "deposit", BalanceAvailable)
	})
}
