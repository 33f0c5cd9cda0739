package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/finsim/core"
)

func TestBalanceTracker_AddAndRemoveBalance(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")

	tracker.AddBalance(usdt, d("100"), "deposit", BalanceTotal)
	require.True(t, d("100").Equal(tracker.GetBalance(usdt, BalanceTotal)))
	require.True(t, tracker.GetBalance(usdt, BalanceAvailable).IsZero())

	require.NoError(t, tracker.RemoveBalance(usdt, d("40"), "withdraw", BalanceTotal))
	require.True(t, d("60").Equal(tracker.GetBalance(usdt, BalanceTotal)))

	// draining the balance prunes the entry entirely
	require.NoError(t, tracker.RemoveBalance(usdt, d("60"), "withdraw", BalanceTotal))
	require.NotContains(t, tracker.TotalBalances(), usdt)
}

func TestBalanceTracker_RemoveBalanceFailures(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")

	require.ErrorIs(t, tracker.RemoveBalance(usdt, d("1"), "withdraw", BalanceTotal), ErrAssetNotFound)

	tracker.AddBalance(usdt, d("10"), "deposit", BalanceTotal)
	require.ErrorIs(t, tracker.RemoveBalance(usdt, d("11"), "withdraw", BalanceTotal), ErrInsufficientBalance)
	require.True(t, d("10").Equal(tracker.GetBalance(usdt, BalanceTotal)))
}

func TestBalanceTracker_SetBalance(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")

	change, err := tracker.SetBalance(usdt, d("100"), "snapshot", BalanceAvailable)
	require.NoError(t, err)
	require.True(t, d("100").Equal(change.Amount))
	require.Equal(t, UpdateSnapshot, change.UpdateType)

	// the recorded delta is relative to the previous balance
	change, err = tracker.SetBalance(usdt, d("70"), "snapshot", BalanceAvailable)
	require.NoError(t, err)
	require.True(t, d("-30").Equal(change.Amount))

	_, err = tracker.SetBalance(usdt, d("-1"), "snapshot", BalanceAvailable)
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestBalanceTracker_SetBalancesCompleteSnapshot(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt, btc := currency("USDT"), currency("BTC")

	tracker.AddBalance(usdt, d("100"), "deposit", BalanceTotal)
	tracker.AddBalance(btc, d("2"), "deposit", BalanceTotal)

	entries := []BalanceEntry{{Asset: usdt, Amount: d("80")}}
	changes, err := tracker.SetBalances(entries, "exchange report", BalanceTotal, true)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	require.True(t, d("80").Equal(tracker.GetBalance(usdt, BalanceTotal)))
	require.True(t, tracker.GetBalance(btc, BalanceTotal).IsZero())
}

func TestBalanceTracker_SetBalancesPartial(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt, btc := currency("USDT"), currency("BTC")

	tracker.AddBalance(btc, d("2"), "deposit", BalanceTotal)

	entries := []BalanceEntry{{Asset: usdt, Amount: d("80")}}
	_, err := tracker.SetBalances(entries, "exchange report", BalanceTotal, false)
	require.NoError(t, err)

	// assets absent from a partial report are left untouched
	require.True(t, d("2").Equal(tracker.GetBalance(btc, BalanceTotal)))
}

func TestBalanceTracker_History(t *testing.T) {
	tracker := NewBalanceTracker(WithHistory())
	usdt := currency("USDT")

	tracker.AddBalance(usdt, d("100"), "deposit", BalanceTotal)
	require.NoError(t, tracker.RemoveBalance(usdt, d("30"), "withdraw", BalanceTotal))

	history := tracker.BalanceHistory()
	require.Len(t, history, 2)
	require.True(t, d("100").Equal(history[0].Amount))
	require.True(t, d("-30").Equal(history[1].Amount))
	require.Equal(t, UpdateDifferential, history[0].UpdateType)
	require.Equal(t, "withdraw", history[1].Reason)

	tracker.ClearBalanceHistory()
	require.Empty(t, tracker.BalanceHistory())
}

func TestBalanceTracker_HistoryDisabledByDefault(t *testing.T) {
	tracker := NewBalanceTracker()
	tracker.AddBalance(currency("USDT"), d("100"), "deposit", BalanceTotal)
	require.Empty(t, tracker.BalanceHistory())
}

func TestBalanceTracker_LockBalance(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("60"), "order-1", LockHard))
	require.NoError(t, err)

	require.True(t, d("60").Equal(tracker.GetLockedBalance(usdt, "order-1")))
	require.True(t, d("40").Equal(tracker.GetUnlockedBalance(usdt)))
	require.True(t, d("100").Equal(tracker.GetAvailableBalance(usdt, "order-1")))
	require.True(t, d("40").Equal(tracker.GetAvailableBalance(usdt, "order-2")))
}

func TestBalanceTracker_LockBalanceMergesSamePurpose(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("60"), "order-1", LockHard))
	require.NoError(t, err)
	merged, err := tracker.LockBalance(NewBalanceLock(usdt, d("20"), "order-1", LockHard))
	require.NoError(t, err)

	require.True(t, d("80").Equal(merged.Amount()))
	require.True(t, d("80").Equal(tracker.GetLockedBalance(usdt, "order-1")))
}

func TestBalanceTracker_LockBalanceInsufficient(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("150"), "order-1", LockHard))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Empty(t, tracker.Locks())
}

func TestBalanceTracker_LockAdmissionIsPerLock(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("2"), "deposit", BalanceAvailable)

	// each lock is admitted against the available balance on its own;
	// the sum of reservations may exceed it
	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("1.5"), "order-1", LockHard))
	require.NoError(t, err)
	_, err = tracker.LockBalance(NewBalanceLock(usdt, d("1.0"), "order-2", LockHard))
	require.NoError(t, err)

	require.True(t, d("1.5").Equal(tracker.GetLockedBalance(usdt, "order-1")))
	require.True(t, d("1.0").Equal(tracker.GetLockedBalance(usdt, "order-2")))
	require.True(t, d("-0.5").Equal(tracker.GetUnlockedBalance(usdt)))

	// a lock larger than the available balance still fails outright
	_, err = tracker.LockBalance(NewBalanceLock(usdt, d("2.5"), "order-3", LockHard))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestBalanceTracker_ReleaseLockedBalance(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("60"), "order-1", LockHard))
	require.NoError(t, err)

	require.NoError(t, tracker.ReleaseLockedBalance(usdt, "order-1", d("20")))
	require.True(t, d("40").Equal(tracker.GetLockedBalance(usdt, "order-1")))

	// a fully released lock is pruned from the table
	require.NoError(t, tracker.ReleaseLockedBalance(usdt, "order-1", d("40")))
	require.Empty(t, tracker.Locks())
	require.ErrorIs(t, tracker.ReleaseLockedBalance(usdt, "order-1", d("1")), ErrLockNotFound)
}

func TestBalanceTracker_ReleaseAllLockedBalances(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("60"), "order-1", LockHard))
	require.NoError(t, err)
	_, err = tracker.LockBalance(NewBalanceLock(usdt, d("30"), "order-2", LockHard))
	require.NoError(t, err)

	require.NoError(t, tracker.ReleaseAllLockedBalances(usdt))
	require.Empty(t, tracker.Locks())
	require.True(t, d("100").Equal(tracker.GetUnlockedBalance(usdt)))
}

func TestBalanceTracker_LockMultipleBalancesRollback(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt, btc := currency("USDT"), currency("BTC")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)
	tracker.AddBalance(btc, d("1"), "deposit", BalanceAvailable)

	locks := []Lock{
		NewBalanceLock(usdt, d("80"), "order-1", LockHard),
		NewBalanceLock(btc, d("2"), "order-1", LockHard),
	}

	_, err := tracker.LockMultipleBalances(locks)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// the failed batch must leave no partial reservation behind
	require.True(t, tracker.GetLockedBalance(usdt, "order-1").IsZero())
	require.True(t, tracker.GetLockedBalance(btc, "order-1").IsZero())
	require.Empty(t, tracker.Locks())
}

func TestBalanceTracker_LockMultipleBalances(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt, btc := currency("USDT"), currency("BTC")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)
	tracker.AddBalance(btc, d("1"), "deposit", BalanceAvailable)

	locks := []Lock{
		NewBalanceLock(usdt, d("80"), "order-1", LockHard),
		NewBalanceLock(btc, d("1"), "order-1", LockHard),
	}

	acquired, err := tracker.LockMultipleBalances(locks)
	require.NoError(t, err)
	require.Len(t, acquired, 2)
	require.True(t, d("80").Equal(tracker.GetLockedBalance(usdt, "order-1")))
	require.True(t, d("1").Equal(tracker.GetLockedBalance(btc, "order-1")))
}

func TestBalanceTracker_SimulateLocks(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt, btc := currency("USDT"), currency("BTC")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)
	tracker.AddBalance(btc, d("1"), "deposit", BalanceAvailable)

	feasible := []Lock{
		NewBalanceLock(usdt, d("80"), "order-1", LockHard),
		NewBalanceLock(btc, d("1"), "order-1", LockHard),
	}
	require.True(t, tracker.SimulateLocks(feasible))
	require.Empty(t, tracker.Locks())

	infeasible := []Lock{
		NewBalanceLock(usdt, d("80"), "order-1", LockHard),
		NewBalanceLock(btc, d("2"), "order-1", LockHard),
	}
	require.False(t, tracker.SimulateLocks(infeasible))
	require.Empty(t, tracker.Locks())
}

func TestBalanceTracker_UseFreezeUnfreeze(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt := currency("USDT")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("100"), "order-1", LockHard))
	require.NoError(t, err)

	require.NoError(t, tracker.UseLockedBalance(usdt, "order-1", d("30")))
	require.True(t, d("70").Equal(tracker.GetAvailableLockedBalance(usdt, "order-1")))

	require.NoError(t, tracker.FreezeLockedBalance(usdt, "order-1", d("50")))
	require.True(t, d("20").Equal(tracker.GetAvailableLockedBalance(usdt, "order-1")))

	// frozen capacity is not consumable
	require.ErrorIs(t, tracker.UseLockedBalance(usdt, "order-1", d("30")), ErrInsufficientRemaining)

	require.NoError(t, tracker.UnfreezeLockedBalance(usdt, "order-1", d("50")))
	require.True(t, d("70").Equal(tracker.GetAvailableLockedBalance(usdt, "order-1")))
	require.NoError(t, tracker.UseLockedBalance(usdt, "order-1", d("30")))
}

func TestBalanceTracker_UseLockedBalanceUnknownLock(t *testing.T) {
	tracker := NewBalanceTracker()
	require.ErrorIs(t, tracker.UseLockedBalance(currency("USDT"), "order-1", d("1")), ErrLockNotFound)
}

func TestBalanceTracker_FreezeMultipleRollback(t *testing.T) {
	tracker := NewBalanceTracker()
	usdt, btc := currency("USDT"), currency("BTC")
	tracker.AddBalance(usdt, d("100"), "deposit", BalanceAvailable)
	tracker.AddBalance(btc, d("1"), "deposit", BalanceAvailable)

	_, err := tracker.LockBalance(NewBalanceLock(usdt, d("50"), "order-1", LockHard))
	require.NoError(t, err)
	_, err = tracker.LockBalance(NewBalanceLock(btc, d("1"), "order-1", LockHard))
	require.NoError(t, err)

	requests := []FreezeRequest{
		{Asset: usdt, Purpose: "order-1", Amount: d("40")},
		{Asset: btc, Purpose: "order-1", Amount: d("2")},
	}
	require.ErrorIs(t, tracker.FreezeMultipleLockedBalances(requests), ErrInsufficientRemaining)

	// the failed batch must leave earlier freezes undone
	require.True(t, d("50").Equal(tracker.GetAvailableLockedBalance(usdt, "order-1")))
	require.True(t, d("1").Equal(tracker.GetAvailableLockedBalance(btc, "order-1")))
}

func TestBalanceTracker_Positions(t *testing.T) {
	tracker := NewBalanceTracker()
	leg := contract("BTC-USDT-PERPETUAL", core.SideLong)

	position, err := core.NewPosition(leg, d("2"), d("10"), d("50000"), d("10000"), decimal.Zero, d("45500"))
	require.NoError(t, err)

	require.NoError(t, tracker.SetPosition(position, "fill", BalanceTotal))
	require.True(t, d("2").Equal(tracker.GetBalance(leg, BalanceTotal)))

	stored, ok := tracker.GetPosition(leg)
	require.True(t, ok)
	require.True(t, d("50000").Equal(stored.EntryPrice))

	removed, ok := tracker.RemovePosition(leg)
	require.True(t, ok)
	require.True(t, d("2").Equal(removed.Amount))
	require.True(t, tracker.GetBalance(leg, BalanceTotal).IsZero())
	require.Empty(t, tracker.Positions())

	_, ok = tracker.RemovePosition(leg)
	require.False(t, ok)
}

func TestBalanceTracker_SetPositionRequiresContract(t *testing.T) {
	tracker := NewBalanceTracker()
	position := core.Position{Asset: currency("BTC"), Amount: d("1")}
	require.ErrorIs(t, tracker.SetPosition(position, "fill", BalanceTotal), ErrNotContract)
}
