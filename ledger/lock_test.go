package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/finsim/core"
)

var testPlatform = core.Platform{Identifier: "simulated"}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func currency(symbol string) core.Asset {
	return core.Asset{Platform: testPlatform, Identifier: symbol}
}

func contract(name string, side core.DerivativeSide) core.Asset {
	return core.Asset{Platform: testPlatform, Identifier: name, Side: side}
}

func TestBalanceLock_Lifecycle(t *testing.T) {
	lock := NewBalanceLock(currency("USDT"), d("100"), "order-1", LockHard)

	require.True(t, d("100").Equal(lock.Amount()))
	require.True(t, d("100").Equal(lock.Remaining()))

	require.NoError(t, lock.Use(d("30")))
	require.True(t, d("70").Equal(lock.Remaining()))

	require.NoError(t, lock.Freeze(d("20")))
	require.True(t, d("50").Equal(lock.Remaining()))
	require.True(t, d("20").Equal(lock.Frozen()))

	require.NoError(t, lock.Unfreeze(d("20")))
	require.True(t, d("70").Equal(lock.Remaining()))

	require.NoError(t, lock.Release(d("40")))
	require.True(t, d("60").Equal(lock.Amount()))
	require.True(t, d("30").Equal(lock.Remaining()))
}

func TestBalanceLock_UseBeyondRemaining(t *testing.T) {
	lock := NewBalanceLock(currency("USDT"), d("100"), "order-1", LockHard)

	require.NoError(t, lock.Freeze(d("80")))
	require.ErrorIs(t, lock.Use(d("30")), ErrInsufficientRemaining)
	require.True(t, d("20").Equal(lock.Remaining()))
}

func TestBalanceLock_FreezeBeyondRemaining(t *testing.T) {
	lock := NewBalanceLock(currency("USDT"), d("50"), "order-1", LockHard)

	require.NoError(t, lock.Use(d("40")))
	require.ErrorIs(t, lock.Freeze(d("20")), ErrInsufficientRemaining)
}

func TestBalanceLock_UnfreezeBeyondFrozen(t *testing.T) {
	lock := NewBalanceLock(currency("USDT"), d("50"), "order-1", LockHard)

	require.NoError(t, lock.Freeze(d("10")))
	require.ErrorIs(t, lock.Unfreeze(d("20")), ErrInsufficientFrozen)
}

func TestBalanceLock_ReleaseBeyondAmount(t *testing.T) {
	lock := NewBalanceLock(currency("USDT"), d("50"), "order-1", LockHard)

	require.ErrorIs(t, lock.Release(d("60")), ErrInsufficientLocked)
	require.True(t, d("50").Equal(lock.Amount()))
}

func TestBalanceLock_Merge(t *testing.T) {
	lock := NewBalanceLock(currency("USDT"), d("50"), "order-1", LockHard)
	other := NewBalanceLock(currency("USDT"), d("25"), "order-1", LockHard)

	require.NoError(t, lock.merge(other))
	require.True(t, d("75").Equal(lock.Amount()))
}

func TestBalanceLock_MergeTypeMismatch(t *testing.T) {
	hard := NewBalanceLock(currency("USDT"), d("50"), "order-1", LockHard)
	estimated := NewBalanceLock(currency("USDT"), d("25"), "order-1", LockEstimated)

	require.ErrorIs(t, hard.merge(estimated), ErrLockTypeMismatch)
}

func TestDynamicLock_TracksOtherQuantity(t *testing.T) {
	// inverse margin: base amount derived from a USD notional at 50k
	derive := func(notional decimal.Decimal) decimal.Decimal {
		return notional.Div(d("50000"))
	}
	lock := NewDynamicLock(
		currency("BTC"), currency("USDT"), d("100000"),
		"margin", LockHard, "inverse-margin@50000", derive,
	)

	require.True(t, d("2").Equal(lock.Amount()))

	lock.SetOtherQuantity(d("50000"))
	require.True(t, d("1").Equal(lock.Amount()))
	require.True(t, d("50000").Equal(lock.OtherQuantity()))
}

func TestDynamicLock_Merge(t *testing.T) {
	derive := func(notional decimal.Decimal) decimal.Decimal {
		return notional.Div(d("50000"))
	}
	lock := NewDynamicLock(
		currency("BTC"), currency("USDT"), d("100000"),
		"margin", LockHard, "inverse-margin@50000", derive,
	)
	other := NewDynamicLock(
		currency("BTC"), currency("USDT"), d("50000"),
		"margin", LockHard, "inverse-margin@50000", derive,
	)

	require.NoError(t, lock.merge(other))
	require.True(t, d("150000").Equal(lock.OtherQuantity()))
	require.True(t, d("3").Equal(lock.Amount()))
}

func TestDynamicLock_MergeMismatches(t *testing.T) {
	derive := func(notional decimal.Decimal) decimal.Decimal { return notional }
	lock := NewDynamicLock(
		currency("BTC"), currency("USDT"), d("10"),
		"margin", LockHard, "identity", derive,
	)

	static := NewBalanceLock(currency("BTC"), d("10"), "margin", LockHard)
	require.ErrorIs(t, lock.merge(static), ErrLockTypeMismatch)

	otherAsset := NewDynamicLock(
		currency("BTC"), currency("EUR"), d("10"),
		"margin", LockHard, "identity", derive,
	)
	require.ErrorIs(t, lock.merge(otherAsset), ErrLockAssetMismatch)

	otherFunc := NewDynamicLock(
		currency("BTC"), currency("USDT"), d("10"),
		"margin", LockHard, "doubled", derive,
	)
	require.ErrorIs(t, lock.merge(otherFunc), ErrLockFunctionMismatch)
}
