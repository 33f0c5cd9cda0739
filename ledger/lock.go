package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/raykavin/finsim/core"
)

// LockType qualifies how firm a reservation is.
type LockType int

const (
	// LockHard reserves a settled, exact amount.
	LockHard LockType = iota + 1
	// LockEstimated reserves a best-effort estimate that may be revised.
	LockEstimated
)

func (t LockType) String() string {
	switch t {
	case LockHard:
		return "HARD"
	case LockEstimated:
		return "ESTIMATED"
	default:
		return fmt.Sprintf("LockType(%d)", int(t))
	}
}

// Lock is a reservation of a quantity of one asset for one purpose.
// Implementations keep the invariant used + frozen <= amount at all times.
type Lock interface {
	Asset() core.Asset
	Purpose() string
	Type() LockType
	Amount() decimal.Decimal
	Used() decimal.Decimal
	Frozen() decimal.Decimal
	Remaining() decimal.Decimal

	// Use consumes part of the remaining reservation.
	Use(amount decimal.Decimal) error
	// Freeze and Unfreeze move amounts between remaining and frozen.
	Freeze(amount decimal.Decimal) error
	Unfreeze(amount decimal.Decimal) error
	// Release shrinks the total reservation.
	Release(amount decimal.Decimal) error

	// merge folds another lock of the same (asset, purpose) into this one.
	merge(other Lock) error
}

// ---------------------
// BalanceLock
// ---------------------

// BalanceLock is a fixed-amount reservation.
type BalanceLock struct {
	asset    core.Asset
	amount   decimal.Decimal
	used     decimal.Decimal
	frozen   decimal.Decimal
	purpose  string
	lockType LockType
}

// NewBalanceLock creates a reservation of amount for the given purpose.
func NewBalanceLock(asset core.Asset, amount decimal.Decimal, purpose string, lockType LockType) *BalanceLock {
	return &BalanceLock{
		asset:    asset,
		amount:   amount,
		purpose:  purpose,
		lockType: lockType,
	}
}

func (l *BalanceLock) Asset() core.Asset       { return l.asset }
func (l *BalanceLock) Purpose() string         { return l.purpose }
func (l *BalanceLock) Type() LockType          { return l.lockType }
func (l *BalanceLock) Amount() decimal.Decimal { return l.amount }
func (l *BalanceLock) Used() decimal.Decimal   { return l.used }
func (l *BalanceLock) Frozen() decimal.Decimal { return l.frozen }

// Remaining returns the part of the reservation not yet used or frozen.
func (l *BalanceLock) Remaining() decimal.Decimal {
	return l.amount.Sub(l.used).Sub(l.frozen)
}

// Use consumes part of the remaining reservation.
func (l *BalanceLock) Use(amount decimal.Decimal) error {
	if l.Remaining().LessThan(amount) {
		return ErrInsufficientRemaining
	}
	l.used = l.used.Add(amount)
	return nil
}

// Freeze sets part of the remaining reservation aside.
func (l *BalanceLock) Freeze(amount decimal.Decimal) error {
	if l.Remaining().LessThan(amount) {
		return ErrInsufficientRemaining
	}
	l.frozen = l.frozen.Add(amount)
	return nil
}

// Unfreeze returns frozen reservation to the remaining pool.
func (l *BalanceLock) Unfreeze(amount decimal.Decimal) error {
	if l.frozen.LessThan(amount) {
		return ErrInsufficientFrozen
	}
	l.frozen = l.frozen.Sub(amount)
	return nil
}

// Release shrinks the total reservation.
func (l *BalanceLock) Release(amount decimal.Decimal) error {
	if l.amount.LessThan(amount) {
		return ErrInsufficientLocked
	}
	l.amount = l.amount.Sub(amount)
	return nil
}

func (l *BalanceLock) merge(other Lock) error {
	static, ok := other.(*BalanceLock)
	if !ok || l.lockType != static.lockType {
		return ErrLockTypeMismatch
	}
	l.amount = l.amount.Add(static.amount)
	return nil
}

func (l *BalanceLock) String() string {
	return fmt.Sprintf("<LockedBalance: %s of %s>", l.amount, l.asset.Identifier)
}

// ---------------------
// DynamicLock
// ---------------------

// UpdateFunc derives the locked amount from a quantity of another asset.
type UpdateFunc func(decimal.Decimal) decimal.Decimal

// DynamicLock is a reservation whose amount is derived on demand from a
// quantity expressed in a different asset, e.g. inverse-contract margin
// tracking a USD notional. Call Update after changing the tracked
// quantity and before reading Amount.
//
// UpdateFuncID gives the derivation a comparable identity: two dynamic
// locks only merge when their IDs match.
type DynamicLock struct {
	BalanceLock
	otherAsset    core.Asset
	otherQuantity decimal.Decimal
	updateFuncID  string
	updateFunc    UpdateFunc
}

// NewDynamicLock creates a derived reservation. The initial amount is
// computed immediately from otherQuantity.
func NewDynamicLock(
	asset core.Asset,
	otherAsset core.Asset,
	otherQuantity decimal.Decimal,
	purpose string,
	lockType LockType,
	updateFuncID string,
	updateFunc UpdateFunc,
) *DynamicLock {
	lock := &DynamicLock{
		BalanceLock: BalanceLock{
			asset:    asset,
			purpose:  purpose,
			lockType: lockType,
		},
		otherAsset:    otherAsset,
		otherQuantity: otherQuantity,
		updateFuncID:  updateFuncID,
		updateFunc:    updateFunc,
	}
	lock.Update()
	return lock
}

// OtherAsset returns the asset the tracked quantity is expressed in.
func (l *DynamicLock) OtherAsset() core.Asset { return l.otherAsset }

// OtherQuantity returns the tracked quantity.
func (l *DynamicLock) OtherQuantity() decimal.Decimal { return l.otherQuantity }

// UpdateFuncID returns the identity of the derivation function.
func (l *DynamicLock) UpdateFuncID() string { return l.updateFuncID }

// SetOtherQuantity replaces the tracked quantity and recomputes the amount.
func (l *DynamicLock) SetOtherQuantity(quantity decimal.Decimal) {
	l.otherQuantity = quantity
	l.Update()
}

// Update recomputes the locked amount from the tracked quantity.
func (l *DynamicLock) Update() {
	l.amount = l.updateFunc(l.otherQuantity)
}

func (l *DynamicLock) merge(other Lock) error {
	dynamic, ok := other.(*DynamicLock)
	if !ok || l.lockType != dynamic.lockType {
		return ErrLockTypeMismatch
	}
	if l.otherAsset != dynamic.otherAsset {
		return ErrLockAssetMismatch
	}
	if l.updateFuncID != dynamic.updateFuncID {
		return ErrLockFunctionMismatch
	}
	l.otherQuantity = l.otherQuantity.Add(dynamic.otherQuantity)
	l.Update()
	return nil
}

func (l *DynamicLock) String() string {
	return fmt.Sprintf("<DynamicLock: %s of %s in %s>",
		l.otherQuantity, l.otherAsset.Identifier, l.asset.Identifier)
}
