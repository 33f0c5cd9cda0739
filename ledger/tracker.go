package ledger

import (
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/raykavin/finsim/core"
)

// BalanceType selects which book a balance operation targets.
type BalanceType string

const (
	BalanceTotal     BalanceType = "total"
	BalanceAvailable BalanceType = "available"
)

// BalanceUpdateType classifies how a recorded change was produced.
type BalanceUpdateType string

const (
	// UpdateSnapshot is an absolute assignment from an external report.
	UpdateSnapshot BalanceUpdateType = "snapshot"
	// UpdateDifferential is a signed delta applied to the current balance.
	UpdateDifferential BalanceUpdateType = "differential"
	// UpdateSimulated is a change produced by a simulation, never settled.
	UpdateSimulated BalanceUpdateType = "simulated"
)

// BalanceChange is one entry of the balance history.
// Amount is signed: negative for removals.
type BalanceChange struct {
	Timestamp   time.Time
	Asset       core.Asset
	Amount      decimal.Decimal
	Reason      string
	BalanceType BalanceType
	UpdateType  BalanceUpdateType
}

// BalanceEntry is one (asset, amount) pair of a balance report.
type BalanceEntry struct {
	Asset  core.Asset
	Amount decimal.Decimal
}

// FreezeRequest names one lock and the amount to freeze on it.
type FreezeRequest struct {
	Asset   core.Asset
	Purpose string
	Amount  decimal.Decimal
}

// BalanceTracker is the in-memory balance ledger: authoritative total and
// available balances per asset, a lock table keyed by (asset, purpose),
// open derivative positions, and an optional append-only change log.
//
// The tracker has no internal concurrency control. It is a single-writer
// structure: callers driving it from multiple goroutines must serialize
// access externally.
type BalanceTracker struct {
	total     map[core.Asset]decimal.Decimal
	available map[core.Asset]decimal.Decimal
	locks     map[core.Asset]map[string]Lock
	positions map[core.Asset]core.Position

	trackHistory bool
	history      []BalanceChange
	log          core.Logger
}

// BalanceTrackerOption configures a tracker.
type BalanceTrackerOption func(*BalanceTracker)

// WithHistory enables the append-only change log.
func WithHistory() BalanceTrackerOption {
	return func(t *BalanceTracker) { t.trackHistory = true }
}

// WithLogger attaches a logger; lock and balance mutations are traced at
// debug level.
func WithLogger(logger core.Logger) BalanceTrackerOption {
	return func(t *BalanceTracker) { t.log = logger }
}

// NewBalanceTracker creates an empty ledger.
func NewBalanceTracker(opts ...BalanceTrackerOption) *BalanceTracker {
	tracker := &BalanceTracker{
		total:     make(map[core.Asset]decimal.Decimal),
		available: make(map[core.Asset]decimal.Decimal),
		locks:     make(map[core.Asset]map[string]Lock),
		positions: make(map[core.Asset]core.Position),
	}
	for _, opt := range opts {
		opt(tracker)
	}
	return tracker
}

func (t *BalanceTracker) book(balanceType BalanceType) map[core.Asset]decimal.Decimal {
	if balanceType == BalanceTotal {
		return t.total
	}
	return t.available
}

func (t *BalanceTracker) debugf(format string, args ...any) {
	if t.log != nil {
		t.log.Debugf(format, args...)
	}
}

// ---------------------
// Balance history
// ---------------------

// BalanceHistory returns a copy of the recorded changes.
func (t *BalanceTracker) BalanceHistory() []BalanceChange {
	history := make([]BalanceChange, len(t.history))
	copy(history, t.history)
	return history
}

// ClearBalanceHistory drops all recorded changes.
func (t *BalanceTracker) ClearBalanceHistory() {
	t.history = t.history[:0]
}

func (t *BalanceTracker) record(
	asset core.Asset,
	amount decimal.Decimal,
	reason string,
	balanceType BalanceType,
	updateType BalanceUpdateType,
) BalanceChange {
	change := BalanceChange{
		Timestamp:   time.Now(),
		Asset:       asset,
		Amount:      amount,
		Reason:      reason,
		BalanceType: balanceType,
		UpdateType:  updateType,
	}
	if t.trackHistory {
		t.history = append(t.history, change)
	}
	return change
}

// ---------------------
// Balance management
// ---------------------

// AddBalance applies a positive delta to the selected book.
// The balance entry is created on first use.
func (t *BalanceTracker) AddBalance(asset core.Asset, amount decimal.Decimal, reason string, balanceType BalanceType) {
	book := t.book(balanceType)
	t.record(asset, amount, reason, balanceType, UpdateDifferential)
	book[asset] = book[asset].Add(amount)
	t.debugf("balance add: %s %s %s (%s)", asset, amount, balanceType, reason)
}

// RemoveBalance applies a negative delta to the selected book. It fails
// when the asset is untracked or the result would go negative; a result
// of exactly zero prunes the balance entry.
func (t *BalanceTracker) RemoveBalance(asset core.Asset, amount decimal.Decimal, reason string, balanceType BalanceType) error {
	book := t.book(balanceType)
	balance, ok := book[asset]
	if !ok {
		return ErrAssetNotFound
	}
	if balance.LessThan(amount) {
		return ErrInsufficientBalance
	}

	t.record(asset, amount.Neg(), reason, balanceType, UpdateDifferential)

	balance = balance.Sub(amount)
	if balance.IsZero() {
		delete(book, asset)
	} else {
		book[asset] = balance
	}
	t.debugf("balance remove: %s %s %s (%s)", asset, amount, balanceType, reason)
	return nil
}

// SetBalance assigns an absolute balance and records the implied delta as
// a snapshot change. Negative amounts are rejected.
func (t *BalanceTracker) SetBalance(asset core.Asset, amount decimal.Decimal, reason string, balanceType BalanceType) (BalanceChange, error) {
	if amount.IsNegative() {
		return BalanceChange{}, ErrNegativeAmount
	}

	book := t.book(balanceType)
	delta := amount.Sub(book[asset])
	book[asset] = amount

	change := t.record(asset, delta, reason, balanceType, UpdateSnapshot)
	t.debugf("balance set: %s %s %s (%s)", asset, amount, balanceType, reason)
	return change, nil
}

// SetBalances applies a batch of absolute assignments. When
// completeSnapshot is set, every previously tracked asset of the selected
// book absent from the report is driven to zero, reconciling the book
// against the external snapshot.
func (t *BalanceTracker) SetBalances(
	entries []BalanceEntry,
	reason string,
	balanceType BalanceType,
	completeSnapshot bool,
) ([]BalanceChange, error) {
	changes := make([]BalanceChange, 0, len(entries))
	updated := make(map[core.Asset]struct{}, len(entries))

	for _, entry := range entries {
		change, err := t.SetBalance(entry.Asset, entry.Amount, reason, balanceType)
		if err != nil {
			return changes, err
		}
		changes = append(changes, change)
		updated[entry.Asset] = struct{}{}
	}

	if completeSnapshot {
		stale := lo.Filter(lo.Keys(t.book(balanceType)), func(asset core.Asset, _ int) bool {
			_, ok := updated[asset]
			return !ok
		})
		for _, asset := range stale {
			change, err := t.SetBalance(asset, decimal.Zero, reason, balanceType)
			if err != nil {
				return changes, err
			}
			changes = append(changes, change)
		}
	}

	return changes, nil
}

// ---------------------
// Position management
// ---------------------

// SetPosition stores the position record and keys the contract leg as a
// balance entry of the selected book, with the position size as amount.
func (t *BalanceTracker) SetPosition(position core.Position, reason string, balanceType BalanceType) error {
	if !position.Asset.IsContract() {
		return ErrNotContract
	}
	if _, err := t.SetBalance(position.Asset, position.Amount, reason, balanceType); err != nil {
		return err
	}
	t.positions[position.Asset] = position
	return nil
}

// GetPosition returns the position for the contract leg, if any.
func (t *BalanceTracker) GetPosition(asset core.Asset) (core.Position, bool) {
	position, ok := t.positions[asset]
	return position, ok
}

// RemovePosition deletes the position record and removes the contract
// balance entry from both books.
func (t *BalanceTracker) RemovePosition(asset core.Asset) (core.Position, bool) {
	position, ok := t.positions[asset]
	if !ok {
		return core.Position{}, false
	}
	delete(t.positions, asset)

	const reason = "Remove Position"
	if err := t.RemoveBalance(asset, position.Amount, reason, BalanceTotal); err != nil {
		t.debugf("remove position: total book: %v", err)
	}
	if err := t.RemoveBalance(asset, position.Amount, reason, BalanceAvailable); err != nil {
		t.debugf("remove position: available book: %v", err)
	}
	return position, true
}

// Positions returns a copy of the open position records.
func (t *BalanceTracker) Positions() map[core.Asset]core.Position {
	positions := make(map[core.Asset]core.Position, len(t.positions))
	for asset, position := range t.positions {
		positions[asset] = position
	}
	return positions
}

// ---------------------
// Locking management
// ---------------------

func (t *BalanceTracker) findLock(asset core.Asset, purpose string) (Lock, error) {
	byPurpose, ok := t.locks[asset]
	if !ok {
		return nil, errors.Wrapf(ErrLockNotFound, "asset %s", asset)
	}
	lock, ok := byPurpose[purpose]
	if !ok {
		return nil, errors.Wrapf(ErrLockNotFound, "purpose %q", purpose)
	}
	return lock, nil
}

// LockBalance reserves the lock's amount against the available balance.
// If a lock already exists for the (asset, purpose) pair the new lock is
// merged into it; mismatching lock kinds fail. Returns the resulting lock.
func (t *BalanceTracker) LockBalance(lock Lock) (Lock, error) {
	asset := lock.Asset()
	if t.available[asset].LessThan(lock.Amount()) {
		return nil, errors.Wrapf(ErrInsufficientBalance, "cannot lock %s of %s", lock.Amount(), asset)
	}

	byPurpose, ok := t.locks[asset]
	if !ok {
		byPurpose = make(map[string]Lock)
		t.locks[asset] = byPurpose
	}

	existing, ok := byPurpose[lock.Purpose()]
	if !ok {
		byPurpose[lock.Purpose()] = lock
		t.debugf("lock created: %s purpose=%q amount=%s", asset, lock.Purpose(), lock.Amount())
		return lock, nil
	}

	if err := existing.merge(lock); err != nil {
		return nil, err
	}
	t.debugf("lock merged: %s purpose=%q amount=%s", asset, lock.Purpose(), existing.Amount())
	return existing, nil
}

// ReleaseLockedBalance shrinks the named lock. A lock whose reservation
// reaches zero is pruned from the lock table.
func (t *BalanceTracker) ReleaseLockedBalance(asset core.Asset, purpose string, amount decimal.Decimal) error {
	lock, err := t.findLock(asset, purpose)
	if err != nil {
		return err
	}
	if err := lock.Release(amount); err != nil {
		return err
	}
	if lock.Amount().IsZero() {
		delete(t.locks[asset], purpose)
		if len(t.locks[asset]) == 0 {
			delete(t.locks, asset)
		}
	}
	t.debugf("lock released: %s purpose=%q amount=%s", asset, purpose, amount)
	return nil
}

// ReleaseAllLockedBalances releases the remaining reservation of every
// lock on the asset.
func (t *BalanceTracker) ReleaseAllLockedBalances(asset core.Asset) error {
	for purpose, lock := range t.locks[asset] {
		if err := t.ReleaseLockedBalance(asset, purpose, lock.Remaining()); err != nil {
			return err
		}
	}
	return nil
}

// LockMultipleBalances acquires the locks in order, all-or-nothing: on
// the first failure every lock acquired earlier in this call is released
// again and the original cause is returned. No partial reservation
// survives a failed batch.
func (t *BalanceTracker) LockMultipleBalances(locks []Lock) ([]Lock, error) {
	completed := make([]Lock, 0, len(locks))
	for i, lock := range locks {
		acquired, err := t.LockBalance(lock)
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				requested := locks[j]
				if releaseErr := t.ReleaseLockedBalance(requested.Asset(), requested.Purpose(), requested.Amount()); releaseErr != nil {
					t.debugf("rollback release: %v", releaseErr)
				}
			}
			return nil, errors.Wrap(err, "failed to lock all required balances")
		}
		completed = append(completed, acquired)
	}
	return completed, nil
}

// SimulateLocks reports whether the batch of locks could be acquired.
// The locks are taken and immediately released; the lock table is left as
// it was found.
func (t *BalanceTracker) SimulateLocks(locks []Lock) bool {
	if _, err := t.LockMultipleBalances(locks); err != nil {
		return false
	}
	for _, lock := range locks {
		if err := t.ReleaseLockedBalance(lock.Asset(), lock.Purpose(), lock.Amount()); err != nil {
			t.debugf("simulate release: %v", err)
		}
	}
	return true
}

// UseLockedBalance consumes part of the named lock's remaining reservation.
func (t *BalanceTracker) UseLockedBalance(asset core.Asset, purpose string, amount decimal.Decimal) error {
	lock, err := t.findLock(asset, purpose)
	if err != nil {
		return err
	}
	return lock.Use(amount)
}

// FreezeLockedBalance freezes part of the named lock's remaining reservation.
func (t *BalanceTracker) FreezeLockedBalance(asset core.Asset, purpose string, amount decimal.Decimal) error {
	lock, err := t.findLock(asset, purpose)
	if err != nil {
		return err
	}
	return lock.Freeze(amount)
}

// UnfreezeLockedBalance returns frozen reservation to the remaining pool.
func (t *BalanceTracker) UnfreezeLockedBalance(asset core.Asset, purpose string, amount decimal.Decimal) error {
	lock, err := t.findLock(asset, purpose)
	if err != nil {
		return err
	}
	return lock.Unfreeze(amount)
}

// FreezeMultipleLockedBalances freezes the requests in order,
// all-or-nothing: on the first failure every freeze applied earlier in
// this call is undone and the original cause is returned.
func (t *BalanceTracker) FreezeMultipleLockedBalances(requests []FreezeRequest) error {
	for i, request := range requests {
		if err := t.FreezeLockedBalance(request.Asset, request.Purpose, request.Amount); err != nil {
			for j := i - 1; j >= 0; j-- {
				undo := requests[j]
				if unfreezeErr := t.UnfreezeLockedBalance(undo.Asset, undo.Purpose, undo.Amount); unfreezeErr != nil {
					t.debugf("rollback unfreeze: %v", unfreezeErr)
				}
			}
			return errors.Wrap(err, "failed to freeze all required balances")
		}
	}
	return nil
}

// ---------------------
// Balance queries
// ---------------------

// GetBalance returns the balance of the asset in the selected book.
func (t *BalanceTracker) GetBalance(asset core.Asset, balanceType BalanceType) decimal.Decimal {
	return t.book(balanceType)[asset]
}

// GetUnlockedBalance returns the available balance minus the remaining
// reservation of every lock on the asset.
func (t *BalanceTracker) GetUnlockedBalance(asset core.Asset) decimal.Decimal {
	locked := lo.Reduce(lo.Values(t.locks[asset]), func(sum decimal.Decimal, lock Lock, _ int) decimal.Decimal {
		return sum.Add(lock.Remaining())
	}, decimal.Zero)
	return t.available[asset].Sub(locked)
}

// GetLockedBalance returns the total reservation of the named lock,
// zero when no such lock exists.
func (t *BalanceTracker) GetLockedBalance(asset core.Asset, purpose string) decimal.Decimal {
	lock, err := t.findLock(asset, purpose)
	if err != nil {
		return decimal.Zero
	}
	return lock.Amount()
}

// GetAvailableLockedBalance returns the remaining reservation of the
// named lock, zero when no such lock exists.
func (t *BalanceTracker) GetAvailableLockedBalance(asset core.Asset, purpose string) decimal.Decimal {
	lock, err := t.findLock(asset, purpose)
	if err != nil {
		return decimal.Zero
	}
	return lock.Remaining()
}

// GetAvailableBalance returns the amount usable for one purpose: the free
// capacity of the asset plus whatever is already earmarked for exactly
// that purpose.
func (t *BalanceTracker) GetAvailableBalance(asset core.Asset, purpose string) decimal.Decimal {
	return t.GetUnlockedBalance(asset).Add(t.GetAvailableLockedBalance(asset, purpose))
}

// TotalBalances returns a copy of the total book.
func (t *BalanceTracker) TotalBalances() map[core.Asset]decimal.Decimal {
	return copyBook(t.total)
}

// AvailableBalances returns a copy of the available book.
func (t *BalanceTracker) AvailableBalances() map[core.Asset]decimal.Decimal {
	return copyBook(t.available)
}

// Locks returns a copy of the lock table. The locks themselves are shared.
func (t *BalanceTracker) Locks() map[core.Asset]map[string]Lock {
	locks := make(map[core.Asset]map[string]Lock, len(t.locks))
	for asset, byPurpose := range t.locks {
		inner := make(map[string]Lock, len(byPurpose))
		for purpose, lock := range byPurpose {
			inner[purpose] = lock
		}
		locks[asset] = inner
	}
	return locks
}

func copyBook(book map[core.Asset]decimal.Decimal) map[core.Asset]decimal.Decimal {
	copied := make(map[core.Asset]decimal.Decimal, len(book))
	for asset, amount := range book {
		copied[asset] = amount
	}
	return copied
}
