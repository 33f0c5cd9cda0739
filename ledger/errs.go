package ledger

import "errors"

var (
	ErrAssetNotFound         = errors.New("asset not found in balances")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrNegativeAmount        = errors.New("amount must not be negative")
	ErrLockNotFound          = errors.New("no locked balance found for purpose")
	ErrLockTypeMismatch      = errors.New("lock type mismatch")
	ErrLockAssetMismatch     = errors.New("lock asset mismatch")
	ErrLockFunctionMismatch  = errors.New("lock update function mismatch")
	ErrInsufficientLocked    = errors.New("insufficient locked balance to release")
	ErrInsufficientRemaining = errors.New("insufficient remaining balance")
	ErrInsufficientFrozen    = errors.New("insufficient frozen balance to unfreeze")
	ErrNotContract           = errors.New("position asset is not a derivative contract")
)
