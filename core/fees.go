package core

import "github.com/shopspring/decimal"

// FeeType describes how a fee amount is interpreted.
type FeeType string

const (
	FeePercentage FeeType = "PERCENTAGE"
	FeeAbsolute   FeeType = "ABSOLUTE"
)

// FeeImpactType describes where a fee lands in the cashflow timeline.
type FeeImpactType string

const (
	// AddedToCosts charges the fee upfront, together with the opening outflows.
	AddedToCosts FeeImpactType = "ADDED_TO_COSTS"
	// DeductedFromReturns charges the fee at close, against the returns.
	DeductedFromReturns FeeImpactType = "DEDUCTED_FROM_RETURNS"
)

// OperationFee is the fee attached to a single trading operation.
// Asset is optional: when nil the engine charges the fee in the asset it
// expects for the instrument's collateral convention.
type OperationFee struct {
	Amount     decimal.Decimal
	Asset      *Asset
	FeeType    FeeType
	ImpactType FeeImpactType
}

// NewOperationFee validates and builds a fee.
// Percentage fees cannot exceed 100.
func NewOperationFee(amount decimal.Decimal, asset *Asset, feeType FeeType, impactType FeeImpactType) (OperationFee, error) {
	fee := OperationFee{Amount: amount, Asset: asset, FeeType: feeType, ImpactType: impactType}
	if err := fee.Validate(); err != nil {
		return OperationFee{}, err
	}
	return fee, nil
}

// Validate checks the fee invariants.
func (f OperationFee) Validate() error {
	if f.Amount.IsNegative() {
		return ErrNegativeValue
	}
	if f.FeeType == FeePercentage && f.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return ErrPercentageFeeRange
	}
	return nil
}
