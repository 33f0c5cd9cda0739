package core

import "errors"

var (
	ErrPlatformEmpty      = errors.New("empty platform identifier")
	ErrAssetEmpty         = errors.New("empty asset identifier")
	ErrBaseAssetEmpty     = errors.New("empty base asset")
	ErrQuoteAssetEmpty    = errors.New("empty quote asset")
	ErrNegativeValue      = errors.New("negative value")
	ErrStrikeRequired     = errors.New("strike price required for options")
	ErrExpiryRequired     = errors.New("expiry required for dated instruments")
	ErrCollateralNotSet   = errors.New("collateral token not specified in trading rule")
	ErrPercentageFeeRange = errors.New("percentage fee cannot be greater than 100")
	ErrUnsupportedSide    = errors.New("unsupported trade type")
	ErrInvalidTimeframe   = errors.New("invalid instrument timeframe")
)
