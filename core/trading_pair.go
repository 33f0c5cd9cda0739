package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// ---------------------
// Instrument type
// ---------------------

// InstrumentType is the market family of a trading pair.
type InstrumentType string

const (
	InstrumentSpot              InstrumentType = "SPOT"
	InstrumentFuture            InstrumentType = "FUTURE"
	InstrumentInverseFuture     InstrumentType = "INVERSE_FUTURE"
	InstrumentPerpetual         InstrumentType = "PERPETUAL"
	InstrumentInversePerpetual  InstrumentType = "INVERSE_PERPETUAL"
	InstrumentCallOption        InstrumentType = "CALL_OPTION"
	InstrumentPutOption         InstrumentType = "PUT_OPTION"
	InstrumentInverseCallOption InstrumentType = "INVERSE_CALL_OPTION"
	InstrumentInversePutOption  InstrumentType = "INVERSE_PUT_OPTION"
)

// IsSpot reports whether the instrument is a plain spot market.
func (t InstrumentType) IsSpot() bool { return t == InstrumentSpot }

// IsDerivative reports whether the instrument is anything but spot.
func (t InstrumentType) IsDerivative() bool { return !t.IsSpot() }

// IsPerpetual reports whether the instrument is a perpetual swap.
func (t InstrumentType) IsPerpetual() bool {
	return t == InstrumentPerpetual || t == InstrumentInversePerpetual
}

// IsFuture reports whether the instrument is a dated future.
func (t InstrumentType) IsFuture() bool {
	return t == InstrumentFuture || t == InstrumentInverseFuture
}

// IsOption reports whether the instrument is an option.
func (t InstrumentType) IsOption() bool {
	switch t {
	case InstrumentCallOption, InstrumentPutOption,
		InstrumentInverseCallOption, InstrumentInversePutOption:
		return true
	}
	return false
}

// IsCall reports whether the instrument is a call option.
func (t InstrumentType) IsCall() bool {
	return t == InstrumentCallOption || t == InstrumentInverseCallOption
}

// IsInverse reports whether the instrument margins and settles in base currency.
func (t InstrumentType) IsInverse() bool {
	switch t {
	case InstrumentInverseFuture, InstrumentInversePerpetual,
		InstrumentInverseCallOption, InstrumentInversePutOption:
		return true
	}
	return false
}

// IsLinear reports whether the instrument margins and settles in quote currency.
func (t InstrumentType) IsLinear() bool {
	switch t {
	case InstrumentSpot, InstrumentFuture, InstrumentPerpetual:
		return true
	}
	return false
}

// ---------------------
// Timeframe
// ---------------------

// Timeframe is the listing timeframe code of a dated instrument.
type Timeframe string

const (
	TimeframeHourly      Timeframe = "1H"
	TimeframeBiHourly    Timeframe = "2H"
	TimeframeQuadHourly  Timeframe = "4H"
	TimeframeDaily       Timeframe = "1D"
	TimeframeBiDaily     Timeframe = "2D"
	TimeframeWeekly      Timeframe = "1W"
	TimeframeBiWeekly    Timeframe = "2W"
	TimeframeMonthly     Timeframe = "1M"
	TimeframeBiMonthly   Timeframe = "2M"
	TimeframeQuarterly   Timeframe = "1Q"
	TimeframeBiQuarterly Timeframe = "2Q"
	TimeframeYearly      Timeframe = "1Y"
	TimeframeUndefined   Timeframe = "NA"
)

// monthly and longer codes use the maximum span of the period
var timeframeSpans = map[Timeframe]string{
	TimeframeMonthly:     "31d",
	TimeframeBiMonthly:   "62d",
	TimeframeQuarterly:   "92d",
	TimeframeBiQuarterly: "184d",
	TimeframeYearly:      "366d",
}

// Duration returns the maximum lifetime the timeframe code spans.
func (t Timeframe) Duration() (time.Duration, error) {
	if t == TimeframeUndefined || t == "" {
		return 0, ErrInvalidTimeframe
	}
	code, ok := timeframeSpans[t]
	if !ok {
		code = strings.ToLower(string(t))
	}
	d, err := str2duration.ParseDuration(code)
	if err != nil {
		return 0, ErrInvalidTimeframe
	}
	return d, nil
}

// ---------------------
// Market info
// ---------------------

// MarketInfo holds the structural description of a market: the currency
// pair plus the instrument family and, for dated instruments, timeframe,
// expiry and strike.
type MarketInfo struct {
	Base           string
	Quote          string
	InstrumentType InstrumentType
	Timeframe      Timeframe
	Expiry         time.Time
	Strike         *decimal.Decimal
}

// Validate checks that the market carries the data its family requires.
func (m MarketInfo) Validate() error {
	if m.Base == "" {
		return ErrBaseAssetEmpty
	}
	if m.Quote == "" {
		return ErrQuoteAssetEmpty
	}
	if m.InstrumentType.IsOption() {
		if m.Strike == nil {
			return ErrStrikeRequired
		}
		if m.Expiry.IsZero() {
			return ErrExpiryRequired
		}
	} else if m.InstrumentType.IsFuture() && m.Expiry.IsZero() {
		return ErrExpiryRequired
	}
	return nil
}

// ---------------------
// Trading pair
// ---------------------

const expiryLayout = "20060102"

// TradingPair is a named market. The name encodes the market structure as
// BASE-QUOTE[-TYPE[-TIMEFRAME[-EXPIRY[-STRIKE]]]]; a bare BASE-QUOTE name
// is a spot market.
type TradingPair struct {
	name   string
	market MarketInfo
}

// NewTradingPair parses a client market name into a trading pair.
func NewTradingPair(name string) (TradingPair, error) {
	split := strings.Split(name, "-")

	market := MarketInfo{InstrumentType: InstrumentSpot}
	if len(split) > 0 {
		market.Base = split[0]
	}
	if len(split) > 1 {
		market.Quote = split[1]
	}
	if len(split) > 2 {
		market.InstrumentType = InstrumentType(split[2])
	}

	if market.InstrumentType.IsDerivative() && !market.InstrumentType.IsPerpetual() {
		if len(split) > 3 {
			market.Timeframe = Timeframe(split[3])
		} else {
			market.Timeframe = TimeframeUndefined
		}
		if len(split) > 4 {
			expiry, err := time.Parse(expiryLayout, split[4])
			if err != nil {
				return TradingPair{}, err
			}
			market.Expiry = expiry
		}
		if market.InstrumentType.IsOption() && len(split) > 5 {
			strike, err := decimal.NewFromString(split[5])
			if err != nil {
				return TradingPair{}, err
			}
			market.Strike = &strike
		}
	}

	if err := market.Validate(); err != nil {
		return TradingPair{}, err
	}
	return TradingPair{name: name, market: market}, nil
}

// MustTradingPair is NewTradingPair that panics on malformed names.
// Intended for static pair declarations and tests.
func MustTradingPair(name string) TradingPair {
	pair, err := NewTradingPair(name)
	if err != nil {
		panic(err)
	}
	return pair
}

// Name returns the client market name the pair was parsed from.
func (p TradingPair) Name() string { return p.name }

// Base returns the base currency symbol.
func (p TradingPair) Base() string { return p.market.Base }

// Quote returns the quote currency symbol.
func (p TradingPair) Quote() string { return p.market.Quote }

// Market returns the structural market description.
func (p TradingPair) Market() MarketInfo { return p.market }

// InstrumentType returns the market family.
func (p TradingPair) InstrumentType() InstrumentType { return p.market.InstrumentType }

func (p TradingPair) String() string { return p.name }
