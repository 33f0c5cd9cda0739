package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTradingPair_ParseSpot(t *testing.T) {
	pair, err := NewTradingPair("BTC-USDT")
	require.NoError(t, err)
	require.Equal(t, "BTC", pair.Base())
	require.Equal(t, "USDT", pair.Quote())
	require.True(t, pair.InstrumentType().IsSpot())
	require.Equal(t, "BTC-USDT", pair.Name())
}

func TestTradingPair_ParsePerpetual(t *testing.T) {
	pair, err := NewTradingPair("BTC-USDT-PERPETUAL")
	require.NoError(t, err)
	require.True(t, pair.InstrumentType().IsPerpetual())
	require.True(t, pair.InstrumentType().IsLinear())

	inverse, err := NewTradingPair("BTC-USDT-INVERSE_PERPETUAL")
	require.NoError(t, err)
	require.True(t, inverse.InstrumentType().IsInverse())
}

func TestTradingPair_ParseFuture(t *testing.T) {
	pair, err := NewTradingPair("BTC-USDT-FUTURE-1M-20270129")
	require.NoError(t, err)
	require.True(t, pair.InstrumentType().IsFuture())
	require.Equal(t, TimeframeMonthly, pair.Market().Timeframe)
	require.Equal(t, time.Date(2027, 1, 29, 0, 0, 0, 0, time.UTC), pair.Market().Expiry)
}

func TestTradingPair_ParseOption(t *testing.T) {
	pair, err := NewTradingPair("BTC-USDT-CALL_OPTION-1M-20270129-60000")
	require.NoError(t, err)
	require.True(t, pair.InstrumentType().IsOption())
	require.True(t, pair.InstrumentType().IsCall())
	require.NotNil(t, pair.Market().Strike)
	require.True(t, d("60000").Equal(*pair.Market().Strike))
}

func TestTradingPair_ParseFailures(t *testing.T) {
	_, err := NewTradingPair("BTC")
	require.ErrorIs(t, err, ErrQuoteAssetEmpty)

	_, err = NewTradingPair("BTC-USDT-CALL_OPTION-1M-20270129")
	require.ErrorIs(t, err, ErrStrikeRequired)

	_, err = NewTradingPair("BTC-USDT-FUTURE-1M")
	require.ErrorIs(t, err, ErrExpiryRequired)

	_, err = NewTradingPair("BTC-USDT-FUTURE-1M-notadate")
	require.Error(t, err)
}

func TestTimeframe_Duration(t *testing.T) {
	duration, err := TimeframeQuadHourly.Duration()
	require.NoError(t, err)
	require.Equal(t, 4*time.Hour, duration)

	duration, err = TimeframeDaily.Duration()
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, duration)

	// monthly codes span the maximum length of the period
	duration, err = TimeframeMonthly.Duration()
	require.NoError(t, err)
	require.Equal(t, 31*24*time.Hour, duration)

	_, err = TimeframeUndefined.Duration()
	require.ErrorIs(t, err, ErrInvalidTimeframe)
}
