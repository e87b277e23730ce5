// Package decimalx provides the rounding helpers shared by the candle
// repository and the backtest engine. Every monetary or quantity value in
// this service is a shopspring/decimal.Decimal; binary floats never enter a
// computed or stored value.
package decimalx

import "github.com/shopspring/decimal"

// FloorToTick rounds v down to the nearest multiple of tick. Used for order
// sizing and price placement: a strategy may never submit a price or amount
// finer than the exchange's precision allows.
//
// tick <= 0 is treated as "no rounding" and returns v unchanged. The
// backtest engine does not check the precision it is given, so a zero tick
// from the market-data source leaves values unrounded.
func FloorToTick(v, tick decimal.Decimal) decimal.Decimal {
	if tick.Sign() <= 0 {
		return v
	}
	return v.Div(tick).Floor().Mul(tick)
}

// CeilToTick rounds v up to the nearest multiple of tick. Used for fees: a
// fee must never be under-charged by truncation.
func CeilToTick(v, tick decimal.Decimal) decimal.Decimal {
	if tick.Sign() <= 0 {
		return v
	}
	return v.Div(tick).Ceil().Mul(tick)
}

// MakerFee returns the fee owed on notional at the maker rate, rounded up
// to priceTick.
func MakerFee(notional, makerRate, priceTick decimal.Decimal) decimal.Decimal {
	return CeilToTick(notional.Mul(makerRate), priceTick)
}

// TakerFee returns the fee owed on notional at the taker rate, rounded up
// to priceTick.
func TakerFee(notional, takerRate, priceTick decimal.Decimal) decimal.Decimal {
	return CeilToTick(notional.Mul(takerRate), priceTick)
}
