// Package backtest implements the deterministic market simulator of spec
// §4.4: a per-bar replay loop over stored candles that fills resting
// limit orders against OHLC bars, calls into a user strategy plugin, and
// enforces exchange precision/fee rules on every trade. It is wired into
// the task orchestrator as a task.Runner for task.TypeBacktest.
package backtest

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"merco-go/internal/candle"
	"merco-go/internal/decimalx"
	"merco-go/internal/marketdata"
)

// OrderKind discriminates the two resting-order shapes a strategy may
// place; market orders never rest, so they have no Order representation.
type OrderKind string

const (
	OrderLimitBuy  OrderKind = "limit_buy"
	OrderLimitSell OrderKind = "limit_sell"
)

// Order is a resting limit order awaiting a crossing bar.
type Order struct {
	ID     uuid.UUID
	Kind   OrderKind
	Price  decimal.Decimal
	Amount decimal.Decimal
	Fee    decimal.Decimal // reserved at placement time; consumed on fill
}

// TradeKind discriminates every fill an account can record.
type TradeKind string

const (
	TradeMarketBuy  TradeKind = "market_buy"
	TradeMarketSell TradeKind = "market_sell"
	TradeLimitBuy   TradeKind = "limit_buy"
	TradeLimitSell  TradeKind = "limit_sell"
)

// Trade is an executed fill, market or limit.
type Trade struct {
	Kind   TradeKind
	Price  decimal.Decimal
	Amount decimal.Decimal
	Fee    decimal.Decimal
}

// StrategyAccount is the virtual account a strategy observes and mutates
// through one tick. balance is quote currency, position is base currency;
// both are always >= 0 — this layer forbids short selling and margin.
type StrategyAccount struct {
	Balance      decimal.Decimal
	Position     decimal.Decimal
	Trades       []Trade
	Orders       []Order
	Fees         marketdata.Fees
	Precision    marketdata.Precision
	CandleWindow []candle.Candle
}

// NewAccount builds the initial account for a backtest: 10000 quote,
// zero position, per spec §4.4 step 3.
func NewAccount(fees marketdata.Fees, precision marketdata.Precision) *StrategyAccount {
	return &StrategyAccount{
		Balance:   decimal.NewFromInt(10000),
		Position:  decimal.Zero,
		Fees:      fees,
		Precision: precision,
	}
}

// closePrice is the last candle in the window — "current bar's close" in
// the account-operation contracts below.
func (a *StrategyAccount) closePrice() (decimal.Decimal, error) {
	if len(a.CandleWindow) == 0 {
		return decimal.Zero, fmt.Errorf("backtest: no candle in window yet")
	}
	return a.CandleWindow[len(a.CandleWindow)-1].Close, nil
}

// MarketBuy executes an immediate buy at the current bar's close, taker
// fee, debiting balance and crediting position.
func (a *StrategyAccount) MarketBuy(amount decimal.Decimal) error {
	amount = decimalx.FloorToTick(amount, a.Precision.Size)
	if amount.Sign() <= 0 {
		return fmt.Errorf("backtest: market_buy amount must be positive")
	}
	close, err := a.closePrice()
	if err != nil {
		return err
	}
	price := decimalx.FloorToTick(close, a.Precision.Price)
	cost := price.Mul(amount)
	fee := decimalx.TakerFee(cost, a.Fees.Taker, a.Precision.Price)
	total := cost.Add(fee)
	if total.GreaterThan(a.Balance) {
		return fmt.Errorf("backtest: market_buy requires %s, balance is %s", total, a.Balance)
	}

	a.Balance = a.Balance.Sub(total)
	a.Position = a.Position.Add(amount)
	a.Trades = append(a.Trades, Trade{Kind: TradeMarketBuy, Price: price, Amount: amount, Fee: fee})
	return nil
}

// MarketSell executes an immediate sell at the current bar's close,
// taker fee, debiting position and crediting balance.
func (a *StrategyAccount) MarketSell(amount decimal.Decimal) error {
	amount = decimalx.FloorToTick(amount, a.Precision.Size)
	if amount.Sign() <= 0 {
		return fmt.Errorf("backtest: market_sell amount must be positive")
	}
	if amount.GreaterThan(a.Position) {
		return fmt.Errorf("backtest: market_sell amount %s exceeds position %s", amount, a.Position)
	}
	close, err := a.closePrice()
	if err != nil {
		return err
	}
	price := decimalx.FloorToTick(close, a.Precision.Price)
	proceeds := price.Mul(amount)
	fee := decimalx.TakerFee(proceeds, a.Fees.Taker, a.Precision.Price)

	a.Position = a.Position.Sub(amount)
	a.Balance = a.Balance.Add(proceeds.Sub(fee))
	a.Trades = append(a.Trades, Trade{Kind: TradeMarketSell, Price: price, Amount: amount, Fee: fee})
	return nil
}

// LimitBuy places a resting buy, or downgrades to an immediate market_buy
// if price already crosses the current close. Returns the new order's id,
// or nil if it was downgraded to a market fill.
func (a *StrategyAccount) LimitBuy(price, amount decimal.Decimal) (*uuid.UUID, error) {
	price = decimalx.FloorToTick(price, a.Precision.Price)
	amount = decimalx.FloorToTick(amount, a.Precision.Size)
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("backtest: limit_buy amount must be positive")
	}

	close, err := a.closePrice()
	if err != nil {
		return nil, err
	}
	if price.GreaterThanOrEqual(close) {
		return nil, a.MarketBuy(amount)
	}

	cost := price.Mul(amount)
	fee := decimalx.MakerFee(cost, a.Fees.Maker, a.Precision.Price)
	reserve := cost.Add(fee)
	if reserve.GreaterThan(a.Balance) {
		return nil, fmt.Errorf("backtest: limit_buy requires reserving %s, balance is %s", reserve, a.Balance)
	}

	a.Balance = a.Balance.Sub(reserve)
	id := uuid.New()
	a.Orders = append(a.Orders, Order{ID: id, Kind: OrderLimitBuy, Price: price, Amount: amount, Fee: fee})
	return &id, nil
}

// LimitSell places a resting sell, or downgrades to an immediate
// market_sell if price already crosses the current close.
func (a *StrategyAccount) LimitSell(price, amount decimal.Decimal) (*uuid.UUID, error) {
	price = decimalx.FloorToTick(price, a.Precision.Price)
	amount = decimalx.FloorToTick(amount, a.Precision.Size)
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("backtest: limit_sell amount must be positive")
	}
	if amount.GreaterThan(a.Position) {
		return nil, fmt.Errorf("backtest: limit_sell amount %s exceeds position %s", amount, a.Position)
	}

	close, err := a.closePrice()
	if err != nil {
		return nil, err
	}
	if price.LessThanOrEqual(close) {
		return nil, a.MarketSell(amount)
	}

	proceeds := price.Mul(amount)
	fee := decimalx.MakerFee(proceeds, a.Fees.Maker, a.Precision.Price)

	a.Position = a.Position.Sub(amount)
	id := uuid.New()
	a.Orders = append(a.Orders, Order{ID: id, Kind: OrderLimitSell, Price: price, Amount: amount, Fee: fee})
	return &id, nil
}

// CancelOrder refunds the order's reservation and removes it. An unknown
// id is silently ignored.
func (a *StrategyAccount) CancelOrder(id uuid.UUID) {
	for i, o := range a.Orders {
		if o.ID != id {
			continue
		}
		switch o.Kind {
		case OrderLimitBuy:
			a.Balance = a.Balance.Add(o.Price.Mul(o.Amount)).Add(o.Fee)
		case OrderLimitSell:
			a.Position = a.Position.Add(o.Amount)
		}
		a.Orders = append(a.Orders[:i], a.Orders[i+1:]...)
		return
	}
}

// fillPrelude runs the per-bar fill phase: for each open order in
// insertion order, fill it if the bar's low/high crosses its price.
func (a *StrategyAccount) fillPrelude(bar candle.Candle) {
	var remaining []Order
	for _, o := range a.Orders {
		switch o.Kind {
		case OrderLimitBuy:
			if o.Price.GreaterThanOrEqual(bar.Low) {
				a.Position = a.Position.Add(o.Amount)
				a.Trades = append(a.Trades, Trade{Kind: TradeLimitBuy, Price: o.Price, Amount: o.Amount, Fee: o.Fee})
				continue
			}
		case OrderLimitSell:
			if o.Price.LessThanOrEqual(bar.High) {
				proceeds := o.Price.Mul(o.Amount)
				a.Balance = a.Balance.Add(proceeds.Sub(o.Fee))
				a.Trades = append(a.Trades, Trade{Kind: TradeLimitSell, Price: o.Price, Amount: o.Amount, Fee: o.Fee})
				continue
			}
		}
		remaining = append(remaining, o)
	}
	a.Orders = remaining
}

// cancelAll cancels every remaining open order, refunding reservations —
// spec §4.4 step 6.
func (a *StrategyAccount) cancelAll() {
	for len(a.Orders) > 0 {
		a.CancelOrder(a.Orders[0].ID)
	}
}
