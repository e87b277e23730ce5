package backtest

// Strategy is the well-known capability every compiled plugin artifact
// exports, per spec §4.5: observe the account (candles, balance,
// position, trades, open orders, precision) and optionally mutate it
// through one bar.
type Strategy interface {
	Tick(account *StrategyAccount) error
}

// Host resolves a strategy by name into a live Strategy plus a release
// function the caller must call once done with it. Implementations own
// whatever loading mechanism is appropriate (a Go plugin, an in-process
// registry, a subprocess) — the engine only depends on this interface to
// avoid importing internal/strategyhost directly.
type Host interface {
	Load(name string) (strategy Strategy, release func() error, err error)
}
