package candle

import (
	"context"
	"sort"
	"sync"
	"time"

	"merco-go/internal/timeframe"
)

// InMemoryRepository is a mutex-guarded fake Repository for tests, shaped
// like the pack's in-memory store fakes: a map keyed by the entity's
// natural key, guarded by a single RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	candles map[Key]Candle
}

// NewInMemoryRepository returns an empty fake repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{candles: make(map[Key]Candle)}
}

func (r *InMemoryRepository) InsertMany(_ context.Context, candles []Candle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range candles {
		r.candles[c.Key()] = c
	}
	return nil
}

func (r *InMemoryRepository) Range(_ context.Context, exchange, symbol string, tf timeframe.Timeframe, start, end time.Time) ([]Candle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Candle
	for _, c := range r.candles {
		if c.Exchange != exchange || c.Symbol != symbol || c.Timeframe != tf {
			continue
		}
		if !start.IsZero() && c.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *InMemoryRepository) Latest(_ context.Context, exchange, symbol string, tf timeframe.Timeframe) (Candle, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest Candle
	found := false
	for _, c := range r.candles {
		if c.Exchange != exchange || c.Symbol != symbol || c.Timeframe != tf {
			continue
		}
		if !found || c.Timestamp.After(latest.Timestamp) {
			latest = c
			found = true
		}
	}
	return latest, found, nil
}
