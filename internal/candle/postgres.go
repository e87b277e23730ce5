package candle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"merco-go/internal/timeframe"
)

// upsertCandleSQL inserts one candle and skips it when its primary key is
// already stored. The candles table itself is created by the migrations in
// internal/infra/migrations at startup.
const upsertCandleSQL = `
	INSERT INTO candles (timestamp, exchange, symbol, timeframe, open, high, low, close, volume)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (exchange, symbol, timeframe, timestamp) DO NOTHING
`

const rangeCandlesSQL = `
	SELECT timestamp, exchange, symbol, timeframe, open, high, low, close, volume
	  FROM candles
	 WHERE exchange = $1 AND symbol = $2 AND timeframe = $3
	   AND ($4::timestamptz IS NULL OR timestamp >= $4)
	   AND ($5::timestamptz IS NULL OR timestamp <= $5)
	 ORDER BY timestamp ASC
`

const latestCandleSQL = `
	SELECT timestamp, exchange, symbol, timeframe, open, high, low, close, volume
	  FROM candles
	 WHERE exchange = $1 AND symbol = $2 AND timeframe = $3
	 ORDER BY timestamp DESC
	 LIMIT 1
`

// PostgresRepository is the Repository implementation backed by
// database/sql over the pgx/v5 stdlib driver, following the teacher's
// libs/database connection conventions (database/sql, not pgxpool — the
// teacher never imports pgxpool directly).
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wraps an already-connected *sql.DB (see
// internal/config and cmd/merco-server for how the pool is constructed and
// migrated).
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertMany(ctx context.Context, candles []Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertCandleSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx,
			c.Timestamp, c.Exchange, c.Symbol, c.Timeframe.String(),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume.String(),
		)
		if err != nil {
			return fmt.Errorf("upsert candle %s/%s/%s at %v: %w", c.Exchange, c.Symbol, c.Timeframe, c.Timestamp, err)
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) Range(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe, start, end time.Time) ([]Candle, error) {
	var startArg, endArg interface{}
	if !start.IsZero() {
		startArg = start
	}
	if !end.IsZero() {
		endArg = end
	}

	rows, err := r.db.QueryContext(ctx, rangeCandlesSQL, exchange, symbol, tf.String(), startArg, endArg)
	if err != nil {
		return nil, fmt.Errorf("query candle range: %w", err)
	}
	defer rows.Close()

	var out []Candle
	for rows.Next() {
		c, err := scanCandle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Latest(ctx context.Context, exchange, symbol string, tf timeframe.Timeframe) (Candle, bool, error) {
	row := r.db.QueryRowContext(ctx, latestCandleSQL, exchange, symbol, tf.String())
	c, err := scanCandleRow(row)
	if err == sql.ErrNoRows {
		return Candle{}, false, nil
	}
	if err != nil {
		return Candle{}, false, fmt.Errorf("query latest candle: %w", err)
	}
	return c, true, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanCandle(rows *sql.Rows) (Candle, error) {
	return scanCandleRow(rows)
}

func scanCandleRow(row scannable) (Candle, error) {
	var (
		c                                 Candle
		tfTag                             string
		openS, highS, lowS, closeS, volS  string
	)

	if err := row.Scan(&c.Timestamp, &c.Exchange, &c.Symbol, &tfTag, &openS, &highS, &lowS, &closeS, &volS); err != nil {
		return Candle{}, err
	}

	tf, err := timeframe.Parse(tfTag)
	if err != nil {
		return Candle{}, fmt.Errorf("scan candle: %w", err)
	}
	c.Timeframe = tf

	for _, pair := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&c.Open, openS}, {&c.High, highS}, {&c.Low, lowS}, {&c.Close, closeS}, {&c.Volume, volS},
	} {
		d, err := decimal.NewFromString(pair.src)
		if err != nil {
			return Candle{}, fmt.Errorf("scan candle decimal field: %w", err)
		}
		*pair.dst = d
	}

	return c, nil
}
