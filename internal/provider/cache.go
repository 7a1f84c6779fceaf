package provider

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"EtfSentry/internal/model"
)

// BarCache persists fetched daily bars in a SQLite file so repeated runs
// within the staleness window skip the network entirely.
type BarCache struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenBarCache opens (or creates) the cache database and runs migrations.
func OpenBarCache(path string) (*BarCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	// WAL mode so a watch-mode run can read while another writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &BarCache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return c, nil
}

func (c *BarCache) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL,
			high   REAL,
			low    REAL,
			close  REAL,
			volume REAL,
			PRIMARY KEY (symbol, ts)
		)`,
		`CREATE TABLE IF NOT EXISTS fetches (
			symbol     TEXT PRIMARY KEY,
			fetched_at INTEGER NOT NULL,
			bar_count  INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:32], err)
		}
	}
	return nil
}

// Store replaces the cached series for the snapshot's symbol.
func (c *BarCache) Store(snap *model.MarketSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("cache store begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM bars WHERE symbol = ?`, snap.Symbol); err != nil {
		return fmt.Errorf("cache clear %s: %w", snap.Symbol, err)
	}
	for _, b := range snap.Bars {
		if _, err := tx.Exec(
			`INSERT INTO bars (symbol, ts, open, high, low, close, volume) VALUES (?,?,?,?,?,?,?)`,
			snap.Symbol, b.Time.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("cache insert %s: %w", snap.Symbol, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO fetches (symbol, fetched_at, bar_count) VALUES (?,?,?)
		 ON CONFLICT(symbol) DO UPDATE SET fetched_at=excluded.fetched_at, bar_count=excluded.bar_count`,
		snap.Symbol, snap.FetchedAt.Unix(), len(snap.Bars),
	); err != nil {
		return fmt.Errorf("cache mark fetch %s: %w", snap.Symbol, err)
	}
	return tx.Commit()
}

// Load returns the cached series if it was fetched within maxAge and holds
// at least lookbackBars bars; otherwise ok is false.
func (c *BarCache) Load(symbol string, lookbackBars int, maxAge time.Duration) (*model.MarketSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var fetchedAt int64
	var barCount int
	err := c.db.QueryRow(`SELECT fetched_at, bar_count FROM fetches WHERE symbol = ?`, symbol).
		Scan(&fetchedAt, &barCount)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup %s: %w", symbol, err)
	}
	if barCount < lookbackBars || time.Since(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false, nil
	}

	rows, err := c.db.Query(
		`SELECT ts, open, high, low, close, volume FROM bars
		 WHERE symbol = ? ORDER BY ts DESC LIMIT ?`, symbol, lookbackBars)
	if err != nil {
		return nil, false, fmt.Errorf("cache read %s: %w", symbol, err)
	}
	defer rows.Close()

	var reversed []model.OHLCV
	for rows.Next() {
		var ts int64
		var b model.OHLCV
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("cache scan %s: %w", symbol, err)
		}
		b.Time = time.Unix(ts, 0).UTC()
		reversed = append(reversed, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("cache rows %s: %w", symbol, err)
	}

	bars := make([]model.OHLCV, len(reversed))
	for i, b := range reversed {
		bars[len(bars)-1-i] = b
	}
	return &model.MarketSnapshot{
		Symbol:    symbol,
		Bars:      bars,
		FetchedAt: time.Unix(fetchedAt, 0).UTC(),
	}, true, nil
}

func (c *BarCache) Close() error { return c.db.Close() }

// Cached wraps a Provider with the bar cache: fresh cached series
// short-circuit the network, fetched series are written back. Cache
// trouble never fails a fetch; it only costs the short-circuit.
type Cached struct {
	inner  Provider
	cache  *BarCache
	maxAge time.Duration
	log    zerolog.Logger
}

func NewCached(inner Provider, cache *BarCache, maxAge time.Duration, log zerolog.Logger) *Cached {
	return &Cached{
		inner:  inner,
		cache:  cache,
		maxAge: maxAge,
		log:    log.With().Str("provider", "cached+"+inner.Name()).Logger(),
	}
}

func (p *Cached) Name() string { return "cached+" + p.inner.Name() }

func (p *Cached) Fetch(ctx context.Context, symbol string, lookbackBars int) (*model.MarketSnapshot, error) {
	snap, ok, err := p.cache.Load(symbol, lookbackBars, p.maxAge)
	if err != nil {
		p.log.Warn().Str("symbol", symbol).Err(err).Msg("cache read failed, falling through")
	} else if ok {
		p.log.Debug().Str("symbol", symbol).Int("bars", len(snap.Bars)).Msg("cache hit")
		return snap, nil
	}

	snap, err = p.inner.Fetch(ctx, symbol, lookbackBars)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Store(snap); err != nil {
		p.log.Warn().Str("symbol", symbol).Err(err).Msg("cache write failed")
	}
	return snap, nil
}
