// Package filingsdb reads regulatory filings from Postgres.
package filingsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var ErrMissingDSN = errors.New("filingsdb: dsn is required")

type Config struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"5s"`
}

// Filing is one row of sec_filings.
type Filing struct {
	bun.BaseModel `bun:"table:sec_filings,alias:f"`

	ID        int64     `bun:"id,pk,autoincrement" json:"-"`
	Ticker    string    `bun:"ticker,notnull" json:"ticker"`
	FormType  string    `bun:"form_type,notnull" json:"form_type"`
	FiledAt   time.Time `bun:"filed_at,notnull" json:"filed_at"`
	Period    string    `bun:"period" json:"period,omitempty"`
	Title     string    `bun:"title" json:"title,omitempty"`
	URL       string    `bun:"url" json:"url,omitempty"`
	Summary   string    `bun:"summary" json:"summary,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"-"`
}

type Store struct {
	db *bun.DB
}

// Open prepares a connection pool. No connection is made until first use.
func Open(cfg Config) (*Store, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, ErrMissingDSN
	}
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.Timeout > 0 {
		opts = append(opts, pgdriver.WithTimeout(cfg.Timeout))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	return &Store{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("filingsdb: ping: %w", err)
	}
	return nil
}

func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Filing)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("filingsdb: create table: %w", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, filings ...Filing) error {
	if len(filings) == 0 {
		return nil
	}
	if _, err := s.db.NewInsert().Model(&filings).Exec(ctx); err != nil {
		return fmt.Errorf("filingsdb: insert: %w", err)
	}
	return nil
}

// LatestFilings returns up to perTicker filings for each ticker, newest first.
func (s *Store) LatestFilings(ctx context.Context, tickers []string, perTicker int) ([]Filing, error) {
	if perTicker <= 0 {
		perTicker = 5
	}
	var out []Filing
	for _, ticker := range tickers {
		var rows []Filing
		if err := s.latestQuery(&rows, ticker, perTicker).Scan(ctx); err != nil {
			return nil, fmt.Errorf("filingsdb: select %s: %w", ticker, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (s *Store) latestQuery(dest *[]Filing, ticker string, limit int) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(dest).
		Where("ticker = ?", strings.ToUpper(strings.TrimSpace(ticker))).
		OrderExpr("filed_at DESC").
		Limit(limit)
}

func (s *Store) Close() error {
	return s.db.Close()
}
