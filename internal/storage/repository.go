package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	hasActiveRulesSQL = `SELECT EXISTS (
        SELECT 1 FROM watch_rules
        WHERE is_closed = 0
          AND code = $1
          AND remind_type IN ('0', '1')
    );`

	listActiveRulesSQL = `SELECT
        id,
        code,
        remind_price::text,
        remind_type,
        is_closed
    FROM watch_rules
    WHERE is_closed = 0
      AND code = $1
      AND remind_type IN ('0', '1');`

	listRulesSQL = `SELECT
        id,
        code,
        remind_price::text,
        remind_type,
        is_closed
    FROM watch_rules
    ORDER BY id DESC
    LIMIT $1;`

	closeRuleSQL = `UPDATE watch_rules SET is_closed = 1 WHERE id = $1;`
)

// RuleStore defines the watch rule persistence operations the poll cycle
// depends on.
type RuleStore interface {
	HasActiveRules(ctx context.Context, code string) (bool, error)
	ListActiveRules(ctx context.Context, code string) ([]WatchRule, error)
	CloseRule(ctx context.Context, id int64) error
}

// Store provides watch rule access backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// HasActiveRules reports whether at least one open rule exists for the
// instrument. Zero rows is a normal false, not an error; only a failed query
// reaches the caller, which is expected to fail closed.
func (s *Store) HasActiveRules(ctx context.Context, code string) (bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return false, err
	}

	var exists bool
	if scanErr := pool.QueryRow(ctx, hasActiveRulesSQL, code).Scan(&exists); scanErr != nil {
		return false, fmt.Errorf("check active rules: %w", scanErr)
	}
	return exists, nil
}

// ListActiveRules returns all open rules for the instrument in unspecified
// order.
func (s *Store) ListActiveRules(ctx context.Context, code string) ([]WatchRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listActiveRulesSQL, code)
	if queryErr != nil {
		return nil, fmt.Errorf("list active rules: %w", queryErr)
	}
	defer rows.Close()

	return collectRules(rows)
}

// ListRules returns the most recently created rules regardless of state.
func (s *Store) ListRules(ctx context.Context, limit int) ([]WatchRule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRulesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list rules: %w", queryErr)
	}
	defer rows.Close()

	return collectRules(rows)
}

// CloseRule marks the rule as fired. Closing an already closed rule is a
// harmless overwrite, so repeated calls after a delivered alert cannot fail
// the cycle.
func (s *Store) CloseRule(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, closeRuleSQL, id); execErr != nil {
		return fmt.Errorf("close rule %d: %w", id, execErr)
	}
	return nil
}

func collectRules(rows pgx.Rows) ([]WatchRule, error) {
	rules := make([]WatchRule, 0)
	for rows.Next() {
		rule, scanErr := scanWatchRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rules = append(rules, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return rules, nil
}

func scanWatchRule(rows pgx.Rows) (WatchRule, error) {
	var (
		id         int64
		code       string
		priceStr   string
		remindType string
		isClosed   int16
	)

	if err := rows.Scan(&id, &code, &priceStr, &remindType, &isClosed); err != nil {
		return WatchRule{}, err
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return WatchRule{}, fmt.Errorf("parse remind_price for rule %d: %w", id, err)
	}

	direction, err := ParseDirection(remindType)
	if err != nil {
		return WatchRule{}, fmt.Errorf("rule %d: %w", id, err)
	}

	return WatchRule{
		ID:          id,
		Code:        code,
		RemindPrice: price,
		Direction:   direction,
		Closed:      isClosed != 0,
	}, nil
}

var _ RuleStore = (*Store)(nil)
