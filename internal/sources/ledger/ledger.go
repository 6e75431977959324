// Package ledger reads raw content-creation actions from the chain ledger
// database. The ledger is an external collaborator: this client only ever
// issues range reads, it never writes. A full-history fetch is dominated by
// the ledger's own responsiveness, so every query is windowed to one year.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/CryptoSharon/hive-stats/internal/domain"
)

// Client queries the action ledger.
type Client struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewClient creates a ledger client over an existing connection.
func NewClient(db *sqlx.DB, timeout time.Duration) *Client {
	return &Client{db: db, timeout: timeout}
}

// FetchActions returns every post and comment action in [from, to), ordered
// by timestamp. The filter is a half-open range predicate on the stored
// timestamp column so the ledger's index is usable; deriving the year from
// the timestamp inside SQL would defeat it.
func (c *Client) FetchActions(ctx context.Context, from, to time.Time) ([]domain.Action, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT account, ts, kind
		FROM account_actions
		WHERE ts >= $1 AND ts < $2
		ORDER BY ts ASC`

	var actions []domain.Action
	if err := c.db.SelectContext(ctx, &actions, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to fetch actions in [%s, %s): %w",
			from.Format("2006-01-02"), to.Format("2006-01-02"), err)
	}

	return actions, nil
}
