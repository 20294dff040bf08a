package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/family-finance-go/internal/domain"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
)

// eq builds a PostgREST equality filter value.
func eq(v string) string { return "eq." + v }

func userFilter(userID string) url.Values {
	return url.Values{"user_id": {eq(userID)}}
}

// selectRows GETs table filtered by q and decodes the JSON array into []R.
func selectRows[R any](ctx context.Context, c *Client, operation, table string, q url.Values) ([]R, error) {
	var rows []R
	err := c.execute(ctx, operation, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, table+"?"+q.Encode())
		if err != nil {
			return err
		}
		rows = nil
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s: %w", table, err))
		}
		return nil
	})
	return rows, err
}

// insertRow POSTs row, whose primary key is id, and decodes the single stored
// representation. A 409 after a failed attempt means the earlier attempt
// landed, so the stored row is read back by id. Any other 409 is a conflict.
func insertRow[R any](ctx context.Context, c *Client, operation, table, id string, row R) (R, error) {
	var stored R
	attempt := 0
	err := c.execute(ctx, operation, func() error {
		attempt++
		body, err := c.doPost(ctx, table, row)
		var se *statusError
		if errors.As(err, &se) && se.Status == http.StatusConflict {
			if attempt > 1 {
				return readBack(ctx, c, table, id, &stored)
			}
			return &domain.ErrConflict{Message: fmt.Sprintf("%s %s already exists", table, id)}
		}
		if err != nil {
			return err
		}
		var rows []R
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s insert: %w", table, err))
		}
		if len(rows) == 0 {
			return resilience.Permanent(fmt.Errorf("insert into %s returned no rows", table))
		}
		stored = rows[0]
		return nil
	})
	return stored, err
}

func readBack[R any](ctx context.Context, c *Client, table, id string, stored *R) error {
	q := url.Values{"id": {eq(id)}}
	body, err := c.doRequest(ctx, http.MethodGet, table+"?"+q.Encode())
	if err != nil {
		return err
	}
	var rows []R
	if err := json.Unmarshal(body, &rows); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s read-back: %w", table, err))
	}
	if len(rows) == 0 {
		return &domain.ErrConflict{Message: fmt.Sprintf("%s %s conflicts with an existing row", table, id)}
	}
	*stored = rows[0]
	return nil
}

// deleteRow deletes the user's row id from table. An empty representation
// means nothing matched.
func deleteRow(ctx context.Context, c *Client, operation, table, resource, userID, id string) error {
	q := userFilter(userID)
	q.Set("id", eq(id))
	return c.execute(ctx, operation, func() error {
		body, err := c.doDelete(ctx, table+"?"+q.Encode())
		if err != nil {
			return err
		}
		var deleted []json.RawMessage
		if len(body) > 0 {
			if err := json.Unmarshal(body, &deleted); err != nil {
				return resilience.Permanent(fmt.Errorf("decode delete: %w", err))
			}
		}
		if len(deleted) == 0 {
			return &domain.ErrNotFound{Resource: resource, ID: id}
		}
		return nil
	})
}
