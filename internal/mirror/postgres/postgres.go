// Package postgres is a remote mirror backed by a single jsonb table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/MrJamesThe3rd/oficina/internal/mirror"
)

const schema = `
	CREATE TABLE IF NOT EXISTS sync_records (
		collection TEXT NOT NULL,
		key        TEXT NOT NULL,
		data       JSONB NOT NULL,
		synced_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (collection, key)
	)
`

type Remote struct {
	db *sql.DB
}

func New(db *sql.DB) *Remote {
	return &Remote{db: db}
}

// Migrate creates the records table if it does not exist.
func (r *Remote) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating sync_records: %w", err)
	}

	return nil
}

func (r *Remote) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Replace swaps the whole collection in one transaction.
func (r *Remote) Replace(ctx context.Context, c mirror.Collection, records []mirror.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_records WHERE collection = $1`, c); err != nil {
		return fmt.Errorf("clearing %s: %w", c, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sync_records (collection, key, data, synced_at)
		VALUES ($1, $2, $3, NOW())
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, c, rec.Key, string(rec.Data)); err != nil {
			return fmt.Errorf("inserting %s/%s: %w", c, rec.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", c, err)
	}

	return nil
}

// cursor is the last row of the previous page; pages continue strictly
// after (value, key).
type cursor struct {
	Value json.RawMessage `json:"v"`
	Key   string          `json:"k"`
}

func encodeCursor(cur cursor) (string, error) {
	b, err := json.Marshal(cur)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeCursor(s string) (cursor, error) {
	var cur cursor

	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cur, fmt.Errorf("invalid cursor: %w", err)
	}

	if err := json.Unmarshal(b, &cur); err != nil {
		return cur, fmt.Errorf("invalid cursor: %w", err)
	}

	if len(cur.Value) == 0 {
		cur.Value = json.RawMessage("null")
	}

	return cur, nil
}

// pageQuery builds the keyset query and its arguments. The order field is
// passed as a parameter and split into a jsonb path; an empty field orders
// by key.
func pageQuery(c mirror.Collection, field string, cur *cursor, limit int) (string, []any) {
	args := []any{c}

	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sortExpr := `to_jsonb(key)`
	if field != "" {
		sortExpr = `COALESCE(data #> string_to_array(` + param(field) + `, '.'), 'null'::jsonb)`
	}

	query := `SELECT key, data, ` + sortExpr + ` AS sort_value
		FROM sync_records
		WHERE collection = $1`

	if cur != nil {
		query += ` AND (` + sortExpr + `, key) > (` + param(string(cur.Value)) + `::jsonb, ` + param(cur.Key) + `)`
	}

	query += ` ORDER BY sort_value, key LIMIT ` + param(limit)

	return query, args
}

func (r *Remote) Page(ctx context.Context, c mirror.Collection, q mirror.PageQuery) (mirror.Page, error) {
	if q.OrderBy != "" && !mirror.ValidField(q.OrderBy) {
		return mirror.Page{}, fmt.Errorf("invalid order field %q", q.OrderBy)
	}

	size := q.Size
	if size <= 0 {
		size = 50
	}

	var cur *cursor

	if q.Cursor != "" {
		decoded, err := decodeCursor(q.Cursor)
		if err != nil {
			return mirror.Page{}, err
		}

		cur = &decoded
	}

	// One extra row tells whether another page exists.
	query, args := pageQuery(c, q.OrderBy, cur, size+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return mirror.Page{}, fmt.Errorf("querying %s: %w", c, err)
	}
	defer rows.Close()

	var (
		page  mirror.Page
		sorts []string
	)

	for rows.Next() {
		var (
			rec       mirror.Record
			data      string
			sortValue string
		)

		if err := rows.Scan(&rec.Key, &data, &sortValue); err != nil {
			return mirror.Page{}, fmt.Errorf("scanning %s record: %w", c, err)
		}

		rec.Data = json.RawMessage(data)
		page.Records = append(page.Records, rec)
		sorts = append(sorts, sortValue)
	}

	if err := rows.Err(); err != nil {
		return mirror.Page{}, fmt.Errorf("reading %s: %w", c, err)
	}

	if len(page.Records) > size {
		page.Records = page.Records[:size]

		last := page.Records[size-1]

		page.Next, err = encodeCursor(cursor{Value: json.RawMessage(sorts[size-1]), Key: last.Key})
		if err != nil {
			return mirror.Page{}, fmt.Errorf("encoding cursor: %w", err)
		}
	}

	return page, nil
}
