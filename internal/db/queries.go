package db

import (
	"database/sql"
	"time"

	"github.com/hpungsan/clipz/internal/entry"
	"github.com/hpungsan/clipz/internal/errors"
)

// LoadEntries returns every stored entry in insertion order.
func LoadEntries(db *sql.DB) ([]*entry.Entry, error) {
	rows, err := db.Query(`
		SELECT id, text, created_at, last_copied_at, copy_count,
			last_pasted_at, paste_count, pinned, pin_order
		FROM entries
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var entries []*entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return entries, nil
}

// ReplaceEntries rewrites the whole table with entries in a single transaction.
// The slice order becomes the stored position.
func ReplaceEntries(db *sql.DB, entries []*entry.Entry) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return errors.NewInternal(err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (
			id, position, text, created_at, last_copied_at, copy_count,
			last_pasted_at, paste_count, pinned, pin_order
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer stmt.Close()

	for i, e := range entries {
		var pasted sql.NullInt64
		if e.LastPastedAt != nil {
			pasted = toNullUnix(*e.LastPastedAt)
		}
		var order sql.NullInt64
		if e.Pinned && e.PinOrder != nil {
			order = sql.NullInt64{Int64: int64(*e.PinOrder), Valid: true}
		}
		_, err := stmt.Exec(
			e.ID, i, e.Text,
			toNullUnix(e.CreatedAt), toNullUnix(e.LastCopiedAt), e.CopyCount,
			pasted, e.PasteCount, e.Pinned, order,
		)
		if err != nil {
			return errors.NewInternal(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// CountEntries returns the number of stored entries.
func CountEntries(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// scanEntry scans a row into an Entry.
func scanEntry(rows *sql.Rows) (*entry.Entry, error) {
	var (
		e                       entry.Entry
		created, copied, pasted sql.NullInt64
		pinned                  bool
		order                   sql.NullInt64
	)
	err := rows.Scan(
		&e.ID, &e.Text, &created, &copied, &e.CopyCount,
		&pasted, &e.PasteCount, &pinned, &order,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt = fromNullUnix(created)
	e.LastCopiedAt = fromNullUnix(copied)
	if e.LastCopiedAt.IsZero() {
		e.LastCopiedAt = e.CreatedAt
	}
	if pasted.Valid {
		t := fromNullUnix(pasted)
		e.LastPastedAt = &t
	}
	if e.CopyCount < 1 {
		e.CopyCount = 1
	}
	if e.PasteCount < 0 {
		e.PasteCount = 0
	}
	e.Pinned = pinned
	if pinned && order.Valid && order.Int64 >= 0 {
		o := int(order.Int64)
		e.PinOrder = &o
	}
	return &e, nil
}

// toNullUnix stores t as Unix nanoseconds; the zero time is NULL.
func toNullUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullUnix(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64)
}
