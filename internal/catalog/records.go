package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"uplink/internal/asset"
)

// SnapshotEntry describes one append batch in a table's history.
type SnapshotEntry struct {
	ID          string
	RecordCount int
	CreatedAt   time.Time
}

// Write appends the records to the (tier, table) log, recording one history
// snapshot for the batch, then runs the advisory keep-last dedup pass.
// Stage and status are transients and are not persisted; replaying the same
// asset replaces its durable row rather than diverging it.
func (s *Store) Write(ctx context.Context, tier, table string, records []asset.Asset) error {
	if !s.available() {
		return ErrUnavailable
	}
	if len(records) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		for _, record := range records {
			durable := record
			durable.Stage = ""
			durable.Status = ""
			payload, err := json.Marshal(durable)
			if err != nil {
				return fmt.Errorf("marshal record %s: %w", record.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO records (tier, tbl, asset_id, payload, written_at) VALUES (?, ?, ?, ?, ?)`,
				tier, table, record.ID, string(payload), now,
			); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (snapshot_id, tier, tbl, record_count, created_at) VALUES (?, ?, ?, ?, ?)`,
			uuid.NewString(), tier, table, len(records), now,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("append to %s.%s: %w", tier, table, err)
	}

	// Advisory cleanup; reads dedup regardless, so a failure here is not a
	// write failure.
	_ = s.execWithRetry(ctx,
		`DELETE FROM records WHERE tier = ? AND tbl = ? AND seq NOT IN (
			SELECT MAX(seq) FROM records WHERE tier = ? AND tbl = ? GROUP BY asset_id
		)`,
		tier, table, tier, table,
	)
	return nil
}

// FindAll returns the table's records deduplicated keep-last by asset id.
// The second return is false when the table has never been written or the
// scan fails — absent, not an error.
func (s *Store) FindAll(ctx context.Context, tier, table string) ([]asset.Asset, bool) {
	return s.scan(ctx, tier, table, "", "")
}

// FindByField returns records whose named field equals value, deduplicated
// keep-last, or absent on missing table or scan failure.
func (s *Store) FindByField(ctx context.Context, tier, table, field, value string) ([]asset.Asset, bool) {
	if field == "" {
		return nil, false
	}
	return s.scan(ctx, tier, table, field, value)
}

func (s *Store) scan(ctx context.Context, tier, table, field, value string) ([]asset.Asset, bool) {
	if !s.available() {
		return nil, false
	}
	ctx = ensureContext(ctx)

	query := `SELECT payload FROM records
		WHERE tier = ? AND tbl = ? AND seq IN (
			SELECT MAX(seq) FROM records WHERE tier = ? AND tbl = ? GROUP BY asset_id
		)`
	args := []any{tier, table, tier, table}
	if field != "" {
		query += ` AND json_extract(payload, '$.' || ?) = ?`
		args = append(args, field, value)
	}
	query += ` ORDER BY seq`

	var rows *sql.Rows
	if err := retryOnBusy(ctx, func() error {
		var err error
		rows, err = s.db.QueryContext(ctx, query, args...)
		return err
	}); err != nil {
		return nil, false
	}
	defer rows.Close()

	var out []asset.Asset
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, false
		}
		var record asset.Asset
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, false
		}
		out = append(out, record)
	}
	if rows.Err() != nil {
		return nil, false
	}
	if len(out) == 0 {
		// Distinguish "empty table" from "never written": only a table with
		// history counts as present.
		if !s.hasSnapshots(ctx, tier, table) {
			return nil, false
		}
	}
	return out, true
}

// History returns the table's append snapshots, oldest first, or absent when
// the table has never been written.
func (s *Store) History(ctx context.Context, tier, table string) ([]SnapshotEntry, bool) {
	if !s.available() {
		return nil, false
	}
	ctx = ensureContext(ctx)

	var rows *sql.Rows
	if err := retryOnBusy(ctx, func() error {
		var err error
		rows, err = s.db.QueryContext(ctx,
			`SELECT snapshot_id, record_count, created_at FROM snapshots
			 WHERE tier = ? AND tbl = ? ORDER BY created_at`,
			tier, table,
		)
		return err
	}); err != nil {
		return nil, false
	}
	defer rows.Close()

	var out []SnapshotEntry
	for rows.Next() {
		var entry SnapshotEntry
		var createdAt string
		if err := rows.Scan(&entry.ID, &entry.RecordCount, &createdAt); err != nil {
			return nil, false
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = ts
		}
		out = append(out, entry)
	}
	// A cursor error mid-scan leaves a partial history; report absent rather
	// than pass off the fragment as complete.
	if rows.Err() != nil {
		return nil, false
	}
	return out, len(out) > 0
}

func (s *Store) hasSnapshots(ctx context.Context, tier, table string) bool {
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM snapshots WHERE tier = ? AND tbl = ?`,
			tier, table,
		).Scan(&count)
	})
	return err == nil && count > 0
}
