package catalog

import "context"

const schemaRecords = `
CREATE TABLE IF NOT EXISTS records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	tier TEXT NOT NULL,
	tbl TEXT NOT NULL,
	asset_id TEXT NOT NULL,
	payload TEXT NOT NULL,
	written_at TEXT NOT NULL
);
`

const schemaSnapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
	snapshot_id TEXT PRIMARY KEY,
	tier TEXT NOT NULL,
	tbl TEXT NOT NULL,
	record_count INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
`

const schemaIndexes = `
CREATE INDEX IF NOT EXISTS idx_records_table ON records (tier, tbl, asset_id);
CREATE INDEX IF NOT EXISTS idx_snapshots_table ON snapshots (tier, tbl, created_at);
`

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range []string{schemaRecords, schemaSnapshots, schemaIndexes} {
		if err := s.execWithRetry(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
