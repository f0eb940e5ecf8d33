// Package persistence provides SQLite-based run-history storage. The engine
// never reads it back; it exists so collaborators can chart a run after the
// fact.
package persistence

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/kinship-viz/internal/engine"
)

// DB wraps a SQLite connection for run-history storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stats_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		wall_time TEXT NOT NULL,
		contained INTEGER NOT NULL,
		activating INTEGER NOT NULL,
		flowing INTEGER NOT NULL,
		returning INTEGER NOT NULL,
		border INTEGER NOT NULL,
		group_count INTEGER NOT NULL,
		exchanges INTEGER NOT NULL,
		episodes INTEGER NOT NULL,
		focused TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stats_history_tick ON stats_history(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StatsRow is one recorded sample of the engine counters.
type StatsRow struct {
	Tick       uint64 `db:"tick" json:"tick"`
	WallTime   string `db:"wall_time" json:"wall_time"`
	Contained  int    `db:"contained" json:"contained"`
	Activating int    `db:"activating" json:"activating"`
	Flowing    int    `db:"flowing" json:"flowing"`
	Returning  int    `db:"returning" json:"returning"`
	Border     int    `db:"border" json:"border"`
	Groups     int    `db:"group_count" json:"groups"`
	Exchanges  uint64 `db:"exchanges" json:"exchanges"`
	Episodes   uint64 `db:"episodes" json:"episodes"`
	Focused    string `db:"focused" json:"focused"`
}

// SaveStats appends one sample of the engine counters.
func (db *DB) SaveStats(tick uint64, st engine.Stats, focused string) error {
	_, err := db.conn.Exec(`INSERT INTO stats_history
		(tick, wall_time, contained, activating, flowing, returning,
		 border, group_count, exchanges, episodes, focused)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tick, time.Now().UTC().Format(time.RFC3339),
		st.Contained, st.Activating, st.Flowing, st.Returning,
		st.Border, st.Groups, st.Exchanges, st.Episodes, focused,
	)
	if err != nil {
		return fmt.Errorf("insert stats: %w", err)
	}
	return nil
}

// LoadStatsHistory returns samples within [fromTick, toTick], newest first.
func (db *DB) LoadStatsHistory(fromTick, toTick uint64, limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, `SELECT
		tick, wall_time, contained, activating, flowing, returning,
		border, group_count, exchanges, episodes, focused
		FROM stats_history
		WHERE tick >= ? AND tick <= ?
		ORDER BY tick DESC LIMIT ?`,
		fromTick, toTick, limit,
	)
	return rows, err
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}
