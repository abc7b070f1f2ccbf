package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ericmann/firebreak/pkg/classify"
	"github.com/ericmann/firebreak/pkg/policy/engine"
)

// schema is the audit table layout. The monotonically increasing seq column
// is the source of insertion order; id stays the externally visible UUID.
const schema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq            INTEGER PRIMARY KEY AUTOINCREMENT,
	id             TEXT NOT NULL UNIQUE,
	created_at     TEXT NOT NULL,
	prompt         TEXT NOT NULL,
	classification TEXT NOT NULL,
	evaluation     TEXT NOT NULL,
	alert_count    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_audit_entries_created_at ON audit_entries(created_at);
`

// SQLiteConfig contains configuration for the SQLite audit backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long a write waits when the database is locked.
	// Default: 5s.
	BusyTimeout time.Duration

	// WALMode enables write-ahead logging for better concurrency.
	// Default: true.
	WALMode bool
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig(path string) *SQLiteConfig {
	return &SQLiteConfig{
		Path:        path,
		BusyTimeout: 5 * time.Second,
		WALMode:     true,
	}
}

// SQLiteLog is the persistent Log backend.
type SQLiteLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteLog opens (creating if necessary) the audit database at the
// configured path and initializes the schema.
func NewSQLiteLog(config *SQLiteConfig) (*SQLiteLog, error) {
	if config == nil || config.Path == "" {
		return nil, fmt.Errorf("sqlite audit log requires a database path")
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database %q: %w", config.Path, err)
	}

	l := &SQLiteLog{
		db:     db,
		logger: slog.Default().With("component", "audit.sqlite"),
	}

	if err := l.initialize(config); err != nil {
		db.Close()
		return nil, err
	}

	l.logger.Info("sqlite audit log initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return l, nil
}

func (l *SQLiteLog) initialize(config *SQLiteConfig) error {
	if config.WALMode {
		if _, err := l.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := l.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", config.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Append stores a new entry and returns it.
func (l *SQLiteLog) Append(ctx context.Context, prompt string, classification classify.Result, evaluation *engine.Evaluation) (*Entry, error) {
	entry := &Entry{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		Prompt:         prompt,
		Classification: classification,
		Evaluation:     *evaluation,
	}

	classJSON, err := json.Marshal(entry.Classification)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classification: %w", err)
	}
	evalJSON, err := json.Marshal(entry.Evaluation)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation: %w", err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, created_at, prompt, classification, evaluation, alert_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(time.RFC3339Nano),
		entry.Prompt,
		string(classJSON),
		string(evalJSON),
		len(entry.Evaluation.Alerts),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}
	return entry, nil
}

// Entries returns all entries in insertion order.
func (l *SQLiteLog) Entries(ctx context.Context) ([]*Entry, error) {
	return l.query(ctx,
		`SELECT id, created_at, prompt, classification, evaluation
		 FROM audit_entries ORDER BY seq`)
}

// Alerts returns entries whose evaluation fired alert targets.
func (l *SQLiteLog) Alerts(ctx context.Context) ([]*Entry, error) {
	return l.query(ctx,
		`SELECT id, created_at, prompt, classification, evaluation
		 FROM audit_entries WHERE alert_count > 0 ORDER BY seq`)
}

func (l *SQLiteLog) query(ctx context.Context, stmt string) ([]*Entry, error) {
	rows, err := l.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var (
			entry     Entry
			createdAt string
			classJSON string
			evalJSON  string
		)
		if err := rows.Scan(&entry.ID, &createdAt, &entry.Prompt, &classJSON, &evalJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if entry.Timestamp, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse audit timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(classJSON), &entry.Classification); err != nil {
			return nil, fmt.Errorf("failed to decode classification: %w", err)
		}
		if err := json.Unmarshal([]byte(evalJSON), &entry.Evaluation); err != nil {
			return nil, fmt.Errorf("failed to decode evaluation: %w", err)
		}
		out = append(out, &entry)
	}
	return out, rows.Err()
}

// PruneBefore deletes entries older than the cutoff and returns the count.
// Used only by the retention scheduler; the evaluation pipeline itself
// never deletes.
func (l *SQLiteLog) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM audit_entries WHERE created_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit entries: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

var _ Log = (*SQLiteLog)(nil)
