package ledger

import (
	"database/sql"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"gpt2webui/internal/util"
)

var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS imported_conversations (
		conversation_id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		imported_date TEXT NOT NULL
	)`,
}

// SQLite stores the ledger in a single table and upserts in place, so a
// Record never rewrites other entries.
type SQLite struct {
	db     *sql.DB
	path   string
	now    func() time.Time
	logger *slog.Logger
}

func OpenSQLite(path string, now func() time.Time, logger *slog.Logger) (*SQLite, error) {
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, errors.Wrap(err, "create ledger dir")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger %s", path)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schemaSQL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "ledger schema exec failed")
		}
	}
	return &SQLite{db: db, path: path, now: now, logger: logger}, nil
}

func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Load() map[string]Entry {
	entries := map[string]Entry{}
	rows, err := s.db.Query(`SELECT conversation_id, title, imported_date FROM imported_conversations`)
	if err != nil {
		s.logger.Warn("ledger unreadable, starting empty", "path", s.path, "error", err)
		return entries
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var e Entry
		if err := rows.Scan(&id, &e.Title, &e.ImportedDate); err != nil {
			s.logger.Warn("ledger row unreadable, starting empty", "path", s.path, "error", err)
			return map[string]Entry{}
		}
		entries[id] = e
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("ledger unreadable, starting empty", "path", s.path, "error", err)
		return map[string]Entry{}
	}
	return entries
}

func (s *SQLite) Record(id, title string) error {
	_, err := s.db.Exec(`INSERT INTO imported_conversations (conversation_id, title, imported_date)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET title = excluded.title, imported_date = excluded.imported_date`,
		id, title, s.now().Format(DateLayout))
	if err != nil {
		return errors.Wrapf(err, "record %s in ledger", id)
	}
	return nil
}
