package ledger

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"gpt2webui/internal/util"
)

// File keeps the ledger as one JSON object on disk. Every Record rewrites
// the whole file.
type File struct {
	path   string
	now    func() time.Time
	logger *slog.Logger
}

func NewFile(path string, now func() time.Time, logger *slog.Logger) *File {
	return &File{path: path, now: now, logger: logger}
}

func (f *File) Path() string { return f.path }

func (f *File) Close() error { return nil }

func (f *File) Load() map[string]Entry {
	b, ok, err := util.ReadFileIfExists(f.path)
	if err != nil {
		f.logger.Warn("ledger unreadable, starting empty", "path", f.path, "error", err)
		return map[string]Entry{}
	}
	if !ok {
		return map[string]Entry{}
	}
	entries := map[string]Entry{}
	if err := json.Unmarshal(b, &entries); err != nil {
		f.logger.Warn("ledger not parseable, starting empty", "path", f.path, "error", err)
		return map[string]Entry{}
	}
	if entries == nil {
		entries = map[string]Entry{}
	}
	return entries
}

func (f *File) Record(id, title string) error {
	entries := f.Load()
	entries[id] = Entry{
		Title:        title,
		ImportedDate: f.now().Format(DateLayout),
	}
	if err := util.WriteJSONFile(f.path, entries); err != nil {
		return errors.Wrapf(err, "write ledger %s", f.path)
	}
	return nil
}
