package ledger

import (
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the ISO-8601 local timestamp stored as imported_date.
const DateLayout = "2006-01-02T15:04:05.000000"

const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
)

// Entry is what the ledger remembers about one imported conversation.
type Entry struct {
	Title        string `json:"title"`
	ImportedDate string `json:"imported_date"`
}

// Ledger records which source conversations were already converted.
// Implementations assume a single writer.
type Ledger interface {
	// Load returns the persisted entries. Missing or unreadable state is an
	// empty ledger, never an error.
	Load() map[string]Entry
	// Record upserts the entry for id, stamping it with the current time.
	Record(id, title string) error
	Path() string
	Close() error
}

type Options struct {
	Driver string
	Path   string
	Now    func() time.Time
	Logger *slog.Logger
}

// Open returns the ledger backend selected by opts.Driver.
func Open(opts Options) (Ledger, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("ledger path is required")
	}
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverJSON:
		return NewFile(opts.Path, opts.Now, opts.Logger), nil
	case DriverSQLite:
		return OpenSQLite(opts.Path, opts.Now, opts.Logger)
	default:
		return nil, errors.Errorf("unknown ledger driver %q (want %s|%s)", opts.Driver, DriverJSON, DriverSQLite)
	}
}
