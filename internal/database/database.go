package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"regexp"

	"github.com/achille-roussel/sqlrange"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	_ "modernc.org/sqlite"

	resfs "github.com/resctl/resctl/internal/fs"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
	"github.com/resctl/resctl/pkg/loader"
)

const (
	kindSQL      = "sql"
	DefaultTable = "resources"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Resource is a row of the resource table.
type Resource struct {
	Name string `sql:"name"`
	Data []byte `sql:"data"`
}

// Loader resolves names against a SQLite table with a unique "name" column
// and a "data" blob column. The database is only read.
type Loader struct {
	db    *sql.DB
	dsn   string
	table string
	log   *logging.Logger
}

func sqliteDriver() driver.Driver {
	db, _ := sql.Open("sqlite", "") // does not connect
	defer db.Close()
	return db.Driver()
}

// Open connects to the SQLite database at dsn. Statements are logged at
// debug level through log.
func Open(ctx context.Context, dsn, table string, log *logging.Logger) (*Loader, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}

	db := sqldblogger.OpenDriver(dsn, sqliteDriver(), zerologadapter.New(log.Zerolog()),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelDebug),
	)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", dsn, err)
	}

	return &Loader{db: db, dsn: dsn, table: table, log: log}, nil
}

func (l *Loader) Close() error {
	return l.db.Close()
}

// Get returns the data stored under name, or ErrNotFound.
func (l *Loader) Get(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := l.db.QueryRowContext(ctx, `SELECT data FROM `+l.table+` WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}

func (l *Loader) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	data, err := l.Get(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.Miss(kindSQL)
		return nil, false
	case err != nil:
		l.log.Warnf("sql %s: lookup of %q: %v", l.table, name, err)
		metrics.Fault(kindSQL)
		return nil, false
	}
	metrics.Hit(kindSQL)
	metrics.ResolveBytes.WithLabelValues(kindSQL).Add(float64(len(data)))
	return loader.Bytes(data), true
}

func (l *Loader) Describe() string {
	return fmt.Sprintf("SQL(%s, table=%s)", l.dsn, l.table)
}

// List returns every row of the table.
func (l *Loader) List(ctx context.Context) ([]Resource, error) {
	var rows []Resource
	for row, err := range sqlrange.QueryContext[Resource](ctx, l.db, `SELECT name, data FROM `+l.table+` ORDER BY name`) {
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (l *Loader) FS(ctx context.Context) (fs.FS, bool) {
	rows, err := l.List(ctx)
	if err != nil {
		l.log.Warnf("sql %s: listing: %v", l.table, err)
		return nil, false
	}
	m := make(map[string][]byte, len(rows))
	for _, r := range rows {
		m[r.Name] = r.Data
	}
	return resfs.MapFS(m), true
}
