package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"
)

// Dialect captures the SQL differences between the supported backends.
type Dialect struct {
	name          string
	driverName    string
	placeholder   sq.PlaceholderFormat
	greatestFn    string
	lockSuffix    string
	gooseDialect  goose.Dialect
	migrationsDir string
}

var (
	// Postgres is the production dialect.
	Postgres = Dialect{
		name:          "postgres",
		driverName:    "pgx",
		placeholder:   sq.Dollar,
		greatestFn:    "GREATEST",
		lockSuffix:    "FOR UPDATE",
		gooseDialect:  goose.DialectPostgres,
		migrationsDir: "migrations/postgres",
	}

	// SQLite serializes writers at the database level, so row locks are unnecessary.
	SQLite = Dialect{
		name:          "sqlite",
		driverName:    "sqlite",
		placeholder:   sq.Question,
		greatestFn:    "MAX",
		gooseDialect:  goose.DialectSQLite3,
		migrationsDir: "migrations/sqlite",
	}
)

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres.name:
		return Postgres, nil
	case SQLite.name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Name returns the configuration name of the dialect.
func (d Dialect) Name() string { return d.name }

func (d Dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.placeholder)
}

// greatest renders the two-argument maximum function of the dialect.
func (d Dialect) greatest(a, b string) string {
	return fmt.Sprintf("%s(%s, %s)", d.greatestFn, a, b)
}

// timeArg converts t into the representation the driver stores.
func (d Dialect) timeArg(t time.Time) driver.Value {
	t = t.UTC()
	if d.name == SQLite.name {
		return t.Format(time.RFC3339Nano)
	}
	return t
}

// dbTime scans timestamps stored either natively or as text.
type dbTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
