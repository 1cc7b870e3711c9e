package db

import (
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to PostgreSQL, or to SQLite when the DSN starts with
// "sqlite:", "file:" or is ":memory:".
func Open(dsn string) (*sqlx.DB, error) {
	driver, source := resolve(dsn)
	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer; also keeps an in-memory database alive across queries
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func resolve(dsn string) (string, string) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == ":memory:" || dsn == "sqlite::memory:":
		return DriverSQLite, "file::memory:?" + sqlitePragmas(false)
	case strings.HasPrefix(dsn, "sqlite:"):
		return DriverSQLite, sqliteSource(strings.TrimPrefix(strings.TrimPrefix(dsn, "sqlite:"), "//"))
	case strings.HasPrefix(dsn, "file:"):
		return DriverSQLite, sqliteSource(dsn)
	default:
		return DriverPostgres, dsn
	}
}

func sqliteSource(path string) string {
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + sqlitePragmas(true)
}

func sqlitePragmas(onDisk bool) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if onDisk {
		params += "&_pragma=journal_mode(WAL)&_txlock=immediate"
	}
	return params
}

// IsSQLite reports whether db was opened with the SQLite driver.
func IsSQLite(db *sqlx.DB) bool {
	return db.DriverName() == DriverSQLite
}
