// Package database opens the Postgres database of the service and keeps its schema up to date.
package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/kurswahl/core"
	appfs "github.com/trezcool/kurswahl/fs"
)

// MigrationsDir is the directory of the embedded goose migrations.
const MigrationsDir = "migrations"

const maxPingAttempts = 30

var (
	// Tables lists the tables the repositories work on.
	Tables = []string{"operator", "student", "workshop", "rule", "slot", "draft"}

	// errors
	ErrSchemaIncomplete = errors.New("database schema is incomplete")
)

// dataSourceName builds the connection URL, as the admin user when asked and configured.
func dataSourceName(dbName string, admin bool, conf *core.Config) string {
	dbConf := conf.Database
	user := url.UserPassword(dbConf.User, dbConf.Password)
	if admin && dbConf.AdminUser != "" {
		user = url.UserPassword(dbConf.AdminUser, dbConf.AdminPassword)
	}

	q := make(url.Values)
	q.Set("sslmode", "require")
	if dbConf.DisableTLS {
		q.Set("sslmode", "disable")
	}
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   dbConf.Engine,
		User:     user,
		Host:     dbConf.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Open connects to the database of the service.
func Open(conf *core.Config) (*sql.DB, error) {
	return sql.Open(conf.Database.Engine, dataSourceName(conf.Database.Name, false, conf))
}

// withDB runs fn on a short-lived connection to dbName.
func withDB(dbName string, admin bool, conf *core.Config, fn func(db *sql.DB) error) error {
	db, err := sql.Open(conf.Database.Engine, dataSourceName(dbName, admin, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}

// waitReady pings until the server answers, waiting 100ms longer after each failed attempt.
func waitReady(db *sql.DB) error {
	var err error
	for attempt := 1; attempt <= maxPingAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(db *sql.DB, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := db.QueryRow(query, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func createRoleQuery(user, pwd string) string {
	return fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s", pq.QuoteIdentifier(user), pq.QuoteLiteral(pwd))
}

func createDatabaseQuery(name string) string {
	return "CREATE DATABASE " + pq.QuoteIdentifier(name)
}

func ensureRole(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(db, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if found {
		return nil
	}
	if _, err = db.Exec(createRoleQuery(conf.Database.User, conf.Database.Password)); err != nil {
		return errors.Wrap(err, "creating app user")
	}
	return nil
}

func ensureDatabase(db *sql.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking DB")
	}
	if found {
		return nil
	}
	if _, err = db.Exec(createDatabaseQuery(conf.Database.Name)); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// CreateIfNotExist creates the app user as admin, then the database as the app user so it owns it.
func CreateIfNotExist(conf *core.Config) error {
	err := withDB("postgres", true, conf, func(db *sql.DB) error {
		if err := waitReady(db); err != nil {
			return errors.Wrap(err, "pinging database")
		}
		return ensureRole(db, conf)
	})
	if err != nil {
		return err
	}
	return withDB("postgres", false, conf, func(db *sql.DB) error {
		return ensureDatabase(db, conf)
	})
}

// Migrate applies the pending embedded migrations and checks every table is in place.
func Migrate(db *sql.DB) error {
	if err := goose.RunFS("up", db, appfs.FS, MigrationsDir); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return CheckSchema(db)
}

// CheckSchema fails with ErrSchemaIncomplete when some of the Tables are missing.
func CheckSchema(db *sql.DB) error {
	missing := make([]string, 0)
	for _, tbl := range Tables {
		found, err := exists(db,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)",
			tbl)
		if err != nil {
			return errors.Wrapf(err, "checking table %s", tbl)
		}
		if !found {
			missing = append(missing, tbl)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrSchemaIncomplete, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}
