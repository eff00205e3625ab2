package data

import (
	"database/sql"
	"time"

	"inviqa/push-relay/config"
	"inviqa/push-relay/log"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v4/stdlib"
	_ "modernc.org/sqlite"
)

const (
	connectionAttempts    = 30
	maxOpenConnections    = 10
	maxIdleConnections    = 5
	maxConnectionLifetime = time.Minute * 1
)

func init() {
	setupLoggers()
}

func setupLoggers() {
	err := mysql.SetLogger(log.Logger)
	if err != nil {
		log.Logger.WithError(err).Fatalf("unable to set up JSON logger for MySQL driver")
	}
}

// NewDB opens the endpoint store and waits for it to accept connections.
// Migrations are applied unless they are disabled in config.
func NewDB(cfg *config.Config) (*sql.DB, func()) {
	log.Logger.WithField("driver", cfg.DBDriver.String()).Debug("connecting to the endpoint store")

	db, err := sql.Open(cfg.DBDriver.SqlDriverName(), cfg.GetDSN())
	if err != nil {
		log.Logger.Fatalf("unable to connect to the database: %s", err)
	}

	if cfg.DBDriver.SQLite() {
		// a single writer avoids SQLITE_BUSY under the WAL journal
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(maxOpenConnections)
		db.SetMaxIdleConns(maxIdleConnections)
		db.SetConnMaxLifetime(maxConnectionLifetime)
	}

	waitForDatabase(db)
	MigrateDatabase(db, cfg)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Logger.WithError(err).Error("error closing database during shutdown process")
		}
	}

	return db, cleanup
}

func waitForDatabase(db *sql.DB) {
	tries := connectionAttempts
	for {
		err := db.Ping()
		if err == nil {
			return
		}

		time.Sleep(time.Second * 1)
		tries--
		log.Logger.Infof("database is not available (err: %s), retrying %d more time(s)", err, tries)

		if tries == 0 {
			log.Logger.Fatalf("database did not become available within %d connection attempts", connectionAttempts)
		}
	}
}
