package job

import (
	"fmt"

	"inviqa/push-relay/config"
	sqlprovider "inviqa/push-relay/endpoint/data/sql"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type statement struct {
	Collection string
	Operation  string
	Query      string
}

// optimizeStatements lists the maintenance statements for the store tables.
// SQLite can only vacuum the whole database file.
func optimizeStatements(dr config.DbDriver, t sqlprovider.Tables) []statement {
	tables := []string{t.Channels, t.Endpoints, t.Groups, t.GroupEndpoints}

	var stmts []statement
	switch {
	case dr.MySQL():
		for _, table := range tables {
			stmts = append(stmts, statement{table, "OPTIMIZE TABLE", fmt.Sprintf("OPTIMIZE TABLE `%s`;", table)})
		}
	case dr.Postgres():
		for _, table := range tables {
			stmts = append(stmts, statement{table, "VACUUM", fmt.Sprintf("VACUUM %s;", table)})
		}
	case dr.SQLite():
		stmts = append(stmts, statement{"", "VACUUM", "VACUUM;"})
	}

	return stmts
}

func datastoreProduct(dr config.DbDriver) newrelic.DatastoreProduct {
	switch {
	case dr.MySQL():
		return newrelic.DatastoreMySQL
	case dr.Postgres():
		return newrelic.DatastorePostgres
	default:
		return newrelic.DatastoreSQLite
	}
}
