package sql

import (
	"strings"
	"testing"
)

func TestPostgresQueryProvider_EndpointFetchSql(t *testing.T) {
	actual := createPostgresProvider().EndpointFetchSql()

	exp := `SELECT e.id, e.name, c.id, c.type FROM endpoints e LEFT JOIN channels c ON c.id = e.channel_id WHERE e.id = $1`

	if actual != exp {
		t.Errorf(`received "%s" but expected "%s"`, actual, exp)
	}
}

func TestPostgresQueryProvider_GroupFetchSql(t *testing.T) {
	actual := createPostgresProvider().GroupFetchSql()

	if actual != `SELECT id, name, status FROM endpoint_groups WHERE id = $1` {
		t.Errorf("unexpected group fetch SQL: %s", actual)
	}
}

func TestPostgresQueryProvider_GroupMembersFetchSql(t *testing.T) {
	actual := createPostgresProvider().GroupMembersFetchSql()

	if !strings.Contains(actual, "WHERE eg.group_id = $1") {
		t.Errorf("group members SQL does not use a positional placeholder: %s", actual)
	}
}

func createPostgresProvider() *PostgresQueryProvider {
	return &PostgresQueryProvider{
		Tables:          NewTables(""),
		EndpointColumns: []string{"id", "name"},
		ChannelColumns:  []string{"id", "type"},
	}
}
