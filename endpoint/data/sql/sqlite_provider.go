package sql

import (
	"fmt"
)

type SqliteQueryProvider struct {
	Tables          Tables
	EndpointColumns []string
	ChannelColumns  []string
}

func (p SqliteQueryProvider) EndpointFetchSql() string {
	q := `SELECT %s, %s FROM "%s" e LEFT JOIN "%s" c ON c."id" = e."channel_id" WHERE e."id" = ?`

	return fmt.Sprintf(q, p.endpointColumns(), p.channelColumns(), p.Tables.Endpoints, p.Tables.Channels)
}

func (p SqliteQueryProvider) GroupFetchSql() string {
	return fmt.Sprintf(`SELECT "id", "name", "status" FROM "%s" WHERE "id" = ?`, p.Tables.Groups)
}

func (p SqliteQueryProvider) GroupMembersFetchSql() string {
	q := `SELECT %s, %s FROM "%s" eg INNER JOIN "%s" e ON e."id" = eg."endpoint_id" LEFT JOIN "%s" c ON c."id" = e."channel_id" WHERE eg."group_id" = ? ORDER BY eg."position" ASC, e."id" ASC`

	return fmt.Sprintf(q, p.endpointColumns(), p.channelColumns(), p.Tables.GroupEndpoints, p.Tables.Endpoints, p.Tables.Channels)
}

func (p SqliteQueryProvider) CountEndpointsSql() string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, p.Tables.Endpoints)
}

func (p SqliteQueryProvider) CountActiveEndpointsSql() string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM "%s" WHERE "status" = 'active'`, p.Tables.Endpoints)
}

func (p SqliteQueryProvider) endpointColumns() string {
	return qualify("e", p.EndpointColumns, doubleQuote)
}

func (p SqliteQueryProvider) channelColumns() string {
	return qualify("c", p.ChannelColumns, doubleQuote)
}

func doubleQuote(c string) string {
	return `"` + c + `"`
}
