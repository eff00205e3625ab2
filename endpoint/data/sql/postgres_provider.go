package sql

import (
	"fmt"
)

type PostgresQueryProvider struct {
	Tables          Tables
	EndpointColumns []string
	ChannelColumns  []string
}

func (p PostgresQueryProvider) EndpointFetchSql() string {
	q := `SELECT %s, %s FROM %s e LEFT JOIN %s c ON c.id = e.channel_id WHERE e.id = $1`

	return fmt.Sprintf(q, p.endpointColumns(), p.channelColumns(), p.Tables.Endpoints, p.Tables.Channels)
}

func (p PostgresQueryProvider) GroupFetchSql() string {
	return fmt.Sprintf(`SELECT id, name, status FROM %s WHERE id = $1`, p.Tables.Groups)
}

func (p PostgresQueryProvider) GroupMembersFetchSql() string {
	q := `SELECT %s, %s FROM %s eg INNER JOIN %s e ON e.id = eg.endpoint_id LEFT JOIN %s c ON c.id = e.channel_id WHERE eg.group_id = $1 ORDER BY eg.position ASC, e.id ASC`

	return fmt.Sprintf(q, p.endpointColumns(), p.channelColumns(), p.Tables.GroupEndpoints, p.Tables.Endpoints, p.Tables.Channels)
}

func (p PostgresQueryProvider) CountEndpointsSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", p.Tables.Endpoints)
}

func (p PostgresQueryProvider) CountActiveEndpointsSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE status = 'active'", p.Tables.Endpoints)
}

func (p PostgresQueryProvider) endpointColumns() string {
	return qualify("e", p.EndpointColumns, bare)
}

func (p PostgresQueryProvider) channelColumns() string {
	return qualify("c", p.ChannelColumns, bare)
}

func bare(c string) string {
	return c
}
