package sql

import (
	"fmt"
)

type MysqlQueryProvider struct {
	Tables          Tables
	EndpointColumns []string
	ChannelColumns  []string
}

func (m MysqlQueryProvider) EndpointFetchSql() string {
	q := "SELECT %s, %s FROM `%s` e LEFT JOIN `%s` c ON c.`id` = e.`channel_id` WHERE e.`id` = ?"

	return fmt.Sprintf(q, m.endpointColumns(), m.channelColumns(), m.Tables.Endpoints, m.Tables.Channels)
}

func (m MysqlQueryProvider) GroupFetchSql() string {
	return fmt.Sprintf("SELECT `id`, `name`, `status` FROM `%s` WHERE `id` = ?", m.Tables.Groups)
}

func (m MysqlQueryProvider) GroupMembersFetchSql() string {
	q := "SELECT %s, %s FROM `%s` eg INNER JOIN `%s` e ON e.`id` = eg.`endpoint_id` LEFT JOIN `%s` c ON c.`id` = e.`channel_id` WHERE eg.`group_id` = ? ORDER BY eg.`position` ASC, e.`id` ASC"

	return fmt.Sprintf(q, m.endpointColumns(), m.channelColumns(), m.Tables.GroupEndpoints, m.Tables.Endpoints, m.Tables.Channels)
}

func (m MysqlQueryProvider) CountEndpointsSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s`", m.Tables.Endpoints)
}

func (m MysqlQueryProvider) CountActiveEndpointsSql() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s` WHERE `status` = 'active'", m.Tables.Endpoints)
}

func (m MysqlQueryProvider) endpointColumns() string {
	return qualify("e", m.EndpointColumns, backtick)
}

func (m MysqlQueryProvider) channelColumns() string {
	return qualify("c", m.ChannelColumns, backtick)
}

func backtick(c string) string {
	return "`" + c + "`"
}
