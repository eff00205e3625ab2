package endpoint

import (
	"context"
	"database/sql"

	"inviqa/push-relay/config"
	s "inviqa/push-relay/endpoint/data/sql"

	"github.com/pkg/errors"
)

var (
	ErrNotFound = errors.New("not found")

	endpointColumns = []string{"id", "name", "rule", "status"}
	channelColumns  = []string{"id", "name", "type", "webhook", "secret", "corp_id", "agent_id", "bot_token", "chat_id", "topic"}
)

type queryProvider interface {
	EndpointFetchSql() string
	GroupFetchSql() string
	GroupMembersFetchSql() string
	CountEndpointsSql() string
	CountActiveEndpointsSql() string
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type Repository struct {
	db            *sql.DB
	queryProvider queryProvider
}

func NewRepository(db *sql.DB, cfg *config.Config) Repository {
	return NewRepositoryWithQueryProvider(db, newQueryProvider(cfg.DBDriver, cfg.DBTablePrefix))
}

func NewRepositoryWithQueryProvider(db *sql.DB, qp queryProvider) Repository {
	return Repository{
		db:            db,
		queryProvider: qp,
	}
}

// GetEndpoint fetches an endpoint together with its channel. An endpoint whose
// channel no longer exists is reported as ErrNotFound.
func (r Repository) GetEndpoint(ctx context.Context, id string) (*Endpoint, error) {
	row := r.db.QueryRowContext(ctx, r.queryProvider.EndpointFetchSql(), id)

	ep, err := scanEndpoint(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Errorf("endpoint: error fetching endpoint %s: %s", id, err)
	}

	if ep.Channel == nil {
		return nil, ErrNotFound
	}

	return ep, nil
}

func (r Repository) GetGroup(ctx context.Context, id string) (*Group, error) {
	g := &Group{}
	err := r.db.QueryRowContext(ctx, r.queryProvider.GroupFetchSql(), id).Scan(&g.Id, &g.Name, &g.Status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Errorf("endpoint: error fetching group %s: %s", id, err)
	}

	return g, nil
}

// GetGroupEndpoints returns every member of the group regardless of status.
// Members without a channel are returned with a nil Channel.
func (r Repository) GetGroupEndpoints(ctx context.Context, groupId string) ([]*Endpoint, error) {
	rows, err := r.db.QueryContext(ctx, r.queryProvider.GroupMembersFetchSql(), groupId)
	if err != nil {
		return nil, errors.Errorf("endpoint: error fetching members of group %s: %s", groupId, err)
	}
	defer rows.Close()

	members := []*Endpoint{}
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, errors.Errorf("endpoint: error scanning group member into memory: %s", err)
		}
		members = append(members, ep)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("endpoint: error iterating members of group %s: %s", groupId, err)
	}

	return members, nil
}

func (r Repository) CountEndpoints() (uint, error) {
	return r.count(r.queryProvider.CountEndpointsSql())
}

func (r Repository) CountActiveEndpoints() (uint, error) {
	return r.count(r.queryProvider.CountActiveEndpointsSql())
}

func (r Repository) Ping() error {
	return r.db.Ping()
}

func (r Repository) count(q string) (uint, error) {
	var count uint
	if err := r.db.QueryRow(q).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func scanEndpoint(row rowScanner) (*Endpoint, error) {
	ep := &Endpoint{}
	var c struct {
		id, name, typ, webhook, secret, corpId, agentId, botToken, chatId, topic sql.NullString
	}

	err := row.Scan(
		&ep.Id, &ep.Name, &ep.Rule, &ep.Status,
		&c.id, &c.name, &c.typ, &c.webhook, &c.secret, &c.corpId, &c.agentId, &c.botToken, &c.chatId, &c.topic,
	)
	if err != nil {
		return nil, err
	}

	if c.id.Valid {
		ep.Channel = &Channel{
			Id:       c.id.String,
			Name:     c.name.String,
			Type:     ChannelType(c.typ.String),
			Webhook:  c.webhook.String,
			Secret:   c.secret.String,
			CorpId:   c.corpId.String,
			AgentId:  c.agentId.String,
			BotToken: c.botToken.String,
			ChatId:   c.chatId.String,
			Topic:    c.topic.String,
		}
	}

	return ep, nil
}

func newQueryProvider(d config.DbDriver, prefix string) queryProvider {
	tables := s.NewTables(prefix)
	switch true {
	case d.Postgres():
		return &s.PostgresQueryProvider{Tables: tables, EndpointColumns: endpointColumns, ChannelColumns: channelColumns}
	case d.MySQL():
		return &s.MysqlQueryProvider{Tables: tables, EndpointColumns: endpointColumns, ChannelColumns: channelColumns}
	case d.SQLite():
		return &s.SqliteQueryProvider{Tables: tables, EndpointColumns: endpointColumns, ChannelColumns: channelColumns}
	}

	return nil
}
