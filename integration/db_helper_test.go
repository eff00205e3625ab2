//go:build integration
// +build integration

package integration

import (
	"fmt"
	"strings"

	"inviqa/push-relay/endpoint"
	sqlprovider "inviqa/push-relay/endpoint/data/sql"
)

var tables = sqlprovider.NewTables("")

func exec(q string, args ...interface{}) {
	if cfg.DBDriver.Postgres() {
		for i := 1; strings.Contains(q, "?"); i++ {
			q = strings.Replace(q, "?", fmt.Sprintf("$%d", i), 1)
		}
	}

	if _, err := db.Exec(q, args...); err != nil {
		panic(fmt.Sprintf("an error occurred running %q against the endpoint store: %s", q, err))
	}
}

func purgeStoreTables() {
	for _, t := range []string{tables.GroupEndpoints, tables.Groups, tables.Endpoints, tables.Channels} {
		exec(fmt.Sprintf("DELETE FROM %s", t))
	}
}

func insertChannel(ch *endpoint.Channel) {
	exec(
		fmt.Sprintf("INSERT INTO %s (id, name, type, webhook, secret, topic) VALUES (?, ?, ?, ?, ?, ?)", tables.Channels),
		ch.Id, ch.Name, string(ch.Type), ch.Webhook, ch.Secret, ch.Topic,
	)
}

func insertEndpoint(ep *endpoint.Endpoint) {
	var channelId interface{}
	if ep.Channel != nil {
		insertChannel(ep.Channel)
		channelId = ep.Channel.Id
	}

	exec(
		fmt.Sprintf("INSERT INTO %s (id, name, rule, status, channel_id) VALUES (?, ?, ?, ?, ?)", tables.Endpoints),
		ep.Id, ep.Name, ep.Rule, string(ep.Status), channelId,
	)
}

func insertGroup(g *endpoint.Group, members ...*endpoint.Endpoint) {
	exec(
		fmt.Sprintf("INSERT INTO %s (id, name, status) VALUES (?, ?, ?)", tables.Groups),
		g.Id, g.Name, string(g.Status),
	)

	for i, ep := range members {
		insertEndpoint(ep)
		exec(
			fmt.Sprintf("INSERT INTO %s (group_id, endpoint_id, position) VALUES (?, ?, ?)", tables.GroupEndpoints),
			g.Id, ep.Id, i,
		)
	}
}

func webhookEndpoint(id, path string, status endpoint.Status) *endpoint.Endpoint {
	return &endpoint.Endpoint{
		Id:     id,
		Name:   "endpoint " + id,
		Rule:   `{"text":"${body.msg}","severity":${body.level}}`,
		Status: status,
		Channel: &endpoint.Channel{
			Id:      "ch-" + id,
			Name:    "channel " + id,
			Type:    endpoint.ChannelWebhook,
			Webhook: receiver.URL + path,
		},
	}
}
