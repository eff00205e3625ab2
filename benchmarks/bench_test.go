//go:build benchmarks
// +build benchmarks

package benchmarks

import (
	"database/sql"
	"fmt"

	benchkafka "inviqa/push-relay/integration/kafka"
	"inviqa/push-relay/channel"
	"inviqa/push-relay/config"
	"inviqa/push-relay/dispatch"
	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/endpoint/data"
	sqlprovider "inviqa/push-relay/endpoint/data/sql"
	"inviqa/push-relay/kafka"
)

var (
	cfg          *config.Config
	db           *sql.DB
	dispatcher   *dispatch.Dispatcher
	syncProducer *benchkafka.SyncProducer
	tables       = sqlprovider.NewTables("")
)

func init() {
	cfg = createConfig()
	db, _ = data.NewDB(cfg)

	syncProducer = benchkafka.NewSyncProducer(cfg.KafkaHost)
	pub := kafka.NewPublisherWithProducer(syncProducer)
	repo := endpoint.NewRepository(db, cfg)
	dispatcher = dispatch.NewDispatcher(repo, channel.NewDefaultRegistry(cfg, pub), int(cfg.PushGroupConcurrency))
}

func purgeStoreTables() {
	for _, t := range []string{tables.GroupEndpoints, tables.Groups, tables.Endpoints, tables.Channels} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM `%s`;", t)); err != nil {
			panic(fmt.Sprintf("an error occurred cleaning the endpoint store for benchmarks: %s", err))
		}
	}
}

// insertKafkaGroup stores a group of n active endpoints that all publish to topic.
func insertKafkaGroup(groupId, topic string, n int) {
	tx, err := db.Begin()
	if err != nil {
		panic(fmt.Sprintf("error creating a DB transaction: %s", err))
	}

	mustExec := func(q string, args ...interface{}) {
		if _, err := tx.Exec(q, args...); err != nil {
			panic(fmt.Sprintf("failed to insert benchmark fixtures in DB: %s", err))
		}
	}

	mustExec(fmt.Sprintf("INSERT INTO `%s` SET id = ?, type = ?, topic = ?;", tables.Channels), "bench-kafka", string(endpoint.ChannelKafka), topic)
	mustExec(fmt.Sprintf("INSERT INTO `%s` SET id = ?, name = ?, status = 'active';", tables.Groups), groupId, groupId)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("bench-%d", i)
		mustExec(fmt.Sprintf("INSERT INTO `%s` SET id = ?, rule = ?, status = 'active', channel_id = ?;", tables.Endpoints), id, `{"n":"${body.n}"}`, "bench-kafka")
		mustExec(fmt.Sprintf("INSERT INTO `%s` SET group_id = ?, endpoint_id = ?, position = ?;", tables.GroupEndpoints), groupId, id, i)
	}

	if err = tx.Commit(); err != nil {
		panic(fmt.Sprintf("error committing DB transaction: %s", err))
	}
}

func createConfig() *config.Config {
	cfg = &config.Config{
		DBHost:               "localhost",
		DBPort:               13306,
		DBUser:               "push-relay",
		DBPass:               "push-relay",
		DBSchema:             "push-relay",
		DBDriver:             config.MySQL,
		KafkaHost:            []string{"localhost:9092"},
		PushGroupConcurrency: 8,
	}

	return cfg
}
