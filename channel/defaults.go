package channel

import (
	"net/http"

	"inviqa/push-relay/config"
	"inviqa/push-relay/endpoint"
	"inviqa/push-relay/kafka"
)

// NewDefaultRegistry wires every supported channel type. Deadlines come from
// the per-attempt context, so the shared client carries no timeout of its own.
// pub may be nil when no Kafka hosts are configured.
func NewDefaultRegistry(cfg *config.Config, pub kafka.Publisher) *Registry {
	cl := &http.Client{}

	r := NewRegistry(cfg.ChannelRatePerSec)
	r.Register(endpoint.ChannelWebhook, NewWebhookSender(cl))
	r.Register(endpoint.ChannelDingTalk, NewDingTalkSender(cl))
	r.Register(endpoint.ChannelWeCom, NewWeComSender(cl))
	r.Register(endpoint.ChannelFeishu, NewFeishuSender(cl))
	r.Register(endpoint.ChannelTelegram, NewTelegramSender(cfg.TelegramAPIURL, cl))
	r.Register(endpoint.ChannelKafka, NewKafkaSender(pub))

	return r
}
