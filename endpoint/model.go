package endpoint

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Active() bool {
	return s == StatusActive
}

type ChannelType string

const (
	ChannelWebhook  ChannelType = "webhook"
	ChannelDingTalk ChannelType = "dingtalk"
	ChannelWeCom    ChannelType = "wecom"
	ChannelFeishu   ChannelType = "feishu"
	ChannelTelegram ChannelType = "telegram"
	ChannelKafka    ChannelType = "kafka"
)

// Channel is a notification transport with its own credentials. Only the
// fields relevant to Type are populated.
type Channel struct {
	Id       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Type     ChannelType `yaml:"type"`
	Webhook  string      `yaml:"webhook"`
	Secret   string      `yaml:"secret"`
	CorpId   string      `yaml:"corpId"`
	AgentId  string      `yaml:"agentId"`
	BotToken string      `yaml:"botToken"`
	ChatId   string      `yaml:"chatId"`
	Topic    string      `yaml:"topic"`
}

type Endpoint struct {
	Id      string
	Name    string
	Rule    string
	Status  Status
	Channel *Channel
}

type Group struct {
	Id     string
	Name   string
	Status Status
}
