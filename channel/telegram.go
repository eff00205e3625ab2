package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	tele "gopkg.in/telebot.v4"
)

type chatRecipient string

func (c chatRecipient) Recipient() string {
	return string(c)
}

type telegramMessage struct {
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// TelegramSender sends the payload's text field to the channel's chat. A
// payload without text is sent verbatim. Bots are created offline and
// cached per token.
type TelegramSender struct {
	apiUrl string
	client *http.Client

	mu   sync.Mutex
	bots map[string]*tele.Bot
}

func NewTelegramSender(apiUrl string, cl *http.Client) *TelegramSender {
	return &TelegramSender{
		apiUrl: apiUrl,
		client: cl,
		bots:   map[string]*tele.Bot{},
	}
}

func (s *TelegramSender) Send(ctx context.Context, d Delivery) error {
	if d.Channel.BotToken == "" || d.Channel.ChatId == "" {
		return errors.New("telegram channel needs a bot token and chat id")
	}

	bot, err := s.bot(d.Channel.BotToken)
	if err != nil {
		return err
	}

	var msg telegramMessage
	if err := json.Unmarshal(d.Payload, &msg); err != nil || msg.Text == "" {
		msg = telegramMessage{Text: string(d.Payload)}
	}

	return runWithContext(ctx, func() error {
		_, err := bot.Send(chatRecipient(d.Channel.ChatId), msg.Text, &tele.SendOptions{ParseMode: tele.ParseMode(msg.ParseMode)})
		if err != nil {
			var tgErr *tele.Error
			if errors.As(err, &tgErr) {
				return &StatusError{StatusCode: tgErr.Code, Message: tgErr.Description}
			}
		}
		return err
	})
}

func (s *TelegramSender) bot(token string) (*tele.Bot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bots[token]; ok {
		return b, nil
	}

	b, err := tele.NewBot(tele.Settings{
		URL:     s.apiUrl,
		Token:   token,
		Client:  s.client,
		Offline: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to create telegram bot")
	}
	s.bots[token] = b

	return b, nil
}
