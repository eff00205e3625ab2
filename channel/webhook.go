package channel

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// WebhookSender POSTs the payload as JSON and treats any 2xx as delivered.
type WebhookSender struct {
	Client httpDoer
}

func NewWebhookSender(cl httpDoer) *WebhookSender {
	return &WebhookSender{Client: cl}
}

func (w *WebhookSender) Send(ctx context.Context, d Delivery) error {
	if d.Channel.Webhook == "" {
		return errors.New("webhook url is not configured")
	}

	resp, err := post(ctx, w.Client, d.Channel.Webhook, d.Payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: readBody(resp.Body)}
	}

	return nil
}

// DingTalkSender signs the webhook url when a secret is set and checks the
// errcode field of the reply.
type DingTalkSender struct {
	Client httpDoer
	now    func() time.Time
}

func NewDingTalkSender(cl httpDoer) *DingTalkSender {
	return &DingTalkSender{Client: cl, now: time.Now}
}

func (s *DingTalkSender) Send(ctx context.Context, d Delivery) error {
	target := d.Channel.Webhook
	if target == "" {
		return errors.New("dingtalk webhook url is not configured")
	}

	if d.Channel.Secret != "" {
		ts := strconv.FormatInt(s.now().UnixMilli(), 10)
		sign := sign([]byte(d.Channel.Secret), ts+"\n"+d.Channel.Secret)

		u, err := url.Parse(target)
		if err != nil {
			return errors.Wrap(err, "invalid dingtalk webhook url")
		}
		q := u.Query()
		q.Set("timestamp", ts)
		q.Set("sign", sign)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	return postExpectingCode(ctx, s.Client, target, d.Payload, "errcode", "errmsg")
}

// WeComSender posts to a group robot webhook, or to the application message
// API when corp and agent ids are set instead.
type WeComSender struct {
	Client  httpDoer
	BaseUrl string
}

func NewWeComSender(cl httpDoer) *WeComSender {
	return &WeComSender{Client: cl, BaseUrl: "https://qyapi.weixin.qq.com"}
}

func (s *WeComSender) Send(ctx context.Context, d Delivery) error {
	if d.Channel.Webhook != "" {
		return postExpectingCode(ctx, s.Client, d.Channel.Webhook, d.Payload, "errcode", "errmsg")
	}

	if d.Channel.CorpId == "" || d.Channel.AgentId == "" {
		return errors.New("wecom channel needs a webhook or corp and agent ids")
	}

	token, err := s.accessToken(ctx, d.Channel.CorpId, d.Channel.Secret)
	if err != nil {
		return err
	}

	var msg map[string]interface{}
	if err := json.Unmarshal(d.Payload, &msg); err != nil {
		return errors.Wrap(err, "wecom payload must be a JSON object")
	}
	msg["agentid"] = d.Channel.AgentId
	body, _ := json.Marshal(msg)

	target := s.BaseUrl + "/cgi-bin/message/send?access_token=" + url.QueryEscape(token)

	return postExpectingCode(ctx, s.Client, target, body, "errcode", "errmsg")
}

func (s *WeComSender) accessToken(ctx context.Context, corpId, secret string) (string, error) {
	q := url.Values{"corpid": {corpId}, "corpsecret": {secret}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseUrl+"/cgi-bin/gettoken?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tok struct {
		ErrCode     int    `json:"errcode"`
		ErrMsg      string `json:"errmsg"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", errors.Wrap(err, "unable to decode wecom token response")
	}
	if tok.ErrCode != 0 {
		return "", &StatusError{StatusCode: resp.StatusCode, Code: tok.ErrCode, Message: tok.ErrMsg}
	}

	return tok.AccessToken, nil
}

// FeishuSender adds timestamp and sign to the body when a secret is set and
// checks the code field of the reply.
type FeishuSender struct {
	Client httpDoer
	now    func() time.Time
}

func NewFeishuSender(cl httpDoer) *FeishuSender {
	return &FeishuSender{Client: cl, now: time.Now}
}

func (s *FeishuSender) Send(ctx context.Context, d Delivery) error {
	if d.Channel.Webhook == "" {
		return errors.New("feishu webhook url is not configured")
	}

	body := d.Payload
	if d.Channel.Secret != "" {
		var msg map[string]interface{}
		if err := json.Unmarshal(d.Payload, &msg); err != nil {
			return errors.Wrap(err, "feishu payload must be a JSON object")
		}

		ts := strconv.FormatInt(s.now().Unix(), 10)
		msg["timestamp"] = ts
		msg["sign"] = sign([]byte(ts+"\n"+d.Channel.Secret), "")
		body, _ = json.Marshal(msg)
	}

	return postExpectingCode(ctx, s.Client, d.Channel.Webhook, body, "code", "msg")
}

func sign(key []byte, data string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))

	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func post(ctx context.Context, cl httpDoer, target string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return cl.Do(req)
}

// postExpectingCode treats the reply as delivered when it is 2xx and the
// numeric codeField is absent or zero.
func postExpectingCode(ctx context.Context, cl httpDoer, target string, payload []byte, codeField, msgField string) error {
	resp, err := post(ctx, cl, target, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw := readBody(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: raw}
	}

	var reply map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return nil
	}

	code, _ := reply[codeField].(float64)
	if code != 0 {
		msg, _ := reply[msgField].(string)
		return &StatusError{StatusCode: resp.StatusCode, Code: int(code), Message: msg}
	}

	return nil
}
