// Package telegram implements the transport boundary on telebot.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"notibot/internal/transport"
	logx "notibot/pkg/logx"
)

// httpTimeout caps a single Bot API round trip. Dispatch applies its own
// deadline on top; this is the floor when a caller passes a loose ctx.
const httpTimeout = 10 * time.Second

// Client sends through the Telegram Bot API. Bots are built lazily per
// token and rebuilt when the stored token changes, so a config update takes
// effect on the next send without a restart.
type Client struct {
	mu    sync.Mutex
	token string
	bot   *tele.Bot

	log logx.Logger
}

func New(log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{log: log}
}

func (c *Client) SendMessage(ctx context.Context, t transport.Target, msg transport.Message) error {
	b, err := c.botFor(t.Token)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if msg.Markup != nil {
		opts.ReplyMarkup = msg.Markup
	}
	_, err = b.Send(recipient(t.ChatID), msg.Text, opts)
	return err
}

func (c *Client) SendDocument(ctx context.Context, t transport.Target, doc transport.Document) error {
	b, err := c.botFor(t.Token)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var file tele.File
	switch {
	case len(doc.Data) > 0:
		file = tele.FromReader(bytes.NewReader(doc.Data))
	case doc.URL != "":
		file = tele.FromURL(doc.URL)
	default:
		return errors.New("telegram: document has no payload")
	}

	d := &tele.Document{
		File:     file,
		FileName: doc.Name,
		MIME:     doc.MIME,
		Caption:  doc.Caption,
	}
	_, err = b.Send(recipient(t.ChatID), d, &tele.SendOptions{ParseMode: tele.ModeHTML})
	return err
}

// botFor returns a bot for the token, rebuilding the cached one when the
// token changed.
func (c *Client) botFor(token string) (*tele.Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bot != nil && c.token == token {
		return c.bot, nil
	}

	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true, // skip getMe; a bad token surfaces on first send
		Client:  &http.Client{Timeout: httpTimeout},
	})
	if err != nil {
		return nil, err
	}

	if c.bot != nil {
		c.log.Info("telegram bot rebuilt after token change")
	}
	c.token = token
	c.bot = b
	return b, nil
}

type chatRef string

func (r chatRef) Recipient() string { return string(r) }

func recipient(chatID string) tele.Recipient { return chatRef(chatID) }
