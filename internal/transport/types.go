// Package transport defines the outbound messaging boundary. Dispatch and
// accounting talk to a Client; the telegram subpackage is the production
// implementation, tests substitute a spy.
package transport

import (
	"context"

	tele "gopkg.in/telebot.v4"
)

// Target names one delivery destination. The token travels with the target
// because channel identities (general vs accounting) use separate bots.
type Target struct {
	Token  string
	ChatID string
}

// Message is an HTML-formatted text notification.
type Message struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// Document is a file send. Either Data (raw bytes, with Name and MIME) or
// URL is set, never both.
type Document struct {
	Name    string
	MIME    string
	Data    []byte
	URL     string
	Caption string
}

// Client sends notifications. Implementations must honor ctx cancellation
// and return an error rather than blocking past the caller's deadline.
type Client interface {
	SendMessage(ctx context.Context, t Target, msg Message) error
	SendDocument(ctx context.Context, t Target, doc Document) error
}
