package unachat

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Envelope is a normalized chat message ready for broadcast
type Envelope struct {
	Name      string `json:"nombre"`
	Body      string `json:"mensaje"`
	Color     string `json:"color"`
	Timestamp string `json:"timestamp"`
}

// Event travelling through the bus
type Event struct {
	Topic string
	// Sender is the connection id of the originating client, empty for server events.
	Sender  string
	Payload interface{}
}

// Typing notification payload
type Typing struct {
	Username string `json:"username,omitempty"`
}

// Failure payload sent back to a single client
type Failure struct {
	Message string `json:"message"`
}

// PlainText returns the message body without markup
func (env *Envelope) PlainText() string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.Body))
	if err != nil {
		return env.Body
	}
	doc.Find("iframe, video, img").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
