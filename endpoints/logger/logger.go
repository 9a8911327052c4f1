package logger

import (
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/n0madic/unachat"
	"github.com/n0madic/unachat/utils"
	log "github.com/sirupsen/logrus"
)

const maxTextLength = 80

// Logger endpoint writes bus events to the log
type Logger struct {
	endpoint *unachat.Endpoint
}

func init() {
	unachat.AddEndpoint("log", New)
}

// New return logger endpoint
func New(endpoint unachat.Endpoint) (unachat.EndpointInterface, error) {
	return &Logger{endpoint: &endpoint}, nil
}

// Deliver log event
func (l *Logger) Deliver(event unachat.Event) {
	fields := log.Fields{
		"endpoint": l.endpoint.Name,
		"topic":    event.Topic,
	}
	if event.Sender != "" {
		fields["sender"] = event.Sender
	}
	switch payload := event.Payload.(type) {
	case unachat.Envelope:
		fields["nombre"] = payload.Name
		fields["color"] = payload.Color
		fields["timestamp"] = payload.Timestamp
		fields["text"] = utils.TruncateWords(payload.PlainText(), maxTextLength)
	case unachat.Typing:
		fields["username"] = payload.Username
	}
	log.WithFields(fields).Info("Chat event")
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debug(spew.Sdump(event))
	}
}

// Pattern is empty, logger is not served
func (l *Logger) Pattern() string {
	return ""
}

// Handler not used
func (l *Logger) Handler(w http.ResponseWriter, r *http.Request) {}
