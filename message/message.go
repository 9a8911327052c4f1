// Package message validates inbound chat envelopes and composes the
// normalized envelope broadcast to every client.
package message

import (
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/n0madic/unachat"
	"github.com/n0madic/unachat/linkify"
	"github.com/n0madic/unachat/sanitize"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope defaults
const (
	DefaultName  = "Anónimo"
	DefaultColor = "#000000"

	SystemName = "Sistema"
	ErrorBody  = "Error al procesar el mensaje"
	ErrorColor = "#FF0000"

	// TimeLayout of generated timestamps, always UTC
	TimeLayout = "2006-01-02T15:04:05.000Z"
)

// Composer builds normalized envelopes
type Composer struct {
	// Now is the clock used for generated timestamps.
	Now func() time.Time
}

var std = New()

// New composer using the wall clock
func New() *Composer {
	return &Composer{Now: time.Now}
}

// Compose raw JSON envelope into normalized JSON envelope
func Compose(raw string) string {
	return std.Compose(raw)
}

// Compose never fails: malformed input yields the system error envelope.
func (c *Composer) Compose(raw string) string {
	out, err := json.MarshalToString(c.ComposeEnvelope(raw))
	if err != nil {
		out, _ = json.MarshalToString(c.Fallback())
	}
	return out
}

// ComposeEnvelope is Compose without the final serialization
func (c *Composer) ComposeEnvelope(raw string) unachat.Envelope {
	var fields map[string]interface{}
	if err := json.UnmarshalFromString(raw, &fields); err != nil || fields == nil {
		return c.Fallback()
	}

	color := field(fields, "color")
	if color == "" {
		color = DefaultColor
	}
	timestamp := field(fields, "timestamp")
	if timestamp == "" {
		timestamp = c.timestamp()
	}

	name := sanitize.SanitizeName(field(fields, "nombre"))
	if name == "" {
		name = DefaultName
	}

	return unachat.Envelope{
		Name:      name,
		Body:      Body(field(fields, "mensaje")),
		Color:     color,
		Timestamp: timestamp,
	}
}

// Body renders a message body. Bodies that already contain markup skip URL
// conversion and are only sanitized.
func Body(body string) string {
	processed := linkify.Process(body)
	if linkify.IsMarkup(body) {
		return sanitize.Sanitize(processed)
	}
	return processed
}

// Fallback envelope reporting a message that could not be processed
func (c *Composer) Fallback() unachat.Envelope {
	return unachat.Envelope{
		Name:      SystemName,
		Body:      ErrorBody,
		Color:     ErrorColor,
		Timestamp: c.timestamp(),
	}
}

func (c *Composer) timestamp() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().UTC().Format(TimeLayout)
}

// field returns the string form of a scalar field. Absent, null, false,
// zero and composite values read as empty.
func field(fields map[string]interface{}, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case float64:
		if v != 0 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}
