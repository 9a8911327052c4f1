package websocket

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru"
	jsoniter "github.com/json-iterator/go"
	"github.com/n0madic/unachat"
	"github.com/n0madic/unachat/message"
	"github.com/n0madic/unachat/sanitize"
	"github.com/n0madic/unachat/utils"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 64 * 1024
	sendBuffer   = 256

	defaultPath     = "/ws"
	defaultColors   = 1024
	defaultUsername = "Alguien"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame exchanged with browsers
type Frame struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// WebSocket endpoint
type WebSocket struct {
	endpoint  *unachat.Endpoint
	upgrader  websocket.Upgrader
	composer  *message.Composer
	colors    *lru.Cache
	maxLength int
	pattern   string

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	logger *log.Entry
}

func init() {
	unachat.AddEndpoint("websocket", New)
}

// New return websocket endpoint
func New(endpoint unachat.Endpoint) (unachat.EndpointInterface, error) {
	maxLength, err := intOption(endpoint.Options, "max_message_length", 1000)
	if err != nil {
		return nil, err
	}
	size, err := intOption(endpoint.Options, "colors", defaultColors)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	ws := &WebSocket{
		endpoint:  &endpoint,
		composer:  message.New(),
		colors:    cache,
		maxLength: maxLength,
		pattern:   defaultPath,
		clients:   make(map[string]*client),
	}
	if path := endpoint.Options["path"]; path != "" {
		ws.pattern = path
	}
	ws.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if endpoint.Options["same_origin"] == "true" {
		ws.upgrader.CheckOrigin = sameOrigin
	} else {
		ws.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return ws, nil
}

func intOption(options map[string]string, key string, def int) (int, error) {
	value, ok := options[key]
	if !ok || value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("option %s must be a positive number, got %q", key, value)
	}
	return n, nil
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header["Origin"]
	if len(origin) == 0 {
		return true
	}
	u, err := url.Parse(origin[0])
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Pattern of websocket route
func (ws *WebSocket) Pattern() string {
	return ws.pattern
}

// Clients connected now
func (ws *WebSocket) Clients() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return len(ws.clients)
}

// Handler upgrades the request and serves the client until it disconnects
func (ws *WebSocket) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithFields(log.Fields{"endpoint": ws.endpoint.Name, "remote": r.RemoteAddr}).Warnf("Upgrade failed: %v", err)
		return
	}
	c := &client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	c.logger = log.WithFields(log.Fields{"endpoint": ws.endpoint.Name, "client": c.id, "remote": r.RemoteAddr})

	unachat.WaitGroup.Add(1)
	defer unachat.WaitGroup.Done()

	ws.register(c)
	c.logger.Info("Client connected")
	go c.writePump()
	ws.readPump(c)
	ws.unregister(c)
	c.logger.Info("Client disconnected")
}

// Close every client connection
func (ws *WebSocket) Close() error {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	for _, c := range ws.clients {
		c.conn.Close()
	}
	return nil
}

func (ws *WebSocket) register(c *client) {
	ws.mu.Lock()
	ws.clients[c.id] = c
	ws.mu.Unlock()
}

func (ws *WebSocket) unregister(c *client) {
	ws.mu.Lock()
	if _, ok := ws.clients[c.id]; ok {
		delete(ws.clients, c.id)
		close(c.send)
	}
	ws.colors.Remove(c.id)
	ws.mu.Unlock()
}

func (ws *WebSocket) readPump(c *client) {
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warnf("Read error: %v", err)
			}
			return
		}
		ws.handle(c, data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Debugf("Write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue must be called with ws.mu held.
func (c *client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("Send buffer full, dropping client")
		c.conn.Close()
	}
}

func (ws *WebSocket) handle(c *client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		ws.fail(c, fmt.Errorf("bad frame: %v", err))
		return
	}
	switch frame.Event {
	case unachat.TopicMessage:
		ws.chatMessage(c, frame.Data)
	case unachat.TopicTyping:
		var typing unachat.Typing
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &typing); err != nil {
				c.logger.Debugf("Bad typing data: %v", err)
			}
		}
		username := sanitize.Sanitize(utils.TruncateText(typing.Username, 64))
		if username == "" {
			username = defaultUsername
		}
		unachat.Events.Publish(unachat.TopicTyping, unachat.Event{
			Topic:   unachat.TopicTyping,
			Sender:  c.id,
			Payload: unachat.Typing{Username: username},
		})
	case unachat.TopicStopTyping:
		unachat.Events.Publish(unachat.TopicStopTyping, unachat.Event{
			Topic:  unachat.TopicStopTyping,
			Sender: c.id,
		})
	default:
		c.logger.Debugf("Unknown event %q", frame.Event)
	}
}

func (ws *WebSocket) chatMessage(c *client, data jsoniter.RawMessage) {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		ws.fail(c, fmt.Errorf("message data is not an object"))
		return
	}
	name := scalar(fields["nombre"])
	body := utils.TruncateText(scalar(fields["mensaje"]), ws.maxLength)

	raw, err := json.MarshalToString(map[string]string{
		"nombre":  name,
		"mensaje": body,
		"color":   ws.color(c.id),
	})
	if err != nil {
		ws.fail(c, err)
		return
	}
	envelope := ws.composer.ComposeEnvelope(raw)
	unachat.Events.Publish(unachat.TopicMessage, unachat.Event{
		Topic:   unachat.TopicMessage,
		Sender:  c.id,
		Payload: envelope,
	})
}

// color of a connection, kept until it disconnects.
func (ws *WebSocket) color(id string) string {
	if color, ok := ws.colors.Get(id); ok {
		return color.(string)
	}
	color := utils.RandomColor()
	ws.colors.Add(id, color)
	return color
}

func (ws *WebSocket) fail(c *client, err error) {
	c.logger.Debugf("Can't process message: %v", err)
	msg, _ := json.Marshal(outFrame{
		Event: unachat.TopicError,
		Data:  unachat.Failure{Message: message.ErrorBody},
	})
	ws.mu.RLock()
	c.enqueue(msg)
	ws.mu.RUnlock()
}

// Deliver bus event to connected clients
func (ws *WebSocket) Deliver(event unachat.Event) {
	var except string
	switch event.Topic {
	case unachat.TopicMessage:
	case unachat.TopicTyping, unachat.TopicStopTyping:
		except = event.Sender
	default:
		return
	}
	msg, err := json.Marshal(outFrame{Event: event.Topic, Data: event.Payload})
	if err != nil {
		log.WithField("endpoint", ws.endpoint.Name).Errorf("Can't encode %s: %v", event.Topic, err)
		return
	}
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	for id, c := range ws.clients {
		if id != except {
			c.enqueue(msg)
		}
	}
}

func scalar(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64, bool:
		return fmt.Sprint(v)
	}
	return ""
}
