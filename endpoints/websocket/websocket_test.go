package websocket

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/n0madic/unachat"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

var colorRe = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func newServer(t *testing.T, options map[string]string) (*WebSocket, *httptest.Server) {
	endpoint, err := New(unachat.Endpoint{Type: "websocket", Name: t.Name(), Options: options})
	require.NoError(t, err)
	ws := endpoint.(*WebSocket)
	for _, topic := range []string{unachat.TopicMessage, unachat.TopicTyping, unachat.TopicStopTyping} {
		require.NoError(t, unachat.Events.Subscribe(topic, ws.Deliver))
	}
	srv := httptest.NewServer(http.HandlerFunc(ws.Handler))
	t.Cleanup(srv.Close)
	return ws, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func connect(t *testing.T, ws *WebSocket, srv *httptest.Server, n int) []*websocket.Conn {
	conns := make([]*websocket.Conn, n)
	for i := range conns {
		conns[i] = dial(t, srv)
	}
	require.Eventually(t, func() bool { return ws.Clients() == n }, 2*time.Second, 10*time.Millisecond)
	return conns
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": event, "data": data}))
}

func read(t *testing.T, conn *websocket.Conn) received {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame received
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestChatMessageBroadcast(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 2)

	send(t, conns[0], unachat.TopicMessage, map[string]string{
		"nombre":  "Ana",
		"mensaje": "mira https://youtu.be/dQw4w9WgXcQ",
	})

	for _, conn := range conns {
		frame := read(t, conn)
		assert.Equal(t, unachat.TopicMessage, frame.Event)
		assert.Equal(t, "Ana", frame.Data["nombre"])
		assert.Contains(t, frame.Data["mensaje"], `src="https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ"`)
		assert.Regexp(t, colorRe, frame.Data["color"])
		assert.NotEmpty(t, frame.Data["timestamp"])
	}
}

func TestChatMessageSanitized(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 1)

	send(t, conns[0], unachat.TopicMessage, map[string]string{
		"nombre":  `<script>alert(1)</script>Eve`,
		"mensaje": `<script>alert(1)</script><b onclick="x()">hola</b>`,
	})

	frame := read(t, conns[0])
	assert.Equal(t, "Eve", frame.Data["nombre"])
	assert.Equal(t, "<b>hola</b>", frame.Data["mensaje"])
}

func TestChatMessageDefaults(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 1)

	send(t, conns[0], unachat.TopicMessage, map[string]string{})

	frame := read(t, conns[0])
	assert.Equal(t, "Anónimo", frame.Data["nombre"])
	assert.Equal(t, "", frame.Data["mensaje"])
	assert.Regexp(t, colorRe, frame.Data["color"])
}

func TestChatMessageTruncated(t *testing.T) {
	ws, srv := newServer(t, map[string]string{"max_message_length": "5"})
	conns := connect(t, ws, srv, 1)

	send(t, conns[0], unachat.TopicMessage, map[string]string{"nombre": "Ana", "mensaje": "ñandúes y más"})

	frame := read(t, conns[0])
	assert.Equal(t, "ñandú", frame.Data["mensaje"])
}

func TestColorPerConnection(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 2)

	send(t, conns[0], unachat.TopicMessage, map[string]string{"nombre": "Ana", "mensaje": "uno"})
	first := read(t, conns[0])
	read(t, conns[1])
	send(t, conns[0], unachat.TopicMessage, map[string]string{"nombre": "Otra", "mensaje": "dos"})
	second := read(t, conns[0])
	read(t, conns[1])
	assert.Equal(t, "dos", second.Data["mensaje"])
	assert.Equal(t, first.Data["color"], second.Data["color"])

	// same nickname from another connection does not borrow the color
	send(t, conns[1], unachat.TopicMessage, map[string]string{"nombre": "Ana", "mensaje": "tres"})
	third := read(t, conns[0])
	assert.Equal(t, "tres", third.Data["mensaje"])
	assert.NotEqual(t, first.Data["color"], third.Data["color"])
}

func TestColorReleasedOnDisconnect(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 1)

	send(t, conns[0], unachat.TopicMessage, map[string]string{"nombre": "Ana", "mensaje": "uno"})
	read(t, conns[0])
	assert.Equal(t, 1, ws.colors.Len())

	conns[0].Close()
	assert.Eventually(t, func() bool { return ws.colors.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestInvalidMessageData(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 2)

	send(t, conns[0], unachat.TopicMessage, "hola")
	frame := read(t, conns[0])
	assert.Equal(t, unachat.TopicError, frame.Event)
	assert.Equal(t, "Error al procesar el mensaje", frame.Data["message"])

	require.NoError(t, conns[0].WriteMessage(websocket.TextMessage, []byte("not json")))
	frame = read(t, conns[0])
	assert.Equal(t, unachat.TopicError, frame.Event)

	// the other client never sees the errors
	send(t, conns[0], unachat.TopicMessage, map[string]string{"nombre": "Ana", "mensaje": "ok"})
	frame = read(t, conns[1])
	assert.Equal(t, unachat.TopicMessage, frame.Event)
	assert.Equal(t, "ok", frame.Data["mensaje"])
}

func TestTypingSkipsSender(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 2)

	send(t, conns[0], unachat.TopicTyping, map[string]string{"username": "Ana"})
	frame := read(t, conns[1])
	assert.Equal(t, unachat.TopicTyping, frame.Event)
	assert.Equal(t, "Ana", frame.Data["username"])

	send(t, conns[1], unachat.TopicTyping, nil)
	frame = read(t, conns[0])
	assert.Equal(t, unachat.TopicTyping, frame.Event)
	assert.Equal(t, "Alguien", frame.Data["username"])

	send(t, conns[0], unachat.TopicStopTyping, nil)
	frame = read(t, conns[1])
	assert.Equal(t, unachat.TopicStopTyping, frame.Event)

	// sender got nothing back: next frame is its own chat message
	send(t, conns[0], unachat.TopicMessage, map[string]string{"nombre": "Ana", "mensaje": "fin"})
	frame = read(t, conns[0])
	assert.Equal(t, unachat.TopicMessage, frame.Event)
}

func TestTypingBadData(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(level)

	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 2)

	send(t, conns[0], unachat.TopicTyping, "x")
	frame := read(t, conns[1])
	assert.Equal(t, unachat.TopicTyping, frame.Event)
	assert.Equal(t, "Alguien", frame.Data["username"])

	logged := false
	for _, entry := range hook.AllEntries() {
		if strings.HasPrefix(entry.Message, "Bad typing data") {
			logged = true
			assert.Equal(t, log.DebugLevel, entry.Level)
		}
	}
	assert.True(t, logged)
}

func TestClientsUnregister(t *testing.T) {
	ws, srv := newServer(t, nil)
	conns := connect(t, ws, srv, 2)

	conns[0].Close()
	assert.Eventually(t, func() bool { return ws.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return ws.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewOptions(t *testing.T) {
	endpoint, err := New(unachat.Endpoint{Type: "websocket", Name: "chat", Options: map[string]string{"path": "/chat"}})
	require.NoError(t, err)
	assert.Equal(t, "/chat", endpoint.Pattern())

	_, err = New(unachat.Endpoint{Type: "websocket", Name: "chat", Options: map[string]string{"max_message_length": "-1"}})
	assert.Error(t, err)
	_, err = New(unachat.Endpoint{Type: "websocket", Name: "chat", Options: map[string]string{"colors": "lots"}})
	assert.Error(t, err)
}

func TestSameOrigin(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://chat.example.com/ws", nil)
	assert.True(t, sameOrigin(r))
	r.Header.Set("Origin", "http://chat.example.com")
	assert.True(t, sameOrigin(r))
	r.Header.Set("Origin", "http://evil.example.com")
	assert.False(t, sameOrigin(r))
}

func TestScalar(t *testing.T) {
	assert.Equal(t, "hola", scalar("hola"))
	assert.Equal(t, "42", scalar(float64(42)))
	assert.Equal(t, "true", scalar(true))
	assert.Equal(t, "", scalar(nil))
	assert.Equal(t, "", scalar([]interface{}{"a"}))
}
