package unachat

import (
	"sync"

	"github.com/asaskevich/EventBus"
)

// Bus topics
const (
	TopicMessage    = "chat message"
	TopicTyping     = "typing"
	TopicStopTyping = "stop typing"
	TopicError      = "error"
)

// Topics published on the bus
var Topics = []string{TopicMessage, TopicTyping, TopicStopTyping}

var (
	// Events bus
	Events = EventBus.New()

	// WaitGroup tracks served websocket clients
	WaitGroup sync.WaitGroup
)
