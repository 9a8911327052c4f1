package unachat

import (
	"fmt"
	"net/http"
	"sort"
)

type (

	// Endpoint type
	Endpoint struct {
		Type        string            `json:"type" yaml:"type"`
		Name        string            `json:"name" yaml:"name"`
		Description string            `json:"description" yaml:"description"`
		Options     map[string]string `json:"options" yaml:"options"`
		Topics      []string          `json:"topics" yaml:"topics"`
	}

	// EndpointInterface is interface
	EndpointInterface interface {
		// Deliver is called by the bus for every event on a subscribed topic.
		Deliver(event Event)
		// Pattern of the HTTP route, empty if the endpoint is not served.
		Pattern() string
		Handler(w http.ResponseWriter, r *http.Request)
	}

	// Initializer of endpoint
	Initializer func(endpoint Endpoint) (EndpointInterface, error)
)

var (
	// Initializers of endpoints
	Initializers = make(map[string]Initializer)
)

// AddEndpoint add initializer
func AddEndpoint(name string, init Initializer) {
	_, exists := Initializers[name]
	if !exists {
		Initializers[name] = init
	}
}

// NewEndpoint creates an endpoint of the registered type
func NewEndpoint(endpoint Endpoint) (EndpointInterface, error) {
	init, ok := Initializers[endpoint.Type]
	if !ok {
		return nil, fmt.Errorf("unknown endpoint type %q (known: %v)", endpoint.Type, EndpointTypes())
	}
	return init(endpoint)
}

// EndpointTypes returns registered endpoint types sorted by name
func EndpointTypes() []string {
	types := make([]string, 0, len(Initializers))
	for name := range Initializers {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}
