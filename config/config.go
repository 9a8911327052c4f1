package config

import (
	"fmt"
	"io/ioutil"

	"github.com/n0madic/unachat"
	"github.com/n0madic/unachat/utils"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

// DefaultMaxMessageLength in runes
const DefaultMaxMessageLength = 1000

// Config struct
type Config struct {
	Bind             string             `yaml:"bind"`
	MaxMessageLength int                `yaml:"max_message_length"`
	CORSOrigins      []string           `yaml:"cors_origins"`
	Endpoints        []unachat.Endpoint `yaml:"endpoints"`
	filename         string
}

// Default config used when no file is given
func Default() Config {
	return Config{
		Bind:             ":3000",
		MaxMessageLength: DefaultMaxMessageLength,
		CORSOrigins:      []string{"*"},
		Endpoints: []unachat.Endpoint{
			{
				Type:   "websocket",
				Name:   "chat",
				Topics: []string{unachat.TopicMessage, unachat.TopicTyping, unachat.TopicStopTyping},
			},
			{
				Type:   "log",
				Name:   "log",
				Topics: []string{unachat.TopicMessage},
			},
		},
	}
}

// New config create
func New(filename string) (Config, error) {
	config := Default()
	config.filename = filename
	if filename == "" {
		return config, nil
	}
	err := config.LoadConfig()
	return config, err
}

// LoadConfig load config
func (c *Config) LoadConfig() error {
	configfile, err := ioutil.ReadFile(c.filename)
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(configfile, c)
	if err != nil {
		return fmt.Errorf("can't parse %s: %v", c.filename, err)
	}
	if c.MaxMessageLength <= 0 {
		c.MaxMessageLength = DefaultMaxMessageLength
	}
	return c.validate()
}

func (c *Config) validate() error {
	names := make(map[string]bool)
	for i, endpoint := range c.Endpoints {
		if endpoint.Name == "" {
			endpoint.Name = endpoint.Type
			c.Endpoints[i].Name = endpoint.Name
		}
		if names[endpoint.Name] {
			return fmt.Errorf("duplicate endpoint name %q", endpoint.Name)
		}
		names[endpoint.Name] = true
		for _, topic := range endpoint.Topics {
			if !utils.StringInSlice(topic, unachat.Topics) {
				return fmt.Errorf("endpoint %s: unknown topic %q (known: %q)", endpoint.Name, topic, unachat.Topics)
			}
		}
	}
	return nil
}

// CreateEndpoints and subscribe them on their topics
func (c *Config) CreateEndpoints() ([]unachat.EndpointInterface, error) {
	var endpoints []unachat.EndpointInterface
	for _, endpoint := range c.Endpoints {
		if endpoint.Options == nil {
			endpoint.Options = make(map[string]string)
		}
		if _, ok := endpoint.Options["max_message_length"]; !ok {
			endpoint.Options["max_message_length"] = fmt.Sprint(c.MaxMessageLength)
		}
		newEndpoint, err := unachat.NewEndpoint(endpoint)
		if err != nil {
			return nil, fmt.Errorf("can't create endpoint %s: %v", endpoint.Name, err)
		}
		for _, topic := range endpoint.Topics {
			if err := unachat.Events.Subscribe(topic, newEndpoint.Deliver); err != nil {
				return nil, err
			}
		}
		log.WithFields(log.Fields{"name": endpoint.Name, "type": endpoint.Type, "topics": endpoint.Topics}).Info("Endpoint created")
		endpoints = append(endpoints, newEndpoint)
	}
	return endpoints, nil
}
