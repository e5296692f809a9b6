// Package hassiomqtt publishes devices and entities to Home Assistant
// over MQTT using its discovery protocol.
//
// Discovery docs: https://www.home-assistant.io/integrations/mqtt/#mqtt-discovery
package hassiomqtt

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Entity is anything that can re-publish its discovery config.
type Entity interface {
	Refresh() error
}

type ClientConfig struct {
	Broker          string
	Port            int
	ClientID        string
	User            string
	Password        string
	DiscoveryPrefix string
}

type Client struct {
	Client          mqtt.Client
	id              string
	DiscoveryPrefix string
	log             *zap.Logger
	entities        map[string]Entity
}

func NewClient(cfg ClientConfig, log *zap.Logger) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	prefix := cfg.DiscoveryPrefix
	if prefix == "" {
		prefix = "homeassistant"
	}

	c := &Client{
		id:              cfg.ClientID,
		DiscoveryPrefix: prefix,
		log:             log,
		entities:        make(map[string]Entity),
	}

	c.Client = mqtt.NewClient(opts)
	return c
}

// Start connects to the broker in the background, retrying until it
// succeeds, then watches Home Assistant's status topic so discovery
// configs are re-published after a HA restart.
func (c *Client) Start() {
	go func() {
		for !c.Client.IsConnected() {
			tok := c.Client.Connect()
			ok := tok.WaitTimeout(time.Second)
			if !ok {
				c.log.Warn("timeout connecting to MQTT broker, retrying")
				continue
			}
			if err := tok.Error(); err != nil {
				c.log.Warn("error connecting to MQTT broker", zap.Error(err))
				time.Sleep(5 * time.Second)
			}
		}
		c.log.Info("connected to MQTT broker")

		c.Client.Subscribe(c.DiscoveryPrefix+"/status", 0, func(cl mqtt.Client, m mqtt.Message) {
			c.log.Info("hass status changed", zap.ByteString("payload", m.Payload()))

			for id, e := range c.entities {
				if err := e.Refresh(); err != nil {
					c.log.Warn("refreshing entity failed", zap.String("entity", id), zap.Error(err))
				}
			}
		})
	}()
}
