package hassiomqtt

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// CommandFunc handles a payload arriving on a switch's command topic.
type CommandFunc func(payload string)

type Switch struct {
	device      *Device
	model       SwitchModel
	configTopic string
	onCommand   CommandFunc
}

// NewSwitch declares a switch entity on the device, publishes its
// discovery config and subscribes to its command topic.
func NewSwitch(device *Device, id string, model *SwitchModel, onCommand CommandFunc) (*Switch, error) {
	s := &Switch{
		device:      device,
		model:       *model,
		configTopic: fmt.Sprintf("%s/switch/%s/%s/config", device.client.DiscoveryPrefix, device.client.id, id),
		onCommand:   onCommand,
	}

	s.model.CommandTopic = fmt.Sprintf("%s/switch/%s/%s/set", device.client.DiscoveryPrefix, device.client.id, id)
	s.model.StateTopic = device.statusTopic
	s.model.UniqueID = id
	s.model.Device = &device.model

	if err := s.Refresh(); err != nil {
		return nil, err
	}

	tok := device.client.Client.Subscribe(s.model.CommandTopic, 1, func(cl mqtt.Client, m mqtt.Message) {
		s.onCommand(string(m.Payload()))
	})
	tok.WaitTimeout(time.Second)
	if err := tok.Error(); err != nil {
		return nil, err
	}

	device.client.entities[id] = s

	return s, nil
}

// Refresh re-publishes the discovery config.
func (s *Switch) Refresh() error {
	data, err := json.Marshal(s.model)
	if err != nil {
		return err
	}

	tok := s.device.client.Client.Publish(s.configTopic, 1, false, data)
	tok.WaitTimeout(time.Second)
	return tok.Error()
}
