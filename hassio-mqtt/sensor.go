package hassiomqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

type Sensor struct {
	device      *Device
	model       SensorModel
	configTopic string
}

// NewSensor declares a sensor entity on the device and publishes its
// discovery config.
func NewSensor(device *Device, id string, model *SensorModel) (*Sensor, error) {
	s := &Sensor{
		device:      device,
		model:       *model,
		configTopic: fmt.Sprintf("%s/sensor/%s/%s/config", device.client.DiscoveryPrefix, device.client.id, id),
	}

	s.model.StateTopic = device.statusTopic
	s.model.UniqueID = id
	s.model.Device = &device.model

	if err := s.Refresh(); err != nil {
		return nil, err
	}

	device.client.entities[id] = s

	return s, nil
}

// Refresh re-publishes the discovery config.
func (s *Sensor) Refresh() error {
	data, err := json.Marshal(s.model)
	if err != nil {
		return err
	}

	tok := s.device.client.Client.Publish(s.configTopic, 1, false, data)
	tok.WaitTimeout(time.Second)
	return tok.Error()
}
