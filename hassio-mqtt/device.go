package hassiomqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

type Device struct {
	client      *Client
	id          string
	statusTopic string
	model       DeviceModel
}

// NewDevice creates a new device with a unique id. Entities attached
// to the device publish their state on its status topic.
func NewDevice(client *Client, id string, model *DeviceModel) *Device {
	return &Device{
		client:      client,
		id:          id,
		statusTopic: fmt.Sprintf("%s/%s/state", client.DiscoveryPrefix, id),
		model:       *model,
	}
}

// SendStatus publishes the device's state payload. Non-string values
// are marshalled to JSON first.
func (d *Device) SendStatus(status interface{}) error {
	payload, ok := status.(string)
	if !ok {
		data, err := json.Marshal(status)
		if err != nil {
			return err
		}
		payload = string(data)
	}

	tok := d.client.Client.Publish(d.statusTopic, 0, false, payload)
	if !tok.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publishing state to %s timed out", d.statusTopic)
	}
	return tok.Error()
}
