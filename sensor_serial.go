//go:build !simulated

package main

import (
	"github.com/dustwatch/pms-controller/pms7003"
)

func openSensor(cfg *SerialSettings) (*pms7003.Sensor, error) {
	return pms7003.Open(cfg.Device)
}
