package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	hassiomqtt "github.com/dustwatch/pms-controller/hassio-mqtt"
)

// hassSensorMetadata describes the Home Assistant entity for each
// published measurement. Atmospheric mass concentrations are the
// primary entities; particle counts are diagnostics.
var hassSensorMetadata = []struct {
	field       string
	name        string
	deviceClass string
	units       string
	diagnostic  bool
}{
	{field: "pm1_0", name: "PM1.0", deviceClass: "pm1", units: "µg/m³"},
	{field: "pm2_5", name: "PM2.5", deviceClass: "pm25", units: "µg/m³"},
	{field: "pm10", name: "PM10", deviceClass: "pm10", units: "µg/m³"},
	{field: "particles_0_3um", name: "Particles >0.3µm", units: "/0.1L", diagnostic: true},
	{field: "particles_0_5um", name: "Particles >0.5µm", units: "/0.1L", diagnostic: true},
	{field: "particles_1_0um", name: "Particles >1.0µm", units: "/0.1L", diagnostic: true},
	{field: "particles_2_5um", name: "Particles >2.5µm", units: "/0.1L", diagnostic: true},
	{field: "particles_5_0um", name: "Particles >5.0µm", units: "/0.1L", diagnostic: true},
	{field: "particles_10um", name: "Particles >10µm", units: "/0.1L", diagnostic: true},
}

type MQTTListener struct {
	eventChannel chan ReadingUpdate
	mqtt         *hassiomqtt.Client
	monitor      *Monitor
	hassDevice   *hassiomqtt.Device
	log          *zap.Logger
}

func NewMQTTListener(cfg *MQTTSettings, monitor *Monitor, log *zap.Logger) *MQTTListener {
	clientID := cfg.ClientID
	if clientID == "" {
		host, _ := os.Hostname()
		clientID = fmt.Sprintf("pms-controller-%s-%s", host, uuid.NewString()[:8])
	}

	return &MQTTListener{
		eventChannel: make(chan ReadingUpdate, 10),
		mqtt: hassiomqtt.NewClient(hassiomqtt.ClientConfig{
			Broker:          cfg.Broker,
			Port:            cfg.Port,
			ClientID:        clientID,
			User:            cfg.User,
			Password:        cfg.Password,
			DiscoveryPrefix: cfg.DiscoveryPrefix,
		}, log),
		monitor: monitor,
		log:     log,
	}
}

// Start connects the client, declares the device and its entities, and
// forwards readings to the device state topic.
func (l *MQTTListener) Start() {
	l.monitor.AddListener(l.eventChannel)
	l.mqtt.Start()

	go func() {
		l.declareDevice()

		for update := range l.eventChannel {
			l.publishState(update)
		}
	}()
}

func (l *MQTTListener) declareDevice() {
	l.hassDevice = hassiomqtt.NewDevice(l.mqtt, "pms7003", &hassiomqtt.DeviceModel{
		Identifiers:  []string{"pms7003"},
		Manufacturer: "Plantower",
		Model:        "PMS7003",
		Name:         "Particulate Matter Sensor",
	})

	for _, md := range hassSensorMetadata {
		sensorID := fmt.Sprintf("pms7003_%s", md.field)

		model := &hassiomqtt.SensorModel{
			EntityModel: hassiomqtt.EntityModel{
				DeviceClass:   md.deviceClass,
				Name:          md.name,
				ObjectID:      sensorID,
				ValueTemplate: fmt.Sprintf("{{value_json.%s}}", md.field),
			},
			StateClass:        "measurement",
			UnitOfMeasurement: md.units,
		}
		if md.diagnostic {
			model.EntityCategory = "diagnostic"
		}

		if _, err := hassiomqtt.NewSensor(l.hassDevice, sensorID, model); err != nil {
			l.log.Warn("declaring sensor entity failed", zap.String("entity", sensorID), zap.Error(err))
		}
	}

	_, err := hassiomqtt.NewSwitch(l.hassDevice, "pms7003_awake", &hassiomqtt.SwitchModel{
		EntityModel: hassiomqtt.EntityModel{
			Name:          "Measurement",
			ObjectID:      "pms7003_awake",
			Icon:          "mdi:fan",
			ValueTemplate: "{{value_json.awake}}",
		},
		PayloadOn:  "ON",
		PayloadOff: "OFF",
		StateOn:    "ON",
		StateOff:   "OFF",
	}, l.handleAwakeCommand)
	if err != nil {
		l.log.Warn("declaring switch entity failed", zap.Error(err))
	}
}

// handleAwakeCommand maps the HA switch to sensor sleep/wake.
func (l *MQTTListener) handleAwakeCommand(payload string) {
	var err error
	switch strings.ToUpper(payload) {
	case "ON":
		err = l.monitor.Wakeup()
	case "OFF":
		err = l.monitor.Sleep()
	default:
		l.log.Warn("unknown switch command", zap.String("payload", payload))
		return
	}
	if err != nil {
		l.log.Warn("switch command failed", zap.String("payload", payload), zap.Error(err))
	}
}

func (l *MQTTListener) publishState(update ReadingUpdate) {
	if l.hassDevice == nil {
		return
	}

	r := update.Reading
	awake := "OFF"
	if l.monitor.Awake() {
		awake = "ON"
	}

	state := map[string]interface{}{
		"pm1_0":           r.Pm10Atm,
		"pm2_5":           r.Pm25Atm,
		"pm10":            r.Pm100Atm,
		"particles_0_3um": r.Particles3um,
		"particles_0_5um": r.Particles5um,
		"particles_1_0um": r.Particles10um,
		"particles_2_5um": r.Particles25um,
		"particles_5_0um": r.Particles50um,
		"particles_10um":  r.Particles100um,
		"awake":           awake,
	}

	if err := l.hassDevice.SendStatus(state); err != nil {
		l.log.Warn("publishing state failed", zap.Error(err))
	}
}
