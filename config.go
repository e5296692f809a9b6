package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SerialSettings struct {
	Device string `mapstructure:"device"`
}

type MonitorSettings struct {
	// Mode is "active" or "passive"; applied to the device at startup.
	Mode         string        `mapstructure:"mode"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
	// MaxFailures is the consecutive comm-error count after which the
	// sensor is reported unhealthy.
	MaxFailures int           `mapstructure:"maxFailures"`
	WarmupDelay time.Duration `mapstructure:"warmupDelay"`
}

type MQTTSettings struct {
	Enable          bool   `mapstructure:"enable"`
	Broker          string `mapstructure:"broker"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	ClientID        string `mapstructure:"clientId"`
	DiscoveryPrefix string `mapstructure:"discoveryPrefix"`
}

type HTTPSettings struct {
	Addr        string `mapstructure:"addr"`
	MetricsPath string `mapstructure:"metricsPath"`
}

type LogFileSettings struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingSettings struct {
	Level  string          `mapstructure:"level"`
	Format string          `mapstructure:"format"`
	File   LogFileSettings `mapstructure:"file"`
}

type Config struct {
	Serial  SerialSettings  `mapstructure:"serial"`
	Monitor MonitorSettings `mapstructure:"monitor"`
	Mqtt    MQTTSettings    `mapstructure:"mqtt"`
	HTTP    HTTPSettings    `mapstructure:"http"`
	Logging LoggingSettings `mapstructure:"logging"`
}

// LoadConfig reads configuration from a YAML file plus PMS_-prefixed
// environment variable overrides. A missing file is not an error; the
// defaults describe a sensor on /dev/ttyAMA0 polled every 30s.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("PMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("serial.device", "/dev/ttyAMA0")

	v.SetDefault("monitor.mode", "active")
	v.SetDefault("monitor.pollInterval", "30s")
	v.SetDefault("monitor.maxFailures", 3)
	v.SetDefault("monitor.warmupDelay", "30s")

	v.SetDefault("mqtt.enable", false)
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.discoveryPrefix", "homeassistant")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metricsPath", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 28)
}
