// Package env provides the common options to run the RC input daemon
// and its tools: device identity and telemetry endpoints.
package env

import (
	"flag"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/rcinput/pkg/framework"
	"github.com/robotalks/rcinput/pkg/telemetry"
	"github.com/robotalks/rcinput/pkg/telemetry/mqtt"
	"github.com/robotalks/rcinput/pkg/telemetry/websocket"
)

// Config provides the telemetry options.
type Config struct {
	// ID identifies the device in telemetry topics.
	ID string
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// WebsocketAddr is the listen address of the websocket sink.
	WebsocketAddr string
}

var defaultConfig = Config{
	MQTTBrokerURL: "mqtt://localhost:1883/rc/",
}

func init() {
	if val := os.Getenv("RCINPUT_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("RCINPUT_ID"); val != "" {
		defaultConfig.ID = val
	}
}

// MachineID retrieves the unique ID identifying the machine, or the
// host name when no machine ID is available.
func MachineID() string {
	id, err := machineid.ID()
	if err == nil {
		return id
	}
	glog.Warningf("machine id: %v", err)
	if id, err = os.Hostname(); err == nil {
		return id
	}
	return "unknown"
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Device ID in telemetry topics, machine ID if empty.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable.")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws-addr", defaultConfig.WebsocketAddr, "Websocket telemetry listen address, e.g. :8080.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// DeviceID returns ID or the machine ID.
func (c *Config) DeviceID() string {
	if c.ID != "" {
		return c.ID
	}
	return MachineID()
}

// Env holds the telemetry sinks.
type Env struct {
	Config *Config
	ID     string
	Sinks  *telemetry.SinkMux
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	e := &Env{Config: c, ID: c.DeviceID(), Sinks: &telemetry.SinkMux{}}
	if c.MQTTBrokerURL != "" {
		sink, err := mqtt.NewSink(c.MQTTBrokerURL)
		if err != nil {
			return nil, errors.Wrap(err, "create MQTT sink")
		}
		e.Sinks.Add(sink)
	}
	if c.WebsocketAddr != "" {
		e.Sinks.Add(websocket.NewSink(c.WebsocketAddr))
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		glog.Exitln(err)
	}
	return e
}

// TopicPrefix is the prefix of all topics published by this device.
func (e *Env) TopicPrefix() string {
	return e.ID + "/"
}

// NewPublisher creates a telemetry publisher for src.
func (e *Env) NewPublisher(src telemetry.Source) *telemetry.Publisher {
	return telemetry.NewPublisher(src, e.Sinks, e.TopicPrefix())
}

// AddToLoop implements LoopAdder.
func (e *Env) AddToLoop(l *fx.Loop) {
	l.Add(e.Sinks)
}
