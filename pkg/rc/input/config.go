package input

import (
	"flag"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/robotalks/rcinput/pkg/rc/device"
)

// Channel layout.
const (
	// ChannelCount is the number of published channels.
	ChannelCount = 8
	// AxisCount is the number of primary axes (roll, pitch, yaw).
	// Only these get deadband, interpolation and clamping.
	AxisCount = 3
)

// Default timing.
const (
	DefaultInterval = 20 * time.Millisecond
	MinAutoInterval = 4 * time.Millisecond
	MaxAutoInterval = 30 * time.Millisecond
)

// Configuration errors.
var (
	ErrDegenerateRange = errors.New("degenerate range, want min < neutral < max")
	ErrInvalidMap      = errors.New("channel map out of range")
	ErrInvalidInterval = errors.New("interpolation interval must be positive")
)

// ConfigError reports an invalid channel configuration.
type ConfigError struct {
	Channel int
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rc channel %d: %v", e.Channel, e.Err)
}

// Cause returns the underlying error.
func (e *ConfigError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// FailsafeMode selects what a channel does when the link is lost.
type FailsafeMode int

// Failsafe modes.
const (
	// FailsafeAuto currently behaves like FailsafeSet.
	FailsafeAuto FailsafeMode = iota
	FailsafeHold
	FailsafeSet
)

var failsafeModeNames = []string{"auto", "hold", "set"}

func (m FailsafeMode) String() string {
	if m >= 0 && int(m) < len(failsafeModeNames) {
		return failsafeModeNames[m]
	}
	return fmt.Sprintf("failsafe(%d)", int(m))
}

// Set implements flag.Value.
func (m *FailsafeMode) Set(s string) error {
	n, err := parseName(failsafeModeNames, s)
	if err != nil {
		return errors.Wrap(err, "failsafe mode")
	}
	*m = FailsafeMode(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *FailsafeMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return m.Set(s)
}

// Interpolation is the policy choosing the interpolation interval.
type Interpolation int

// Interpolation policies.
const (
	// InterpolationAuto measures the interval between received frames.
	InterpolationAuto Interpolation = iota
	// InterpolationManual uses Config.InterpolationInterval.
	InterpolationManual
	// InterpolationOff publishes the latest sample as is.
	InterpolationOff
)

var interpolationNames = []string{"auto", "manual", "off"}

func (p Interpolation) String() string {
	if p >= 0 && int(p) < len(interpolationNames) {
		return interpolationNames[p]
	}
	return fmt.Sprintf("interpolation(%d)", int(p))
}

// Set implements flag.Value.
func (p *Interpolation) Set(s string) error {
	n, err := parseName(interpolationNames, s)
	if err != nil {
		return errors.Wrap(err, "interpolation")
	}
	*p = Interpolation(n)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Interpolation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return p.Set(s)
}

func parseName(names []string, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for n, name := range names {
		if name == s {
			return n, nil
		}
	}
	return 0, errors.Errorf("unknown value %q, want one of %s", s, strings.Join(names, "|"))
}

// ChannelConfig is the calibration of a single channel.
type ChannelConfig struct {
	Min     int16
	Neutral int16
	Max     int16
	// Deadband is applied around Config.MidRC on the primary axes.
	Deadband      int16
	Failsafe      FailsafeMode
	FailsafeValue uint16
}

// Scale normalizes a raw pulse of this channel.
func (c *ChannelConfig) Scale(raw float64) float64 {
	return Scale(raw, c.Min, c.Neutral, c.Max)
}

// Pulse converts a normalized value back to a pulse of this channel.
func (c *ChannelConfig) Pulse(value float64) uint16 {
	return Pulse(value, c.Min, c.Neutral, c.Max)
}

// Config defines the configuration of the input pipeline.
type Config struct {
	Channels [ChannelCount]ChannelConfig
	// Map gives the device channel read for each published channel.
	Map                   [ChannelCount]int
	MidRC                 int16
	Interpolation         Interpolation
	InterpolationInterval time.Duration
}

var (
	defaultConfig = newDefaultConfig()
	configFile    string
)

func newDefaultConfig() Config {
	conf := Config{
		MidRC:                 1500,
		Interpolation:         InterpolationAuto,
		InterpolationInterval: DefaultInterval,
	}
	for n := range conf.Channels {
		conf.Channels[n] = ChannelConfig{
			Min:           1000,
			Neutral:       1500,
			Max:           2000,
			Failsafe:      FailsafeSet,
			FailsafeValue: 1500,
		}
		conf.Map[n] = n
	}
	// throttle drops to idle; switches hold their position.
	conf.Channels[3].FailsafeValue = 1000
	for n := AxisCount + 1; n < ChannelCount; n++ {
		conf.Channels[n].Failsafe = FailsafeHold
	}
	return conf
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "rc-config", configFile, "YAML file with channel calibration, overrides the flags below.")
	flag.Var(&defaultConfig.Interpolation, "rc-interpolation", "Interpolation policy: auto, manual, off.")
	flag.DurationVar(&defaultConfig.InterpolationInterval, "rc-interval", defaultConfig.InterpolationInterval, "Interpolation interval of the manual policy.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// FromFlags creates a config from defaults and the file given by
// -rc-config, and validates it.
func FromFlags() (*Config, error) {
	if configFile != "" {
		return LoadConfig(configFile)
	}
	conf := NewConfig()
	return conf, conf.Validate()
}

// Validate checks the config, returning a *ConfigError for the first
// offending channel.
func (c *Config) Validate() error {
	for n := range c.Channels {
		ch := &c.Channels[n]
		if ch.Min >= ch.Neutral || ch.Neutral >= ch.Max {
			return &ConfigError{Channel: n, Err: ErrDegenerateRange}
		}
		if m := c.Map[n]; m < 0 || m >= device.MaxChannels {
			return &ConfigError{Channel: n, Err: ErrInvalidMap}
		}
	}
	if c.Interpolation == InterpolationManual && c.InterpolationInterval <= 0 {
		return ErrInvalidInterval
	}
	return nil
}

type channelFile struct {
	Min           *int16        `yaml:"min"`
	Neutral       *int16        `yaml:"neutral"`
	Max           *int16        `yaml:"max"`
	Deadband      *int16        `yaml:"deadband"`
	Failsafe      *FailsafeMode `yaml:"failsafe"`
	FailsafeValue *uint16       `yaml:"failsafe_value"`
}

type configFileContent struct {
	MidRC                 *int16         `yaml:"mid_rc"`
	Interpolation         *Interpolation `yaml:"interpolation"`
	InterpolationInterval *time.Duration `yaml:"interpolation_interval"`
	Map                   []int          `yaml:"map"`
	Channels              []channelFile  `yaml:"channels"`
}

// ParseConfig applies YAML content on top of the defaults and
// validates the result.
func ParseConfig(data []byte) (*Config, error) {
	var content configFileContent
	if err := yaml.UnmarshalStrict(data, &content); err != nil {
		return nil, errors.Wrap(err, "parse rc config")
	}
	if len(content.Map) > ChannelCount {
		return nil, errors.Errorf("rc config: map has %d entries, at most %d", len(content.Map), ChannelCount)
	}
	if len(content.Channels) > ChannelCount {
		return nil, errors.Errorf("rc config: %d channels, at most %d", len(content.Channels), ChannelCount)
	}
	conf := NewConfig()
	if content.MidRC != nil {
		conf.MidRC = *content.MidRC
	}
	if content.Interpolation != nil {
		conf.Interpolation = *content.Interpolation
	}
	if content.InterpolationInterval != nil {
		conf.InterpolationInterval = *content.InterpolationInterval
	}
	copy(conf.Map[:], content.Map)
	for n, f := range content.Channels {
		ch := &conf.Channels[n]
		if f.Min != nil {
			ch.Min = *f.Min
		}
		if f.Neutral != nil {
			ch.Neutral = *f.Neutral
		}
		if f.Max != nil {
			ch.Max = *f.Max
		}
		if f.Deadband != nil {
			ch.Deadband = *f.Deadband
		}
		if f.Failsafe != nil {
			ch.Failsafe = *f.Failsafe
		}
		if f.FailsafeValue != nil {
			ch.FailsafeValue = *f.FailsafeValue
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// LoadConfig loads the config from a YAML file.
func LoadConfig(fn string) (*Config, error) {
	data, err := ioutil.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrap(err, "read rc config")
	}
	return ParseConfig(data)
}
