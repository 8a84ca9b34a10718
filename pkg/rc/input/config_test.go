package input

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	conf := NewConfig()
	require.NoError(t, conf.Validate())
	require.Equal(t, FailsafeSet, conf.Channels[0].Failsafe)
	require.Equal(t, uint16(1000), conf.Channels[3].FailsafeValue)
	require.Equal(t, FailsafeHold, conf.Channels[ChannelCount-1].Failsafe)
	require.Equal(t, 7, conf.Map[7])
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(*Config)
		channel int
		err     error
	}{
		{"min equals neutral", func(c *Config) { c.Channels[2].Min = 1500 }, 2, ErrDegenerateRange},
		{"neutral equals max", func(c *Config) { c.Channels[6].Max = 1500 }, 6, ErrDegenerateRange},
		{"reversed", func(c *Config) { c.Channels[0].Min, c.Channels[0].Max = 2000, 1000 }, 0, ErrDegenerateRange},
		{"negative map", func(c *Config) { c.Map[1] = -1 }, 1, ErrInvalidMap},
		{"map too large", func(c *Config) { c.Map[4] = 16 }, 4, ErrInvalidMap},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			err := conf.Validate()
			require.Error(t, err)
			cerr, ok := err.(*ConfigError)
			require.True(t, ok)
			require.Equal(t, tc.channel, cerr.Channel)
			require.Equal(t, tc.err, errors.Cause(err))
		})
	}

	conf := NewConfig()
	conf.Interpolation, conf.InterpolationInterval = InterpolationManual, 0
	require.Equal(t, ErrInvalidInterval, conf.Validate())
}

const testYAML = `
mid_rc: 1510
interpolation: manual
interpolation_interval: 26ms
map: [1, 0, 2, 3]
channels:
  - min: 988
    neutral: 1500
    max: 2012
    deadband: 5
  - failsafe: hold
  - {}
  - failsafe: set
    failsafe_value: 1000
`

func TestParseConfig(t *testing.T) {
	conf, err := ParseConfig([]byte(testYAML))
	require.NoError(t, err)
	require.Equal(t, int16(1510), conf.MidRC)
	require.Equal(t, InterpolationManual, conf.Interpolation)
	require.Equal(t, 26*time.Millisecond, conf.InterpolationInterval)
	require.Equal(t, [ChannelCount]int{1, 0, 2, 3, 4, 5, 6, 7}, conf.Map)
	require.Equal(t, ChannelConfig{
		Min: 988, Neutral: 1500, Max: 2012, Deadband: 5,
		Failsafe: FailsafeSet, FailsafeValue: 1500,
	}, conf.Channels[0])
	require.Equal(t, FailsafeHold, conf.Channels[1].Failsafe)
	require.Equal(t, uint16(1000), conf.Channels[3].FailsafeValue)
	require.Equal(t, int16(2000), conf.Channels[4].Max)
}

func TestParseConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"unknown policy", "interpolation: smooth\n"},
		{"unknown failsafe", "channels:\n  - failsafe: drop\n"},
		{"unknown field", "midrc: 1500\n"},
		{"degenerate", "channels:\n  - min: 1500\n"},
		{"map too long", "map: [0, 1, 2, 3, 4, 5, 6, 7, 8]\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "rcinput")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, "rc.yaml")
	require.NoError(t, ioutil.WriteFile(fn, []byte(testYAML), 0644))
	conf, err := LoadConfig(fn)
	require.NoError(t, err)
	require.Equal(t, InterpolationManual, conf.Interpolation)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestFlagValues(t *testing.T) {
	var p Interpolation
	require.NoError(t, p.Set("OFF"))
	require.Equal(t, InterpolationOff, p)
	require.Equal(t, "off", p.String())
	require.Error(t, p.Set("linear"))

	var m FailsafeMode
	require.NoError(t, m.Set("hold"))
	require.Equal(t, FailsafeHold, m)
	require.Equal(t, "auto", FailsafeAuto.String())
	require.Error(t, m.Set(""))
}
