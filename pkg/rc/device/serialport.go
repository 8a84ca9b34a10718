package device

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SerialConfig describes the UART the receiver firmware talks on.
type SerialConfig struct {
	Port        string
	Baud        int
	StopBits    int
	Parity      string
	ReadTimeout time.Duration
}

var defaultSerialConfig = SerialConfig{
	Baud:        115200,
	StopBits:    1,
	Parity:      "none",
	ReadTimeout: 10 * time.Millisecond,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultSerialConfig.Port, "rx-port", defaultSerialConfig.Port, "Serial port of the receiver, e.g. /dev/ttyUSB0.")
	flag.IntVar(&defaultSerialConfig.Baud, "rx-baud", defaultSerialConfig.Baud, "Receiver serial baud rate.")
	flag.IntVar(&defaultSerialConfig.StopBits, "rx-stop-bits", defaultSerialConfig.StopBits, "Receiver serial stop bits (1 or 2).")
	flag.StringVar(&defaultSerialConfig.Parity, "rx-parity", defaultSerialConfig.Parity, "Receiver serial parity: none, even, odd.")
}

// DefaultSerialConfig gets the default serial config.
func DefaultSerialConfig() *SerialConfig {
	return &defaultSerialConfig
}

// NewSerialConfig creates a SerialConfig with defaults.
func NewSerialConfig() *SerialConfig {
	conf := defaultSerialConfig
	return &conf
}

// Mode converts the config to a serial.Mode.
func (c *SerialConfig) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: c.Baud, DataBits: 8}
	switch c.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, errors.Errorf("invalid stop bits %d", c.StopBits)
	}
	switch strings.ToLower(c.Parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "even":
		mode.Parity = serial.EvenParity
	case "odd":
		mode.Parity = serial.OddParity
	default:
		return nil, errors.Errorf("invalid parity %q", c.Parity)
	}
	return mode, nil
}

// OpenPort opens the serial port with a read timeout so the link
// can poll it without a reader goroutine.
func (c *SerialConfig) OpenPort() (io.ReadWriteCloser, error) {
	mode, err := c.Mode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(c.Port, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %q", c.Port)
	}
	if c.ReadTimeout > 0 {
		if err = port.SetReadTimeout(c.ReadTimeout); err != nil {
			port.Close()
			return nil, errors.Wrap(err, "set read timeout")
		}
	}
	return port, nil
}

// NewSerialBus opens the port and creates a SerialBus on it.
func (c *SerialConfig) NewSerialBus() (*SerialBus, error) {
	port, err := c.OpenPort()
	if err != nil {
		return nil, err
	}
	d := NewSerialBus(port)
	d.Conn.ReadTimeout = c.ReadTimeout > 0
	return d, nil
}
