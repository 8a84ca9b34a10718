package device

// Status is the result of polling a Device once per tick.
type Status int

// Statuses
const (
	// StatusNoDevice means nothing is bound; callers do nothing.
	StatusNoDevice Status = iota
	// StatusIdle means no new data since the last poll.
	StatusIdle
	// StatusReceived means a fresh set of channel values is available.
	StatusReceived
	// StatusFailed means the link to the transmitter is lost.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusNoDevice:
		return "no-device"
	case StatusIdle:
		return "idle"
	case StatusReceived:
		return "received"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// MaxChannels is the number of raw channels a device can report.
const MaxChannels = 16

// Device is a receiver producing channel pulses.
type Device interface {
	// Update polls the device. It must not block.
	Update() Status
	// Get returns the pulse (usually microseconds) of a raw channel
	// captured by the last Update returning StatusReceived.
	Get(index int) int16
}

// Null is the Device used when no receiver is configured.
type Null struct{}

// Update implements Device.
func (Null) Update() Status { return StatusNoDevice }

// Get implements Device.
func (Null) Get(int) int16 { return 0 }

type channels [MaxChannels]int16

func (c *channels) get(index int) int16 {
	if index < 0 || index >= MaxChannels {
		return 0
	}
	return c[index]
}
