package device

import (
	"sync"
	"time"

	fx "github.com/robotalks/rcinput/pkg/framework"
)

// Pulse train timing.
const (
	// SyncGap is the minimum gap between rising edges which starts
	// a new frame.
	SyncGap = 3 * time.Millisecond
	// DefaultMinChannels is the least channels a complete frame carries.
	DefaultMinChannels = 4
	// DefaultPulseTimeout is how long without a complete frame before
	// the link is reported as failed.
	DefaultPulseTimeout = 100 * time.Millisecond
)

// PulseTrain decodes a PPM stream from rising edge timestamps.
// HandleEdge is called from the edge capture goroutine, Update from
// the control loop.
type PulseTrain struct {
	Clock       fx.Clock
	MinChannels int
	Timeout     time.Duration

	lock     sync.Mutex
	lastEdge time.Time
	synced   bool
	current  int
	staging  channels
	frame    channels
	ready    bool
	lastSeen time.Time

	values channels
}

// NewPulseTrain creates a PulseTrain.
func NewPulseTrain() *PulseTrain {
	return &PulseTrain{
		Clock:       fx.SystemClock{},
		MinChannels: DefaultMinChannels,
		Timeout:     DefaultPulseTimeout,
	}
}

// HandleEdge records a rising edge.
func (d *PulseTrain) HandleEdge(t time.Time) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.lastEdge.IsZero() {
		d.lastEdge = t
		return
	}
	gap := t.Sub(d.lastEdge)
	d.lastEdge = t
	if gap > SyncGap {
		if d.synced && d.current >= d.minChannels() {
			for n := d.current; n < MaxChannels; n++ {
				d.staging[n] = 0
			}
			d.frame, d.ready, d.lastSeen = d.staging, true, t
		}
		d.synced, d.current = true, 0
		return
	}
	if d.synced && d.current < MaxChannels {
		d.staging[d.current] = int16(gap / time.Microsecond)
		d.current++
	}
}

// Update implements Device.
func (d *PulseTrain) Update() Status {
	now := d.clock().Now()
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.lastSeen.IsZero() {
		d.lastSeen = now
	}
	if d.ready {
		d.values, d.ready = d.frame, false
		return StatusReceived
	}
	if now.Sub(d.lastSeen) > d.timeout() {
		return StatusFailed
	}
	return StatusIdle
}

// Get implements Device.
func (d *PulseTrain) Get(index int) int16 {
	return d.values.get(index)
}

func (d *PulseTrain) clock() fx.Clock {
	if d.Clock == nil {
		return fx.SystemClock{}
	}
	return d.Clock
}

func (d *PulseTrain) minChannels() int {
	if d.MinChannels <= 0 {
		return DefaultMinChannels
	}
	return d.MinChannels
}

func (d *PulseTrain) timeout() time.Duration {
	if d.Timeout <= 0 {
		return DefaultPulseTimeout
	}
	return d.Timeout
}
