package device

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rcinput/pkg/framework"
	"github.com/robotalks/rcinput/pkg/rc/link"
)

// DefaultFrameTimeout is how long a serial-bus receiver may stay
// silent before the link is reported as failed.
const DefaultFrameTimeout = 100 * time.Millisecond

// SerialBus is a receiver whose firmware forwards decoded channel
// frames over a link.Conn. Frames arrive on the link goroutine and
// are handed over to the control loop in Update.
type SerialBus struct {
	Conn         *link.Conn
	Clock        fx.Clock
	FrameTimeout time.Duration

	lock      sync.Mutex
	pending   *link.ChannelFrame
	lost      bool
	lastFrame time.Time

	values channels
}

// NewSerialBus creates a SerialBus over a byte stream.
func NewSerialBus(rw io.ReadWriter) *SerialBus {
	d := &SerialBus{
		Conn:         link.NewConn(rw),
		Clock:        fx.SystemClock{},
		FrameTimeout: DefaultFrameTimeout,
	}
	d.Conn.Handler = d
	return d
}

// HandleFrame implements link.FrameHandler.
func (d *SerialBus) HandleFrame(ctx context.Context, f *link.Frame) {
	switch f.Code {
	case link.CodeChannels:
		cf, err := link.DecodeChannels(f)
		if err != nil {
			glog.Warningf("bad channel frame: %v", err)
			return
		}
		glog.V(4).Infof("channels flags=%02x %v", cf.Flags, cf.Pulses)
		d.lock.Lock()
		d.pending, d.lost = cf, cf.Failsafe()
		d.lock.Unlock()
	case link.CodeLinkLost:
		d.lock.Lock()
		d.pending, d.lost = nil, true
		d.lock.Unlock()
	default:
		glog.V(2).Infof("ignored frame code %02x", f.Code)
	}
}

// Update implements Device.
func (d *SerialBus) Update() Status {
	now := d.clock().Now()
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.lastFrame.IsZero() {
		d.lastFrame = now
	}
	if cf := d.pending; cf != nil {
		d.pending, d.lastFrame = nil, now
		// a failsafe frame keeps the link failed until a clean frame arrives
		if cf.Failsafe() {
			return StatusFailed
		}
		for n := range d.values {
			if n < len(cf.Pulses) {
				d.values[n] = int16(cf.Pulses[n])
			} else {
				d.values[n] = 0
			}
		}
		return StatusReceived
	}
	if d.lost || now.Sub(d.lastFrame) > d.frameTimeout() {
		return StatusFailed
	}
	return StatusIdle
}

// Get implements Device.
func (d *SerialBus) Get(index int) int16 {
	return d.values.get(index)
}

// Run implements Runnable by running the link.
func (d *SerialBus) Run(ctx context.Context) error {
	defer func() {
		if closer, ok := d.Conn.ReadWriter.(io.Closer); ok {
			closer.Close()
		}
	}()
	return d.Conn.Run(ctx)
}

// AddToLoop implements LoopAdder.
func (d *SerialBus) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("serial-bus", d))
}

func (d *SerialBus) clock() fx.Clock {
	if d.Clock == nil {
		return fx.SystemClock{}
	}
	return d.Clock
}

func (d *SerialBus) frameTimeout() time.Duration {
	if d.FrameTimeout <= 0 {
		return DefaultFrameTimeout
	}
	return d.FrameTimeout
}
