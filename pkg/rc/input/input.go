package input

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rcinput/pkg/framework"
	"github.com/robotalks/rcinput/pkg/rc/device"
)

// ControlVector is the published output of a tick.
type ControlVector struct {
	// Values are normalized to [-1, 1] with 0 at neutral.
	Values [ChannelCount]float64
	// Pulses re-expand Values to the channel calibration.
	Pulses [ChannelCount]uint16
}

// Stats counts device polls by outcome.
type Stats struct {
	Ticks    uint64
	Received uint64
	Idle     uint64
	Failed   uint64
	// Interval is the interpolation interval in use.
	Interval time.Duration
}

// Input turns receiver samples into a control vector once per tick.
// It is not safe for concurrent use; the loop calls it from a single
// goroutine.
type Input struct {
	Config      *Config
	Device      device.Device
	Annunciator Annunciator

	buffer       SampleBuffer
	failsafe     Failsafe
	out          ControlVector
	phase        float64
	interval     time.Duration
	lastReceived time.Time
	stats        Stats
	begun        bool
}

// New creates an Input. A nil device means no receiver is bound.
func New(conf *Config, dev device.Device) *Input {
	return &Input{Config: conf, Device: dev}
}

// Begin seeds the sample history with neutral values and applies the
// failsafe values. The link starts lost without raising an alert; the
// first failed tick raises it.
func (in *Input) Begin() {
	in.failsafe = Failsafe{Config: in.Config}
	for n := range in.Config.Channels {
		ch := &in.Config.Channels[n]
		in.buffer.Fill(n, ch.Neutral)
		in.out.Values[n] = 0
		in.out.Pulses[n] = uint16(ch.Neutral)
	}
	in.failsafe.Apply(&in.out)
	in.phase, in.interval = 0, DefaultInterval
	in.lastReceived = time.Time{}
	in.begun = true
}

// AutoInterval bounds a measured gap between received frames.
func AutoInterval(gap time.Duration) time.Duration {
	switch {
	case gap < MinAutoInterval:
		return MinAutoInterval
	case gap > MaxAutoInterval:
		return MaxAutoInterval
	}
	return gap
}

// Update polls the device and refreshes the control vector. now is
// the tick time and delta the time since the previous tick. It returns
// false when nothing was done: no device is bound, the link failed, or
// the link is still lost and no new sample arrived. Failsafe output is
// kept until a sample is received.
func (in *Input) Update(now time.Time, delta time.Duration) bool {
	if in.Device == nil {
		return false
	}
	if !in.begun {
		in.Begin()
	}
	status := in.Device.Update()
	if status == device.StatusNoDevice {
		return false
	}
	in.stats.Ticks++

	received := false
	switch status {
	case device.StatusFailed:
		in.stats.Failed++
		if in.failsafe.Fail(&in.out) {
			glog.Warning("rc link lost, failsafe engaged")
			if in.Annunciator != nil {
				in.Annunciator.Alert(AlertRxLost)
			}
		}
		return false
	case device.StatusReceived:
		in.stats.Received++
		in.interval = in.nextInterval(now)
		if in.failsafe.Recover() {
			glog.Info("rc link valid")
		}
		in.read()
		in.phase, received = 0, true
	default:
		in.stats.Idle++
		if in.failsafe.State() == LinkLost {
			return false
		}
	}

	conf := in.Config
	if conf.Interpolation != InterpolationOff {
		if in.phase < 1 {
			in.phase += float64(delta) / float64(in.interval)
		}
		for n := range conf.Channels {
			ch := &conf.Channels[n]
			val := ch.Scale(in.buffer.Average(n))
			if n < AxisCount {
				prev := ch.Scale(in.buffer.AverageAt(n, 1))
				val = Bound(Blend(prev, val, in.phase), -1, 1)
			}
			in.out.Values[n] = val
			in.out.Pulses[n] = ch.Pulse(val)
		}
	} else if received {
		for n := range conf.Channels {
			ch := &conf.Channels[n]
			in.out.Values[n] = ch.Scale(in.buffer.Average(n))
			in.out.Pulses[n] = ch.Pulse(in.out.Values[n])
		}
	}
	return true
}

func (in *Input) nextInterval(now time.Time) time.Duration {
	last := in.lastReceived
	in.lastReceived = now
	switch in.Config.Interpolation {
	case InterpolationAuto:
		if last.IsZero() {
			return in.interval
		}
		return AutoInterval(now.Sub(last))
	case InterpolationManual:
		return in.Config.InterpolationInterval
	}
	return DefaultInterval
}

func (in *Input) read() {
	mid := int(in.Config.MidRC)
	for n := range in.Config.Channels {
		v := int(in.Device.Get(in.Config.Map[n]))
		if n < AxisCount {
			v = Deadband(v-mid, int(in.Config.Channels[n].Deadband)) + mid
		}
		in.buffer.Push(n, int16(v))
	}
}

// Output returns a copy of the control vector.
func (in *Input) Output() ControlVector {
	return in.out
}

// LinkValid tells whether the receiver delivers trustworthy data.
func (in *Input) LinkValid() bool {
	return in.failsafe.State() == LinkValid
}

// Stats returns the poll counters.
func (in *Input) Stats() Stats {
	s := in.stats
	s.Interval = in.interval
	return s
}

// Control implements fx.Controller.
func (in *Input) Control(cc fx.ControlContext) error {
	in.Update(cc.Time(), cc.Delta())
	return nil
}

// AddToLoop implements fx.LoopAdder. A device with its own background
// work is added as a runnable.
func (in *Input) AddToLoop(l *fx.Loop) {
	if !in.begun {
		in.Begin()
	}
	l.AddController(fx.PrLvSense, in)
	if adder, ok := in.Device.(fx.LoopAdder); ok {
		adder.AddToLoop(l)
	}
}
