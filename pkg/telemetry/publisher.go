package telemetry

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/rcinput/pkg/framework"
	"github.com/robotalks/rcinput/pkg/rc/input"
	"github.com/robotalks/rcinput/pkg/rc/msgs"
)

// DefaultPublishInterval limits how often the state is published.
const DefaultPublishInterval = 20 * time.Millisecond

// Source provides the state to publish.
type Source interface {
	Output() input.ControlVector
	LinkValid() bool
	Stats() input.Stats
}

// AlertMsg is posted to the loop when an alert is raised.
type AlertMsg struct {
	Kind input.AlertKind
	Time time.Time
}

// NewMessage implements Message.
func (m *AlertMsg) NewMessage() fx.Message { return &AlertMsg{} }

// LoopAnnunciator is an input.Annunciator posting AlertMsg to a loop.
type LoopAnnunciator struct {
	Loop  fx.LoopControl
	Clock fx.Clock
}

// Alert implements input.Annunciator.
func (a *LoopAnnunciator) Alert(kind input.AlertKind) {
	msg := &AlertMsg{Kind: kind}
	if a.Clock != nil {
		msg.Time = a.Clock.Now()
	} else {
		msg.Time = time.Now()
	}
	a.Loop.PostMessage(msg)
}

// Publisher publishes the input state and alerts to a Sink.
type Publisher struct {
	Source   Source
	Sink     Sink
	Prefix   string
	Interval time.Duration

	last time.Time
}

// NewPublisher creates a Publisher.
func NewPublisher(src Source, sink Sink, prefix string) *Publisher {
	return &Publisher{Source: src, Sink: sink, Prefix: prefix, Interval: DefaultPublishInterval}
}

// NewStateMsg builds a state message from a source.
func NewStateMsg(t time.Time, src Source) *msgs.RCInputState {
	out, stats := src.Output(), src.Stats()
	msg := &msgs.RCInputState{
		Timestamp: t.UnixNano(),
		LinkValid: src.LinkValid(),
		Values:    make([]float64, len(out.Values)),
		Pulses:    make([]uint32, len(out.Pulses)),
		Stats: &msgs.RCInputStats{
			Ticks:      stats.Ticks,
			Received:   stats.Received,
			Idle:       stats.Idle,
			Failed:     stats.Failed,
			IntervalUs: uint32(stats.Interval / time.Microsecond),
		},
	}
	copy(msg.Values, out.Values[:])
	for n, p := range out.Pulses {
		msg.Pulses[n] = uint32(p)
	}
	return msg
}

// NewAlertMsg converts an AlertMsg.
func NewAlertMsg(m *AlertMsg) *msgs.RCAlert {
	return &msgs.RCAlert{
		Timestamp: m.Time.UnixNano(),
		Kind:      uint32(m.Kind),
		Name:      m.Kind.String(),
	}
}

// Control implements Controller.
func (p *Publisher) Control(cc fx.ControlContext) error {
	errs := &fx.AggregatedError{}
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		alert, ok := mc.CurrentMessage().(*AlertMsg)
		if !ok {
			return
		}
		mc.MessageTaken()
		glog.Warningf("alert: %s", alert.Kind)
		errs.Add(p.publish(TopicAlert, NewAlertMsg(alert)))
	}))

	now := cc.Time()
	if p.Source != nil && (p.last.IsZero() || now.Sub(p.last) >= p.Interval) {
		p.last = now
		errs.Add(p.publish(TopicInput, NewStateMsg(now, p.Source)))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (p *Publisher) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, p)
}

func (p *Publisher) publish(topic string, msg fx.Message) error {
	payload, err := msgs.Encode(msg)
	if err != nil {
		return err
	}
	return p.Sink.Publish(p.Prefix+topic, payload)
}
