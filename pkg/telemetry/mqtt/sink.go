package mqtt

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/rcinput/pkg/framework"
)

// DefaultRetryInterval is the wait between failed connection attempts.
const DefaultRetryInterval = time.Second

// Sink publishes telemetry through a Queue. Publish never waits for
// the broker.
type Sink struct {
	Queue         *Queue
	QoS           byte
	Retain        bool
	RetryInterval time.Duration
}

// NewSink creates a Sink from a broker URL.
func NewSink(brokerURL string) (*Sink, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Sink{Queue: q, RetryInterval: DefaultRetryInterval}, nil
}

// Publish implements telemetry.Sink.
func (s *Sink) Publish(topic string, payload []byte) error {
	if !s.Queue.Client.IsConnected() {
		return nil
	}
	token := s.Queue.PubWith(topic, payload, s.QoS, s.Retain)
	if token.WaitTimeout(0) {
		return errors.Wrapf(token.Error(), "publish %q", topic)
	}
	return nil
}

// Run implements Runnable. It connects, retrying until connected,
// and disconnects when ctx is done.
func (s *Sink) Run(ctx context.Context) error {
	retry := s.RetryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	for {
		token := s.Queue.Connect()
		token.Wait()
		err := token.Error()
		if err == nil {
			break
		}
		glog.Warningf("MQTT connect: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
	<-ctx.Done()
	s.Queue.Close()
	return ctx.Err()
}

// AddToLoop implements LoopAdder.
func (s *Sink) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("mqtt", s))
}
