// Package telemetry republishes the RC input state and alerts.
package telemetry

import (
	"sync"

	fx "github.com/robotalks/rcinput/pkg/framework"
)

// Topics relative to the device prefix.
const (
	TopicInput = "rc/input"
	TopicAlert = "rc/alert"
)

// Sink delivers an encoded message to a topic. Publish is called on
// the loop goroutine and must not block for long.
type Sink interface {
	Publish(topic string, payload []byte) error
}

// PublishFunc is the func form of Sink.
type PublishFunc func(topic string, payload []byte) error

// Publish implements Sink.
func (f PublishFunc) Publish(topic string, payload []byte) error {
	return f(topic, payload)
}

// SinkMux fans out to multiple sinks.
type SinkMux struct {
	Sinks []Sink

	lock sync.RWMutex
}

// Add adds sinks.
func (m *SinkMux) Add(sinks ...Sink) *SinkMux {
	m.lock.Lock()
	m.Sinks = append(m.Sinks, sinks...)
	m.lock.Unlock()
	return m
}

// Publish implements Sink. Every sink is tried and the errors are
// aggregated.
func (m *SinkMux) Publish(topic string, payload []byte) error {
	m.lock.RLock()
	defer m.lock.RUnlock()
	errs := &fx.AggregatedError{}
	for _, s := range m.Sinks {
		errs.Add(s.Publish(topic, payload))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder. Sinks with background work are added
// as runnables.
func (m *SinkMux) AddToLoop(l *fx.Loop) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	for _, s := range m.Sinks {
		if adder, ok := s.(fx.LoopAdder); ok {
			adder.AddToLoop(l)
		} else if r, ok := s.(fx.Runnable); ok {
			l.AddRunnable(r)
		}
	}
}
