// Package websocket streams telemetry to websocket clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/rcinput/pkg/framework"
)

// DefaultQueueSize is the number of messages buffered per client.
const DefaultQueueSize = 16

// Sink broadcasts published payloads to all connected clients as
// binary frames holding a Frame message. Slow clients drop messages.
type Sink struct {
	Addr      string
	QueueSize int

	lock    sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	ch   chan []byte
}

// Frame is what a client receives for each published message.
type Frame struct {
	Topic   string `protobuf:"bytes,1,opt,name=topic,proto3" json:"topic,omitempty"`
	Payload []byte `protobuf:"bytes,2,opt,name=payload,proto3" json:"payload,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Frame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// NewSink creates a Sink listening on addr when run.
func NewSink(addr string) *Sink {
	return &Sink{Addr: addr, QueueSize: DefaultQueueSize}
}

// Publish implements telemetry.Sink.
func (s *Sink) Publish(topic string, payload []byte) error {
	data, err := proto.Marshal(&Frame{Topic: topic, Payload: payload})
	if err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	for c := range s.clients {
		select {
		case c.ch <- data:
		default:
			glog.V(2).Infof("websocket %s: message dropped", c.conn.Request().RemoteAddr)
		}
	}
	return nil
}

// Handler returns the websocket handler.
func (s *Sink) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// Clients returns the number of connected clients.
func (s *Sink) Clients() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

func (s *Sink) serve(conn *websocket.Conn) {
	size := s.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	c := &client{conn: conn, ch: make(chan []byte, size)}
	s.lock.Lock()
	if s.clients == nil {
		s.clients = make(map[*client]struct{})
	}
	s.clients[c] = struct{}{}
	s.lock.Unlock()
	glog.Infof("websocket %s connected", conn.Request().RemoteAddr)

	defer func() {
		s.lock.Lock()
		delete(s.clients, c)
		s.lock.Unlock()
		conn.Close()
		glog.Infof("websocket %s disconnected", conn.Request().RemoteAddr)
	}()

	closed := make(chan struct{})
	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		close(closed)
	}()
	for {
		select {
		case data := <-c.ch:
			if err := websocket.Message.Send(conn, data); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

// Run implements Runnable, serving on Addr until ctx is done.
func (s *Sink) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/rc", s.Handler())
	server := &http.Server{Addr: s.Addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	glog.Infof("websocket listening on %s", s.Addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

// AddToLoop implements LoopAdder.
func (s *Sink) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("websocket", s))
}
