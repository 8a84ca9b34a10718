package link

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type chanStream struct {
	readCh  chan byte
	writeCh chan byte
}

func newChanStream() *chanStream {
	return &chanStream{
		readCh:  make(chan byte, 64),
		writeCh: make(chan byte, 64),
	}
}

func (s *chanStream) Read(p []byte) (int, error) {
	b, ok := <-s.readCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (s *chanStream) Write(p []byte) (int, error) {
	for _, b := range p {
		s.writeCh <- b
	}
	return len(p), nil
}

func (s *chanStream) inject(bs ...byte) {
	for _, b := range bs {
		s.readCh <- b
	}
}

func (s *chanStream) expect(t *testing.T, bs ...byte) {
	for i, b := range bs {
		select {
		case actual := <-s.writeCh:
			require.Equalf(t, b, actual, "byte[%d] mismatch", i)
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("byte[%d] timeout", i)
		}
	}
}

type connTestEnv struct {
	stream  *chanStream
	conn    *Conn
	frameCh chan *Frame
	stateCh chan SyncState
	errCh   chan error
	cancel  func()
}

func newConnTestEnv() *connTestEnv {
	env := &connTestEnv{
		stream:  newChanStream(),
		frameCh: make(chan *Frame, 4),
		stateCh: make(chan SyncState, 8),
		errCh:   make(chan error, 1),
	}
	env.conn = NewConn(env.stream)
	env.conn.seq = Seq(1)
	env.conn.Handler = HandleFrameFunc(func(ctx context.Context, f *Frame) {
		env.frameCh <- f
	})
	env.conn.Notifier = StateChangedFunc(func(ctx context.Context, state SyncState) {
		env.stateCh <- state
	})
	return env
}

func (e *connTestEnv) run() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go func() { e.errCh <- e.conn.Run(ctx) }()
}

func (e *connTestEnv) waitState(t *testing.T, state SyncState) {
	for {
		select {
		case s := <-e.stateCh:
			if s == state {
				return
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("wait state %x timeout", state)
		}
	}
}

func TestConnSyncAndReceive(t *testing.T) {
	env := newConnTestEnv()
	env.run()
	defer env.cancel()

	env.stream.expect(t, syncREQ, 1)
	require.Equal(t, ErrNotReady, env.conn.Send(&Frame{Code: 1}))

	env.stream.inject(syncACK, 1)
	env.waitState(t, SyncStateReady)

	frame := NewChannelsFrame(0, 1500, 1000)
	frame.Seq = 1
	env.stream.inject(frame.Bytes()...)
	select {
	case f := <-env.frameCh:
		require.Equal(t, Seq(1), f.Seq)
		cf, err := DecodeChannels(f)
		require.NoError(t, err)
		require.Equal(t, []uint16{1500, 1000}, cf.Pulses)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("frame timeout")
	}
}

func TestConnSend(t *testing.T) {
	env := newConnTestEnv()
	env.run()
	defer env.cancel()

	env.stream.expect(t, syncREQ, 1)
	env.stream.inject(syncACK, 1)
	env.waitState(t, SyncStateReady)

	require.NoError(t, env.conn.Send(&Frame{Code: 2}))
	require.NoError(t, env.conn.Send(&Frame{Code: 0x82, Data: []byte{3}}))
	env.stream.expect(t, 1, 0x02, 2, 0x92, 3)
}

func TestConnStopsOnReadError(t *testing.T) {
	env := newConnTestEnv()
	env.run()
	defer env.cancel()

	env.stream.expect(t, syncREQ, 1)
	close(env.stream.readCh)
	select {
	case err := <-env.errCh:
		require.Equal(t, io.EOF, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("conn not stopped")
	}
}
