package link

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
)

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// StateNotifier is called when the sync state changes.
type StateNotifier interface {
	StateChanged(context.Context, SyncState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state SyncState) {
	f(ctx, state)
}

// DefaultSyncTimeout is the default handshake/frame timeout.
const DefaultSyncTimeout = 100 * time.Millisecond

// Conn sends and receives frames over a byte stream.
type Conn struct {
	ReadWriter io.ReadWriter
	Handler    FrameHandler
	Notifier   StateNotifier
	Timeout    time.Duration
	// ReadTimeout is set when ReadWriter.Read already returns
	// periodically (e.g. a serial port with a read timeout), so no
	// reader goroutine is needed.
	ReadTimeout bool

	seq   Seq
	state SyncState
	lock  sync.RWMutex

	syncTimer <-chan time.Time
	parser    Parser
}

// NewConn creates a Conn.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		ReadWriter: rw,
		Timeout:    DefaultSyncTimeout,
		seq:        NewSeq(),
	}
}

// State gets the sync state.
func (c *Conn) State() SyncState {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state
}

// Send sends a frame, assigning its sequence number.
func (c *Conn) Send(f *Frame) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.state.IsReady() {
		return ErrNotReady
	}
	f.Seq = c.seq
	if _, err := f.WriteTo(c.ReadWriter); err != nil {
		return err
	}
	c.seq = c.seq.Next()
	return nil
}

// Run implements Runnable.
func (c *Conn) Run(ctx context.Context) error {
	if err := c.apply(ctx, c.parser.Reset()); err != nil {
		return err
	}
	if c.ReadTimeout {
		return c.runPolling(ctx)
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.readLoop(subCtx, byteCh, errCh)
	for {
		var err error
		select {
		case b := <-byteCh:
			err = c.apply(ctx, c.parser.Parse(b))
		case err = <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-c.syncTimer:
			err = c.apply(ctx, c.parser.Timeout())
		}
		if err != nil {
			return err
		}
	}
}

func (c *Conn) runPolling(ctx context.Context) error {
	buf := make([]byte, 1)
	for {
		var pr ParseResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.syncTimer:
			pr = c.parser.Timeout()
		default:
			n, err := c.ReadWriter.Read(buf)
			switch {
			case err != nil && !os.IsTimeout(err):
				return err
			case err != nil || n == 0:
				pr = c.parser.Timeout()
			default:
				pr = c.parser.Parse(buf[0])
			}
		}
		if err := c.apply(ctx, pr); err != nil {
			return err
		}
	}
}

func (c *Conn) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		if _, err := c.ReadWriter.Read(buf); err != nil {
			errCh <- err
			return
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) apply(ctx context.Context, pr ParseResult) (err error) {
	var notifier StateNotifier
	c.lock.Lock()
	if c.state != pr.State {
		glog.V(2).Infof("link state %x -> %x", c.state, pr.State)
		c.state = pr.State
		notifier = c.Notifier
	}
	if pr.Sync != 0 {
		_, err = c.ReadWriter.Write([]byte{pr.Sync, byte(c.seq)})
	}
	c.lock.Unlock()
	if err != nil {
		return
	}

	if c.ReadTimeout {
		// reads return periodically; only a pending REQ needs a timer.
		if pr.Sync == syncREQ {
			c.syncTimer = time.After(c.Timeout)
		} else {
			c.syncTimer = nil
		}
	} else {
		switch pr.WhatAboutTimer() {
		case TimerRestart:
			c.syncTimer = time.After(c.Timeout)
		case TimerStop:
			c.syncTimer = nil
		}
	}

	if notifier != nil {
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Frame != nil {
		if h := c.Handler; h != nil {
			h.HandleFrame(ctx, pr.Frame)
		}
	}
	return
}
