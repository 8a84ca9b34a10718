package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testMsg struct {
	val int
}

func (m *testMsg) NewMessage() Message { return &testMsg{} }

func TestLoopDelta(t *testing.T) {
	clock := NewManualClock(time.Unix(100, 0))
	loop := &Loop{Interval: 5 * time.Millisecond, Clock: clock}
	var deltas []time.Duration
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		deltas = append(deltas, cc.Delta())
		require.Equal(t, clock.Now(), cc.Time())
		return nil
	}))

	ctx := context.Background()
	loop.Step(ctx)
	clock.Advance(5 * time.Millisecond)
	loop.Step(ctx)
	clock.Advance(7 * time.Millisecond)
	loop.Step(ctx)
	require.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond, 7 * time.Millisecond}, deltas)
}

func TestLoopPriorityOrder(t *testing.T) {
	loop := &Loop{Clock: NewManualClock(time.Unix(0, 0))}
	var order []int
	for _, lv := range []int{PrLvPostProc, PrLvSense, PrLvControl} {
		lv := lv
		loop.AddController(lv, ControlFunc(func(cc ControlContext) error {
			order = append(order, lv)
			return nil
		}))
	}
	loop.Step(context.Background())
	require.Equal(t, []int{PrLvSense, PrLvControl, PrLvPostProc}, order)
}

func TestLoopMessages(t *testing.T) {
	loop := &Loop{Clock: NewManualClock(time.Unix(0, 0))}
	var seen []int
	var skipped []int
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			skipped = append(skipped, mctx.CurrentMessage().(*testMsg).val)
		}))
		cc.PostMessage(&testMsg{val: 2})
		return nil
	}))
	loop.AddController(PrLvPostProc, ControlFunc(func(cc ControlContext) error {
		cc.Messages().ProcessMessages(ProcessMessageFunc(func(mctx MessageProcessingContext) {
			if msg, ok := mctx.CurrentMessage().(*testMsg); ok {
				mctx.MessageTaken()
				seen = append(seen, msg.val)
			}
		}))
		return nil
	}))

	loop.PostMessage(&testMsg{val: 1})
	loop.Step(context.Background())
	// messages not taken stay visible to later controllers
	require.Equal(t, []int{1}, skipped)
	require.Equal(t, []int{1}, seen)

	// posted during an iteration, delivered in the next
	seen = nil
	loop.Step(context.Background())
	require.Equal(t, []int{2}, seen)
}

func TestLoopControllerErrorDoesNotStop(t *testing.T) {
	loop := &Loop{Clock: NewManualClock(time.Unix(0, 0))}
	var called bool
	loop.AddController(PrLvSense, ControlFunc(func(cc ControlContext) error {
		return errors.New("boom")
	}))
	loop.AddController(PrLvControl, ControlFunc(func(cc ControlContext) error {
		called = true
		return nil
	}))
	loop.Step(context.Background())
	require.True(t, called)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	errs.Add(errors.New("a"))
	require.EqualError(t, errs.Aggregate(), "a")
	errs.Add(errors.New("b"))
	require.EqualError(t, errs.Aggregate(), "multiple errors:\na\nb")
}

type stopRunnable struct {
	err error
}

func (r *stopRunnable) Run(ctx context.Context) error {
	<-ctx.Done()
	if r.err != nil {
		return r.err
	}
	return ctx.Err()
}

func TestRunnerWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunnerWith(ctx).Go(&stopRunnable{}, NamedRun("failing", &stopRunnable{err: errors.New("x")}))
	cancel()
	require.EqualError(t, runner.Wait(), "x")
}
