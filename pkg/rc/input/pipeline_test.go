package input

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestScale(t *testing.T) {
	testCases := []struct {
		raw    float64
		expect float64
	}{
		{1500, 0},
		{1000, -1},
		{900, -1},
		{2000, 1},
		{2100, 1},
		{1250, -0.5},
		{1750, 0.5},
	}
	for _, tc := range testCases {
		require.InDeltaf(t, tc.expect, Scale(tc.raw, 1000, 1500, 2000), epsilon, "raw %v", tc.raw)
	}
	// asymmetric calibration
	require.InDelta(t, -0.5, Scale(1200, 1000, 1400, 2000), epsilon)
	require.InDelta(t, 0.5, Scale(1700, 1000, 1400, 2000), epsilon)
}

func TestUnscaleRoundTrip(t *testing.T) {
	for raw := 1001; raw < 2000; raw += 7 {
		v := Scale(float64(raw), 1000, 1400, 2000)
		require.InDelta(t, float64(raw), Unscale(v, 1000, 1400, 2000), 1e-6)
		require.Equal(t, uint16(raw), Pulse(v, 1000, 1400, 2000))
	}
	require.Equal(t, 1000.0, Unscale(-2, 1000, 1500, 2000))
	require.Equal(t, 2000.0, Unscale(2, 1000, 1500, 2000))
	// ties go to even
	require.Equal(t, uint16(1812), Pulse(0.625, 1000, 1500, 2000))
}

func TestDeadband(t *testing.T) {
	const db = 10
	for v := -db; v <= db; v++ {
		require.Equal(t, 0, Deadband(v, db))
	}
	require.Equal(t, 1, Deadband(11, db))
	require.Equal(t, -1, Deadband(-11, db))
	require.Equal(t, 490, Deadband(500, db))
	require.Equal(t, -490, Deadband(-500, db))
	require.Equal(t, 7, Deadband(7, 0))
}

func TestBlend(t *testing.T) {
	require.Equal(t, 0.2, Blend(0.2, -0.6, 0))
	require.Equal(t, -0.6, Blend(0.2, -0.6, 1))
	last := Blend(-0.3, 0.9, 0)
	for phase := 0.05; phase <= 1; phase += 0.05 {
		v := Blend(-0.3, 0.9, phase)
		require.True(t, v >= last, "not monotonic at %v", phase)
		last = v
	}
}

func TestAutoInterval(t *testing.T) {
	require.Equal(t, 4*time.Millisecond, AutoInterval(time.Millisecond))
	require.Equal(t, 30*time.Millisecond, AutoInterval(50*time.Millisecond))
	require.Equal(t, 11*time.Millisecond, AutoInterval(11*time.Millisecond))
}

func TestSampleBuffer(t *testing.T) {
	var b SampleBuffer
	b.Fill(1, 1500)
	require.Equal(t, 1500.0, b.Average(1))

	b.Push(1, 1600)
	require.Equal(t, int16(1600), b.Read(1, 0))
	require.Equal(t, int16(1500), b.Read(1, 1))
	require.Equal(t, 1550.0, b.Average(1))

	b.Push(1, 1700)
	b.Push(1, 1801)
	require.Equal(t, int16(1801), b.Read(1, 0))
	require.Equal(t, int16(1700), b.Read(1, 1))
	require.Equal(t, int16(1600), b.Read(1, 2))
	require.Equal(t, 1750.5, b.Average(1))
	require.Equal(t, 1650.0, b.AverageAt(1, 1))

	// other channels are untouched
	require.Equal(t, int16(0), b.Read(0, 0))
	require.False(t, math.IsNaN(b.Average(0)))
}
