package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rcinput/pkg/rc/msgs"
)

func TestDeviceWatch(t *testing.T) {
	w := &DeviceWatch{ID: "dev1"}
	require.Nil(t, w.State())

	data, err := msgs.Encode(&msgs.RCInputState{LinkValid: true, Values: []float64{0.5}, Pulses: []uint32{1750}})
	require.NoError(t, err)
	w.handle("dev1/rc/input", data)
	require.True(t, w.State().LinkValid)

	for n := 0; n < MaxAlerts+3; n++ {
		data, err = msgs.Encode(&msgs.RCAlert{Timestamp: int64(n), Kind: 1, Name: "rx-lost"})
		require.NoError(t, err)
		w.handle("dev1/rc/alert", data)
	}
	alerts := w.Alerts()
	require.Len(t, alerts, MaxAlerts)
	require.Equal(t, int64(3), alerts[0].Timestamp)

	w.handle("dev1/rc/input", []byte{0xff})
	require.Equal(t, []float64{0.5}, w.State().Values)
}

func TestFormatState(t *testing.T) {
	text := FormatState(&msgs.RCInputState{
		Values: []float64{0.5, -1},
		Pulses: []uint32{1750, 1000},
		Stats:  &msgs.RCInputStats{Ticks: 3, Received: 1, Idle: 2, IntervalUs: 20000},
	})
	require.Contains(t, text, "link LOST")
	require.Contains(t, text, "ch0  +0.500 1750us")
	require.Contains(t, text, "ch1  -1.000 1000us")
	require.Contains(t, text, "interval 20000us")
}
