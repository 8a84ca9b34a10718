package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/rcinput/pkg/framework"
)

type plainMsg struct{}

func (m *plainMsg) NewMessage() fx.Message { return &plainMsg{} }

func TestTypedRoundTrip(t *testing.T) {
	state := &RCInputState{
		Timestamp: 1577836800000000000,
		LinkValid: true,
		Values:    []float64{0.625, -1, 0, 0.5},
		Pulses:    []uint32{1812, 1000, 1500, 1750},
		Stats:     &RCInputStats{Ticks: 10, Received: 3, Idle: 6, Failed: 1, IntervalUs: 20000},
	}
	data, err := Encode(state)
	require.NoError(t, err)

	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	require.Equal(t, RCInputStateTypeID, typed.TypeId)
	require.True(t, typed.IsEvent())

	msg, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, state, msg)

	data, err = Encode(&RCAlert{Timestamp: 1, Kind: 1, Name: "rx-lost"})
	require.NoError(t, err)
	msg, err = Decode(data)
	require.NoError(t, err)
	require.Equal(t, &RCAlert{Timestamp: 1, Kind: 1, Name: "rx-lost"}, msg)
}

func TestTypedErrors(t *testing.T) {
	_, err := TypedFrom(&plainMsg{})
	require.Equal(t, ErrNotSerializable, err)

	_, err = (&Typed{TypeId: 0x1234}).Decode()
	require.EqualError(t, err, "unknown type: 1234")
}
