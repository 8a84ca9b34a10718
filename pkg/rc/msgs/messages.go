package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/rcinput/pkg/framework"
)

// RCInputState is an Event message carrying the control vector.
type RCInputState struct {
	// Timestamp is the tick time in unix nanoseconds.
	Timestamp int64         `protobuf:"varint,1,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	LinkValid bool          `protobuf:"varint,2,opt,name=link_valid,json=linkValid,proto3" json:"link_valid,omitempty"`
	Values    []float64     `protobuf:"fixed64,3,rep,packed,name=values,proto3" json:"values,omitempty"`
	Pulses    []uint32      `protobuf:"varint,4,rep,packed,name=pulses,proto3" json:"pulses,omitempty"`
	Stats     *RCInputStats `protobuf:"bytes,5,opt,name=stats,proto3" json:"stats,omitempty"`
}

// NewMessage implements Message.
func (m *RCInputState) NewMessage() fx.Message { return &RCInputState{} }

// TypeID implements SerializableMessage.
func (m *RCInputState) TypeID() uint32 { return RCInputStateTypeID }

// Serializable implements SerializableMessage.
func (m *RCInputState) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RCInputState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RCInputState) Reset() { *m = RCInputState{} }

// String implements proto.Message.
func (m *RCInputState) String() string { return proto.CompactTextString(m) }

// RCInputStats are the device poll counters.
type RCInputStats struct {
	Ticks    uint64 `protobuf:"varint,1,opt,name=ticks,proto3" json:"ticks,omitempty"`
	Received uint64 `protobuf:"varint,2,opt,name=received,proto3" json:"received,omitempty"`
	Idle     uint64 `protobuf:"varint,3,opt,name=idle,proto3" json:"idle,omitempty"`
	Failed   uint64 `protobuf:"varint,4,opt,name=failed,proto3" json:"failed,omitempty"`
	// IntervalUs is the interpolation interval in microseconds.
	IntervalUs uint32 `protobuf:"varint,5,opt,name=interval_us,json=intervalUs,proto3" json:"interval_us,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *RCInputStats) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RCInputStats) Reset() { *m = RCInputStats{} }

// String implements proto.Message.
func (m *RCInputStats) String() string { return proto.CompactTextString(m) }

// RCAlert is an Event message raised on alerts like receiver loss.
type RCAlert struct {
	Timestamp int64  `protobuf:"varint,1,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
	Kind      uint32 `protobuf:"varint,2,opt,name=kind,proto3" json:"kind,omitempty"`
	Name      string `protobuf:"bytes,3,opt,name=name,proto3" json:"name,omitempty"`
}

// NewMessage implements Message.
func (m *RCAlert) NewMessage() fx.Message { return &RCAlert{} }

// TypeID implements SerializableMessage.
func (m *RCAlert) TypeID() uint32 { return RCAlertTypeID }

// Serializable implements SerializableMessage.
func (m *RCAlert) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RCAlert) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RCAlert) Reset() { *m = RCAlert{} }

// String implements proto.Message.
func (m *RCAlert) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupRC uint32 = 0x00100000
)

// TypeIDs
const (
	RCInputStateTypeID uint32 = GroupRC | TypeIDKindEvent | 0x0000
	RCAlertTypeID      uint32 = GroupRC | TypeIDKindEvent | 0x0001
)
