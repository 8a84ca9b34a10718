package link

import (
	"encoding/binary"
	"io"
	"time"
)

// Seq is the frame sequence number, valid in [1, 0xf0).
type Seq byte

// NewSeq creates a random starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Frame codes sent by receiver firmware. Bit 7 marks events.
const (
	CodeChannels byte = 0x81
	CodeLinkLost byte = 0x82
)

// Channel frame flags.
const (
	// FlagFailsafe is set by the receiver when it is already
	// outputting its own failsafe values.
	FlagFailsafe byte = 0x01
	// FlagFrameLost is set when the receiver missed radio frames
	// since the last channel frame.
	FlagFrameLost byte = 0x02
)

// MaxDataLen is the largest payload a frame can carry.
const MaxDataLen = 0x7f

// Frame is one unit on the link.
//
// Encoding: seq, code|len<<4, [len], data. Lengths below 7 are packed
// into bits 4-6 of the code byte; 7 in those bits means an explicit
// length byte follows.
type Frame struct {
	Seq  Seq
	Code byte
	Data []byte
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() []byte {
	b := make([]byte, 0, len(f.Data)+3)
	b = append(b, byte(f.Seq))
	if l := byte(len(f.Data)); l >= 7 {
		b = append(b, (f.Code&0x8f)|0x70, l)
	} else {
		b = append(b, (f.Code&0x8f)|(l<<4)&0x70)
	}
	return append(b, f.Data...)
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Bytes())
	return int64(n), err
}

// ChannelFrame is the decoded payload of a CodeChannels frame.
type ChannelFrame struct {
	Flags  byte
	Pulses []uint16
}

// Failsafe indicates the receiver reported its own failsafe.
func (c *ChannelFrame) Failsafe() bool {
	return c.Flags&FlagFailsafe != 0
}

// NewChannelsFrame encodes pulses as a CodeChannels frame: a flags
// byte followed by little-endian uint16 pulses.
func NewChannelsFrame(flags byte, pulses ...uint16) *Frame {
	data := make([]byte, 1+len(pulses)*2)
	data[0] = flags
	for n, p := range pulses {
		binary.LittleEndian.PutUint16(data[1+n*2:], p)
	}
	return &Frame{Code: CodeChannels, Data: data}
}

// DecodeChannels decodes a CodeChannels frame.
func DecodeChannels(f *Frame) (*ChannelFrame, error) {
	if f.Code != CodeChannels {
		return nil, &UnexpectedCodeError{Code: f.Code}
	}
	if len(f.Data) < 1 || (len(f.Data)-1)%2 != 0 {
		return nil, ErrShortFrame
	}
	cf := &ChannelFrame{Flags: f.Data[0], Pulses: make([]uint16, (len(f.Data)-1)/2)}
	for n := range cf.Pulses {
		cf.Pulses[n] = binary.LittleEndian.Uint16(f.Data[1+n*2:])
	}
	return cf, nil
}
