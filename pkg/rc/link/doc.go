// Package link implements the frame link between receiver firmware
// and the host.
//
// Receiver firmware owns the radio protocol (pulse capture, SBUS/CRSF
// bit unpacking) and forwards already-decoded channel frames to the
// host over a peer-to-peer byte stream, usually a UART. The link only
// makes that stream recoverable: both peers agree on a frame sequence
// number with a REQ/ACK handshake and drop back to syncing whenever a
// sequence mismatch or a timeout is detected. There is no checksum;
// enable parity on the serial port if bit errors matter.
package link
