package link

// SyncState indicates the state of the link.
type SyncState int

const (
	// SyncStateSyncing means the peers are not synchronized.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the link is synchronized and ready for frames.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a handshake or a frame is in progress.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the link is ready for frames.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of a handshake or a frame.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// TimerAction defines what to do with the sync timer.
type TimerAction int

const (
	// TimerNoChange keeps the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart restarts the timer.
	TimerRestart
	// TimerStop stops the timer.
	TimerStop
)

// ParseResult is the outcome of one parsing step.
type ParseResult struct {
	// Sync is the handshake byte to send back, 0 for none.
	Sync  byte
	State SyncState
	Frame *Frame
}

// WhatAboutTimer decides what to do with the sync timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.State.IsReceiving() || r.Sync == syncREQ {
		return TimerRestart
	}
	if r.State.IsReady() {
		return TimerStop
	}
	return TimerNoChange
}

type parseState int

const (
	stateSyncAck    parseState = iota // REQ sent, waiting for ACK
	stateSyncReqSeq                   // got REQ, waiting for seq
	stateSyncAckSeq                   // got ACK, waiting for seq
	stateFrameSeq                     // idle, waiting for frame seq
	stateFrameAck                     // got ACK while idle, validate seq
	stateFrameCode                    // waiting for code byte
	stateFrameLen                     // waiting for explicit length
	stateFrameData                    // waiting for data
)

const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe
)

// Parser is the byte-level state machine of the link.
type Parser struct {
	peerSeq Seq
	state   parseState
	frame   *Frame
	recvLen byte
}

// State gets the current sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.state == stateSyncAck:
		return SyncStateSyncing
	case p.state == stateFrameSeq:
		return SyncStateReady
	case p.state > stateFrameSeq:
		return SyncStateReady | SyncStateReceiving
	}
	return SyncStateSyncing | SyncStateReceiving
}

// Reset drops any partial frame and starts a new handshake.
func (p *Parser) Reset() (pr ParseResult) {
	p.frame = nil
	pr.Sync = p.resync()
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Sync, pr.Frame = p.parseByte(b)
	pr.State = p.State()
	return
}

// Timeout notifies the parser that the sync timer expired.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateFrameSeq {
		pr.Sync = p.resync()
	}
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (byte, *Frame) {
	switch p.state {
	case stateSyncAck:
		switch b {
		case syncREQ:
			p.state = stateSyncReqSeq
		case syncACK:
			p.state = stateSyncAckSeq
		}
	case stateSyncReqSeq:
		if !p.acceptPeerSeq(b) {
			return p.resync(), nil
		}
		return syncACK, nil
	case stateSyncAckSeq:
		if !p.acceptPeerSeq(b) {
			return p.resync(), nil
		}
	case stateFrameSeq:
		switch {
		case b == syncREQ:
			p.state = stateSyncReqSeq
		case b == syncACK:
			p.state = stateFrameAck
		case b != byte(p.peerSeq):
			return p.resync(), nil
		default:
			p.frame = &Frame{Seq: p.peerSeq}
			p.peerSeq = p.peerSeq.Next()
			p.state = stateFrameCode
		}
	case stateFrameAck:
		if b != byte(p.peerSeq) {
			return p.resync(), nil
		}
		p.state = stateFrameSeq
	case stateFrameCode:
		p.frame.Code = b & 0x8f
		switch dataLen := (b >> 4) & 7; dataLen {
		case 0:
			return 0, p.frameReady()
		case 7:
			p.state = stateFrameLen
		default:
			p.startData(dataLen)
		}
	case stateFrameLen:
		if b > MaxDataLen {
			return p.resync(), nil
		}
		if b == 0 {
			return 0, p.frameReady()
		}
		p.startData(b)
	case stateFrameData:
		p.frame.Data[p.recvLen] = b
		if p.recvLen++; p.recvLen >= byte(len(p.frame.Data)) {
			return 0, p.frameReady()
		}
	}
	return 0, nil
}

func (p *Parser) acceptPeerSeq(b byte) bool {
	seq := Seq(b)
	if !seq.IsValid() {
		return false
	}
	p.peerSeq, p.state = seq, stateFrameSeq
	return true
}

func (p *Parser) startData(l byte) {
	p.frame.Data, p.recvLen = make([]byte, l), 0
	p.state = stateFrameData
}

func (p *Parser) resync() byte {
	p.state = stateSyncAck
	return syncREQ
}

func (p *Parser) frameReady() (f *Frame) {
	p.state = stateFrameSeq
	f, p.frame = p.frame, nil
	return
}
