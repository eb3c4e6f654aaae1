// Package psi reassembles DVB SI sections from a stream of 188-byte MPEG-2
// TS packets, one state machine per PID.
package psi

import (
	"github.com/aclamk-go/dvbsi/internal/diag"
)

const tsPacketLen = 188

const maxSectionSizeCap = 1 << 12

type extractorState int

const (
	waitStart extractorState = iota
	waitMore
)

// Extractor reassembles sections for a single PID's packet stream.
type Extractor struct {
	maxSectionSize int
	debugLevel     int
	tracer         *diag.Tracer

	onSection func(data []byte)

	state  extractorState
	buf    []byte
	bufLen int
	cc     uint8
}

// NewExtractor creates an extractor bounded to maxSectionSize bytes per
// section (capped at 4096, matching the source's fixed internal limit) and
// tracing at the given debug level (0..5).
func NewExtractor(maxSectionSize int, debugLevel int) *Extractor {
	if maxSectionSize > maxSectionSizeCap {
		maxSectionSize = maxSectionSizeCap
	}
	if debugLevel < 0 {
		debugLevel = 0
	}
	return &Extractor{
		maxSectionSize: maxSectionSize,
		debugLevel:     debugLevel,
		tracer:         diag.NewTracer("psi: ", debugLevel, 50, 20),
		state:          waitStart,
		buf:            make([]byte, maxSectionSize+184),
	}
}

// OnSectionReady registers the callback invoked synchronously whenever a
// complete section has been assembled.
func (e *Extractor) OnSectionReady(callback func(data []byte)) {
	e.onSection = callback
}

// TSPacket feeds one 188-byte TS packet through the state machine.
func (e *Extractor) TSPacket(packet []byte) {
	if len(packet) != tsPacketLen {
		return
	}
	p := packet
	reminder := tsPacketLen

	pusi := int((p[1] >> 6) & 1)
	pid := (uint16(p[1])<<8 | uint16(p[2])) & ((1 << 13) - 1)
	afc := (p[3] >> 4) & 3
	cc := p[3] & 0xf
	e.tracer.Tracef(3, "pid=%d pusi=%d afc=%d cc=%d", pid, pusi, afc, cc)

	reminder -= 4
	p = p[4:]

	if e.state == waitStart {
		if pusi == 0 {
			e.tracer.Tracef(4, "skipping until pusi=1")
			return
		}
		e.bufLen = 0
		e.cc = cc
	} else {
		if (e.cc+1)&0xf != cc {
			e.tracer.Tracef(4, "cc %d read %d expected, resync", (e.cc+1)&0xf, cc)
			e.state = waitStart
			return
		}
		e.cc = (e.cc + 1) & 0xf
	}

	if afc == 2 || afc == 3 {
		adaptLen := 1 + int(p[0])
		if adaptLen > reminder {
			e.tracer.Tracef(2, "adaptation length %d exceeds packet, resync", adaptLen)
			e.state = waitStart
			return
		}
		p = p[adaptLen:]
		reminder -= adaptLen
	}

	if pusi == 1 {
		var ptr int
		if e.state == waitStart {
			ptr = 1 + int(p[0])
		} else {
			ptr = 1
		}
		if ptr > reminder {
			e.tracer.Tracef(2, "pointer field points outside packet, resync")
			e.state = waitStart
			return
		}
		p = p[ptr:]
		reminder -= ptr
	}

	copy(e.buf[e.bufLen:], p[:reminder])
	e.bufLen += reminder
	e.tracer.Tracef(5, "appended %d bytes, buffer=%d", reminder, e.bufLen)

	e.drain()
}

// drain emits every complete section currently sitting at the front of the
// buffer, then leaves whatever partial bytes remain for the next packet.
func (e *Extractor) drain() {
	off := 0
	for {
		remaining := e.bufLen - off
		if remaining >= 1 && e.buf[off] == 0xff {
			e.state = waitStart
			break
		}
		if remaining < 3 {
			e.state = waitMore
			break
		}
		declared := (uint32(e.buf[off+1])<<8 | uint32(e.buf[off+2])) & ((1 << 12) - 1)
		total := int(declared) + 3
		if total > e.maxSectionSize {
			e.tracer.Tracef(2, "section length %d exceeds limit %d, resync", total, e.maxSectionSize)
			e.state = waitStart
			break
		}
		if remaining < total {
			e.state = waitMore
			break
		}
		if e.onSection == nil {
			e.tracer.Tracef(1, "section ready but no callback registered")
			e.state = waitStart
			break
		}
		e.tracer.Tracef(3, "section complete, length=%d", total)
		e.onSection(e.buf[off : off+total])
		off += total
		if off >= e.bufLen {
			e.state = waitStart
			break
		}
	}
	if off > 0 {
		copy(e.buf, e.buf[off:e.bufLen])
		e.bufLen -= off
	}
}
