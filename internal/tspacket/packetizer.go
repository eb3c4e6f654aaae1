// Package tspacket fragments DVB SI sections into 188-byte MPEG-2 TS
// packets, the inverse of internal/psi.
package tspacket

import (
	"github.com/aclamk-go/dvbsi/internal/diag"
)

const tsPacketLen = 188

const (
	afcReserved             = 0
	afcPayload              = 1
	afcAdaptation           = 2
	afcAdaptationAndPayload = 3
)

// AdaptationFieldFunc fills adaptation-field bytes into packet[4:4+N] and
// returns N, the number of bytes it used.
type AdaptationFieldFunc func(packet []byte) int

// Packetizer fragments a stream of sections addressed to a single PID into
// 188-byte TS packets.
type Packetizer struct {
	pid uint16

	onAdaptationField AdaptationFieldFunc
	onPacketProduced  func(packet []byte)

	tracer *diag.Tracer

	cc           uint8
	pusi         bool
	payloadStart int
	payloadEnd   int
	packet       [tsPacketLen]byte
}

// NewPacketizer creates a packetizer for pid (masked to 13 bits) tracing at
// the given debug level (0..5).
func NewPacketizer(pid uint16, debugLevel int) *Packetizer {
	return &Packetizer{
		pid:    pid & ((1 << 13) - 1),
		tracer: diag.NewTracer("tspacket: ", debugLevel, 50, 20),
	}
}

// OnAdaptationField registers the hook consulted whenever a fresh packet is
// started; its return value is the number of adaptation bytes it filled.
func (p *Packetizer) OnAdaptationField(callback AdaptationFieldFunc) {
	p.onAdaptationField = callback
}

// OnTSPacketProduced registers the callback invoked synchronously for every
// completed 188-byte packet.
func (p *Packetizer) OnTSPacketProduced(callback func(packet []byte)) {
	p.onPacketProduced = callback
}

func (p *Packetizer) fixHeader(pusi bool, afc int) {
	p.packet[0] = 0x47
	b1 := byte(p.pid >> 8)
	if pusi {
		b1 |= 0x40
	}
	p.packet[1] = b1
	p.packet[2] = byte(p.pid)
	p.packet[3] = byte(afc<<4) | (p.cc & 0x0f)
}

func (p *Packetizer) emit(pusi bool, afc int) {
	p.fixHeader(pusi, afc)
	p.tracer.Tracef(3, "pid=%d pusi=%v afc=%d cc=%d", p.pid, pusi, afc, p.cc)
	if p.onPacketProduced != nil {
		p.onPacketProduced(p.packet[:])
	}
}

func (p *Packetizer) afcForPayload() int {
	if p.payloadStart > 4 {
		return afcAdaptationAndPayload
	}
	return afcPayload
}

// Section fragments one section's bytes into as many packets as needed,
// continuing any packet left in-flight from a previous call.
func (p *Packetizer) Section(section []byte) {
	wroteSectionStart := false

	if p.payloadStart != 0 {
		if !p.pusi {
			if p.payloadEnd >= tsPacketLen-1 {
				p.packet[tsPacketLen-1] = 0xff
				p.emit(false, p.afcForPayload())
				p.payloadStart = 0
				p.pusi = false
				p.cc = (p.cc + 1) & 0xf
				p.startFresh(section)
				return
			}
			copy(p.packet[p.payloadStart+1:p.payloadEnd+1], p.packet[p.payloadStart:p.payloadEnd])
			p.packet[p.payloadStart] = byte(p.payloadEnd - p.payloadStart)
			p.payloadEnd++
			wroteSectionStart = true
			p.pusi = true
		}
		rem := tsPacketLen - p.payloadEnd
		if rem > len(section) {
			copy(p.packet[p.payloadEnd:], section)
			p.payloadEnd += len(section)
			return
		}
		copy(p.packet[p.payloadEnd:], section[:rem])
		p.payloadEnd += rem
		section = section[rem:]
		p.emit(true, p.afcForPayload())
		p.payloadStart = 0
		p.pusi = false
		p.cc = (p.cc + 1) & 0xf
		if len(section) == 0 {
			return
		}
		wroteSectionStart = true
	}

	p.continueFrom(section, wroteSectionStart)
}

// startFresh re-enters the "start a fresh packet" step after an in-flight
// packet with at most one byte of room left has been padded and emitted,
// carrying wrote_section_start=false forward as the source does via its
// goto more.
func (p *Packetizer) startFresh(section []byte) {
	p.continueFrom(section, false)
}

// continueFrom implements the source's "more:" label: start a new packet,
// write the pointer field if one hasn't been written yet for this section,
// then fill the packet with as much of section as fits, looping for
// further packets if the section doesn't fit in one.
func (p *Packetizer) continueFrom(section []byte, wroteSectionStart bool) {
	for {
		adalen := 0
		if p.onAdaptationField != nil {
			adalen = p.onAdaptationField(p.packet[4:])
		}
		p.payloadStart = 4 + adalen
		p.payloadEnd = p.payloadStart
		rem := tsPacketLen - p.payloadEnd
		if rem <= 1 {
			p.emit(true, afcAdaptation)
			p.payloadStart = 0
			p.pusi = false
			continue
		}

		if !wroteSectionStart {
			p.packet[p.payloadEnd] = 0
			p.payloadEnd++
			rem = tsPacketLen - p.payloadEnd
			p.pusi = true
			wroteSectionStart = true
		}

		if rem > len(section) {
			copy(p.packet[p.payloadEnd:], section)
			p.payloadEnd += len(section)
			return
		}
		copy(p.packet[p.payloadEnd:], section[:rem])
		section = section[rem:]
		p.emit(p.pusi, p.afcForPayload())
		p.payloadStart = 0
		p.pusi = false
		p.cc = (p.cc + 1) & 0xf
		if len(section) == 0 {
			return
		}
		// wroteSectionStart stays true: further packets in this loop are
		// pure continuation of the same section, so none of them gets a
		// pointer field or pusi.
	}
}

// Flush pads and emits any packet left in-flight.
func (p *Packetizer) Flush() {
	if p.payloadStart == 0 {
		return
	}
	for i := p.payloadEnd; i < tsPacketLen; i++ {
		p.packet[i] = 0xff
	}
	p.emit(p.pusi, p.afcForPayload())
	p.payloadStart = 0
	p.pusi = false
	p.cc = (p.cc + 1) & 0xf
}
