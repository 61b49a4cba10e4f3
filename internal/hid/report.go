package hid

import (
	"io"

	"github.com/dshills/keyweave/internal/keycode"
)

// ReportSize is the length of an encoded NKRO report.
const ReportSize = 34

// Report is an N-key rollover keyboard report: one modifier byte and a
// 256-bit usage bitmap.
type Report struct {
	Modifiers keycode.Mod
	KeyBitmap [32]uint8
}

// Apply updates the report with op.
func (r *Report) Apply(op Op) {
	switch op.Kind {
	case KeyDown:
		r.KeyBitmap[op.Usage/8] |= 1 << (op.Usage % 8)
	case KeyUp:
		r.KeyBitmap[op.Usage/8] &^= 1 << (op.Usage % 8)
	case ModDown:
		r.Modifiers |= op.Mods
	case ModUp:
		r.Modifiers &^= op.Mods
	}
}

// IsDown returns true if u is set in the bitmap.
func (r Report) IsDown(u keycode.Usage) bool {
	return r.KeyBitmap[u/8]&(1<<(u%8)) != 0
}

// Keys returns the usages set in the bitmap in ascending order.
func (r Report) Keys() []keycode.Usage {
	var keys []keycode.Usage
	for i := 0; i < 256; i++ {
		if r.KeyBitmap[i/8]&(1<<uint(i%8)) != 0 {
			keys = append(keys, keycode.Usage(i))
		}
	}
	return keys
}

// Bytes encodes the report.
//
// Layout:
//
//	Byte 0: Modifiers
//	Byte 1: Reserved (0x00)
//	Bytes 2-33: Key bitmap
func (r Report) Bytes() []byte {
	b := make([]byte, ReportSize)
	b[0] = uint8(r.Modifiers)
	copy(b[2:], r.KeyBitmap[:])
	return b
}

// MarshalBinary encodes the report in compact form: modifiers, key count,
// then the pressed usages.
func (r Report) MarshalBinary() ([]byte, error) {
	keys := r.Keys()
	b := make([]byte, 2+len(keys))
	b[0] = uint8(r.Modifiers)
	b[1] = uint8(len(keys))
	for i, k := range keys {
		b[2+i] = uint8(k)
	}
	return b, nil
}

// UnmarshalBinary decodes the compact form written by MarshalBinary.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}
	count := int(data[1])
	if len(data) < 2+count {
		return io.ErrUnexpectedEOF
	}

	*r = Report{Modifiers: keycode.Mod(data[0])}
	for _, k := range data[2 : 2+count] {
		r.KeyBitmap[k/8] |= 1 << (k % 8)
	}
	return nil
}

// ReportSink maintains a Report from the op stream and hands a copy to
// OnReport after every change.
type ReportSink struct {
	report   Report
	OnReport func(Report)
}

// NewReportSink creates a report sink.
func NewReportSink(onReport func(Report)) *ReportSink {
	return &ReportSink{OnReport: onReport}
}

// Send applies op to the report.
func (s *ReportSink) Send(op Op) {
	before := s.report
	s.report.Apply(op)
	if s.report != before && s.OnReport != nil {
		s.OnReport(s.report)
	}
}

// Report returns the current report.
func (s *ReportSink) Report() Report {
	return s.report
}
