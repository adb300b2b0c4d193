package hiddecoder

import (
	"github.com/hidproxy/hidproxy/hidparser"
	"github.com/hidproxy/hidproxy/hostxfer"
	"github.com/hidproxy/hidproxy/pkg"
)

// NormalizedMouseReportLength is the fixed downstream mouse output
// size: buttons, X, Y, wheel.
const NormalizedMouseReportLength = 6

// MouseState decodes a mouse's raw interrupt reports against its located
// fields. Reports are double-buffered: each fetch lands in the idle half,
// which then becomes current. The accessors read and write only the
// current report; the previous report is not exposed.
type MouseState struct {
	Fields    hidparser.MouseFields
	ReportLen int

	buf [2][]byte
	cur int

	fetched          bool
	reportIDOffset   int
	reportIDResolved bool
}

// NewMouseState allocates a double report buffer of 2*reportLen.
func NewMouseState(fields hidparser.MouseFields, reportLen int) *MouseState {
	return &MouseState{
		Fields:    fields,
		ReportLen: reportLen,
		buf:       [2][]byte{make([]byte, reportLen), make([]byte, reportLen)},
	}
}

// FetchReport issues one interrupt IN on ep with retry disabled. A
// pid_status(NAK) result is normal for an idle device and is surfaced as
// pkg.ErrWouldBlock rather than a failure.
func (m *MouseState) FetchReport(xfer *hostxfer.Xfer, ep *hostxfer.Endpoint) error {
	target := m.buf[m.cur^1]
	_, err := xfer.InterruptTransfer(ep, target[:m.ReportLen], 0)
	if err != nil {
		if err == pkg.ErrTimeout {
			return pkg.ErrWouldBlock
		}
		return err
	}

	if !m.reportIDResolved {
		m.resolveReportIDDrift(target)
	}

	m.cur ^= 1
	m.fetched = true
	return nil
}

// resolveReportIDDrift implements the first-fetch drift detection: if
// the descriptor declares a Report-ID and byte 0 of the first
// report equals 1 with a plausible button byte following it, assume the
// link preserved the Report-ID prefix.
func (m *MouseState) resolveReportIDDrift(report []byte) {
	if !m.Fields.HasReportIDDeclared {
		m.reportIDOffset = 0
	} else if len(report) >= 2 && report[0] == 1 && report[1] <= 0x1F {
		m.reportIDOffset = 1
	} else {
		m.reportIDOffset = 0
	}
	m.reportIDResolved = true
}

func (m *MouseState) current() []byte { return m.buf[m.cur] }

func (m *MouseState) fieldOffset(f hidparser.Field) int {
	return f.ByteOffset + m.reportIDOffset
}

// GetButton reports whether button n is currently asserted.
func (m *MouseState) GetButton(n int) (bool, error) {
	if !m.Fields.HasButton {
		return false, pkg.ErrNotSupported
	}
	byteOff, bitOff := n/8, n%8
	idx := m.fieldOffset(m.Fields.Button) + byteOff
	if idx < 0 || idx >= len(m.current()) {
		return false, pkg.ErrInvalidParameter
	}
	return m.current()[idx]&(1<<uint(bitOff)) != 0, nil
}

// SetButton sets or clears button n without disturbing any other bit.
func (m *MouseState) SetButton(n int, v bool) error {
	if !m.Fields.HasButton {
		return pkg.ErrNotSupported
	}
	byteOff, bitOff := n/8, n%8
	idx := m.fieldOffset(m.Fields.Button) + byteOff
	if idx < 0 || idx >= len(m.current()) {
		return pkg.ErrInvalidParameter
	}
	mask := byte(1) << uint(bitOff)
	if v {
		m.current()[idx] |= mask
	} else {
		m.current()[idx] &^= mask
	}
	return nil
}

func saturateInt16(v int32) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	default:
		return int16(v)
	}
}

func saturateInt8(v int32) int8 {
	switch {
	case v > 127:
		return 127
	case v < -128:
		return -128
	default:
		return int8(v)
	}
}

func leSigned(data []byte, widthBytes int) int32 {
	var u uint32
	for i := 0; i < widthBytes; i++ {
		u |= uint32(data[i]) << (8 * i)
	}
	return signExtend32(u, widthBytes*8)
}

func signExtend32(v uint32, bits int) int32 {
	if bits >= 32 {
		return int32(v)
	}
	mask := uint32(1) << (bits - 1)
	return int32((v ^ mask) - mask)
}

func storeLESigned(data []byte, widthBytes int, v int32) {
	u := uint32(v)
	for i := 0; i < widthBytes; i++ {
		data[i] = byte(u >> (8 * i))
	}
}

// GetOrientation reads axis (0=X, 1=Y) as a little-endian signed value.
// Supported widths are 8, 16, and 32 bits.
func (m *MouseState) GetOrientation(axis int) (int32, error) {
	if !m.Fields.HasOrientation {
		return 0, pkg.ErrNotSupported
	}
	f := m.Fields.Orientation
	widthBytes := f.SizeBits / 8
	if widthBytes != 1 && widthBytes != 2 && widthBytes != 4 {
		return 0, pkg.ErrNotSupported
	}
	stride := widthBytes
	idx := m.fieldOffset(f) + axis*stride
	if idx < 0 || idx+widthBytes > len(m.current()) {
		return 0, pkg.ErrInvalidParameter
	}
	return leSigned(m.current()[idx:idx+widthBytes], widthBytes), nil
}

// SetOrientation stores v as a little-endian signed value at axis's
// location, truncating to the declared width.
func (m *MouseState) SetOrientation(axis int, v int32) error {
	if !m.Fields.HasOrientation {
		return pkg.ErrNotSupported
	}
	f := m.Fields.Orientation
	widthBytes := f.SizeBits / 8
	if widthBytes != 1 && widthBytes != 2 && widthBytes != 4 {
		return pkg.ErrNotSupported
	}
	idx := m.fieldOffset(f) + axis*widthBytes
	if idx < 0 || idx+widthBytes > len(m.current()) {
		return pkg.ErrInvalidParameter
	}
	storeLESigned(m.current()[idx:idx+widthBytes], widthBytes, v)
	return nil
}

// GetWheel reads the wheel field as a signed byte, or 0 if none was
// located.
func (m *MouseState) GetWheel() (int8, error) {
	if !m.Fields.HasWheel {
		return 0, nil
	}
	idx := m.fieldOffset(m.Fields.Wheel)
	if idx < 0 || idx >= len(m.current()) {
		return 0, pkg.ErrInvalidParameter
	}
	return int8(m.current()[idx]), nil
}

// Translate writes the fixed 6-byte normalized mouse report
// [buttons:u8 | x:i16_le | y:i16_le | wheel:i8] into out. Before the
// first report arrives there is nothing to translate and
// pkg.ErrBufferNotReady is returned.
func (m *MouseState) Translate(out []byte) error {
	if len(out) < NormalizedMouseReportLength {
		return pkg.ErrBufferTooSmall
	}
	if !m.fetched {
		return pkg.ErrBufferNotReady
	}
	var buttons byte
	if m.Fields.HasButton {
		idx := m.fieldOffset(m.Fields.Button)
		if idx >= 0 && idx < len(m.current()) {
			buttons = m.current()[idx]
		}
	}
	out[0] = buttons

	x, _ := m.GetOrientation(0)
	y, _ := m.GetOrientation(1)
	xs, ys := saturateInt16(x), saturateInt16(y)
	out[1] = byte(xs)
	out[2] = byte(uint16(xs) >> 8)
	out[3] = byte(ys)
	out[4] = byte(uint16(ys) >> 8)

	wheel, _ := m.GetWheel()
	out[5] = byte(wheel)
	return nil
}
