package link

import (
	"time"
)

// Link exposes the dialect-agnostic operation set that chipctl drives.
// Implementations take no lock: a multi-byte command write (Dialect B's
// sync preamble plus opcode) is kept from interleaving with another only
// by the caller serializing access, as chipctl.ChipCtx does with its
// mutex.
type Link interface {
	// WriteCmd sends one command byte.
	WriteCmd(b byte) error
	// WriteData sends one data byte.
	WriteData(b byte) error
	// ReadByte receives the next byte, blocking up to ReadTimeout, which
	// the dialect passes to the transport. Returns the transport's error
	// (pkg.ErrTimeout from linktest) on expiry.
	ReadByte() (byte, error)
	// QueryInt reports whether the chip's interrupt line is asserted.
	// Implementations that have no interrupt wiring always return false.
	QueryInt() bool
	// SetBaud reconfigures the underlying transport. Callers must ensure
	// no operation is in flight.
	SetBaud(baud uint32) error
}

// ReadTimeout is the per-byte read wait floor.
const ReadTimeout = 50 * time.Millisecond

// WriteTimeout is the FIFO-full write wait floor.
const WriteTimeout = 100 * time.Millisecond

// Transport is the physical byte pipe a platform vendor implements. It is
// intentionally narrower than [Link]: Link adds the dialect's framing on
// top of whichever of WriteWord/WriteByte and ReadWord/ReadByte its
// dialect uses.
type Transport interface {
	// WriteWord sends one 9-bit word (low 9 bits significant). Used by
	// Dialect A only.
	WriteWord(v uint16) error
	// WriteByte sends one byte. Used by Dialect B only.
	WriteByte(b byte) error
	// ReadWord receives one 9-bit word within timeout. Used by Dialect A
	// only.
	ReadWord(timeout time.Duration) (uint16, error)
	// ReadByte receives one byte within timeout. Used by Dialect B only.
	ReadByte(timeout time.Duration) (byte, error)
	// QueryInt reports the optional interrupt line state.
	QueryInt() bool
	// SetBaud reconfigures the transport's baud rate.
	SetBaud(baud uint32) error
}

// DialectA implements the 9-bit flagged framing: bit 8 of each word marks
// command (1) versus data (0).
type DialectA struct {
	t Transport
}

// NewDialectA wraps t in the 9-bit flagged command/data framing.
func NewDialectA(t Transport) *DialectA {
	return &DialectA{t: t}
}

const dialectACmdFlag = 1 << 8

func (d *DialectA) WriteCmd(b byte) error {
	return d.t.WriteWord(dialectACmdFlag | uint16(b))
}

func (d *DialectA) WriteData(b byte) error {
	return d.t.WriteWord(uint16(b))
}

func (d *DialectA) ReadByte() (byte, error) {
	w, err := d.t.ReadWord(ReadTimeout)
	if err != nil {
		return 0, err
	}
	return byte(w), nil
}

func (d *DialectA) QueryInt() bool { return d.t.QueryInt() }

func (d *DialectA) SetBaud(baud uint32) error { return d.t.SetBaud(baud) }

// DialectB implements the sync-prefixed framing: commands are written as
// the byte sequence 0x57 0xAB <cmd>; data is written as bare bytes.
type DialectB struct {
	t Transport
}

// Sync preamble bytes for Dialect B command writes.
const (
	dialectBSync0 = 0x57
	dialectBSync1 = 0xAB
)

// NewDialectB wraps t in the sync-prefixed command framing.
func NewDialectB(t Transport) *DialectB {
	return &DialectB{t: t}
}

func (d *DialectB) WriteCmd(b byte) error {
	if err := d.t.WriteByte(dialectBSync0); err != nil {
		return err
	}
	if err := d.t.WriteByte(dialectBSync1); err != nil {
		return err
	}
	return d.t.WriteByte(b)
}

func (d *DialectB) WriteData(b byte) error {
	return d.t.WriteByte(b)
}

func (d *DialectB) ReadByte() (byte, error) {
	return d.t.ReadByte(ReadTimeout)
}

func (d *DialectB) QueryInt() bool { return d.t.QueryInt() }

func (d *DialectB) SetBaud(baud uint32) error { return d.t.SetBaud(baud) }

var (
	_ Link = (*DialectA)(nil)
	_ Link = (*DialectB)(nil)
)
