package chipctl

import (
	"errors"
	"sync"
	"time"

	"github.com/hidproxy/hidproxy/link"
	"github.com/hidproxy/hidproxy/pkg"
)

// Dialect identifies which chip-link framing a ChipCtx is bound to. It
// only changes which opcode is used for block writes (WR_USB_DATA7 for A,
// WR_HOST_DATA for B) and which baud table is consulted; every other
// operation is dialect-agnostic.
type Dialect int

const (
	DialectKindA Dialect = iota
	DialectKindB
)

const statusRingDepth = 8

// ChipCtx wraps a link.Link with a mutex and per-call bookkeeping. Only
// one command/response pair is ever in flight per ChipCtx; all exported
// methods acquire the mutex for their full duration.
type ChipCtx struct {
	mu      sync.Mutex
	l       link.Link
	dialect Dialect
	lastCmd Opcode

	statusRing [statusRingDepth]StatusByte
	ringLen    int
	ringNext   int
}

// New creates a ChipCtx driving l under the given dialect.
func New(l link.Link, dialect Dialect) *ChipCtx {
	return &ChipCtx{l: l, dialect: dialect}
}

func (c *ChipCtx) writeCmd(op Opcode) error {
	c.lastCmd = op
	return c.l.WriteCmd(byte(op))
}

func (c *ChipCtx) writeData(b byte) error {
	return c.l.WriteData(b)
}

func (c *ChipCtx) readByte() (byte, error) {
	return c.l.ReadByte()
}

func (c *ChipCtx) blockWriteOpcode() Opcode {
	if c.dialect == DialectKindB {
		return OpWrHostData
	}
	return OpWrUsbData7
}

func (c *ChipCtx) baudTable() []baudEncoding {
	if c.dialect == DialectKindB {
		return BaudTableB
	}
	return BaudTableA
}

func (c *ChipCtx) recordStatus(s StatusByte) {
	c.statusRing[c.ringNext] = s
	c.ringNext = (c.ringNext + 1) % statusRingDepth
	if c.ringLen < statusRingDepth {
		c.ringLen++
	}
}

// RecentStatus returns the most recent status bytes observed, oldest
// first, for diagnostics only; never consulted by protocol logic.
func (c *ChipCtx) RecentStatus() []StatusByte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StatusByte, c.ringLen)
	start := (c.ringNext - c.ringLen + statusRingDepth) % statusRingDepth
	for i := 0; i < c.ringLen; i++ {
		out[i] = c.statusRing[(start+i)%statusRingDepth]
	}
	return out
}

// CheckExist sends {CHECK_EXIST, b} and requires the response ~b.
func (c *ChipCtx) CheckExist(b byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpCheckExist); err != nil {
		return err
	}
	if err := c.writeData(b); err != nil {
		return err
	}
	echo, err := c.readByte()
	if err != nil {
		return err
	}
	if echo != ^b {
		return pkg.ErrNotFound
	}
	return nil
}

// GetVersion returns the low 6 bits of the chip's version response.
func (c *ChipCtx) GetVersion() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpGetVersion); err != nil {
		return 0, err
	}
	v, err := c.readByte()
	if err != nil {
		return 0, pkg.ErrIO
	}
	return v & 0x3F, nil
}

// lookupBaud finds baud's real divisor byte pair in table.
func lookupBaud(table []baudEncoding, baud uint32) (baudEncoding, bool) {
	for _, e := range table {
		if e.baud == baud {
			return e, true
		}
	}
	return baudEncoding{}, false
}

// SetBaud reconfigures the chip's bit rate. baud must be one of the
// dialect's supported table entries; the two bytes written are the
// chip's real divisor code for that baud, not a synthetic index.
func (c *ChipCtx) SetBaud(baud uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	enc, ok := lookupBaud(c.baudTable(), baud)
	if !ok {
		return pkg.ErrInvalidParameter
	}
	if err := c.writeCmd(OpSetBaud); err != nil {
		return err
	}
	if err := c.writeData(enc.data1); err != nil {
		return err
	}
	if err := c.writeData(enc.data2); err != nil {
		return err
	}
	return c.l.SetBaud(baud)
}

// SetUsbMode commands a bus-drive mode change; ok iff the chip returns
// CMD_RET_OK.
func (c *ChipCtx) SetUsbMode(mode UsbMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpSetMode); err != nil {
		return err
	}
	if err := c.writeData(byte(mode)); err != nil {
		return err
	}
	resp, err := c.readByte()
	if err != nil {
		return err
	}
	if resp != byte(OpCmdRetOK) {
		return pkg.ErrIO
	}
	return nil
}

// SetUsbAddr sets the chip's current device address context.
func (c *ChipCtx) SetUsbAddr(addr byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpSetAddr); err != nil {
		return err
	}
	return c.writeData(addr)
}

// SetDevSpeed informs the chip of the downstream device's negotiated
// speed.
func (c *ChipCtx) SetDevSpeed(speed Speed) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpSetSpeed); err != nil {
		return err
	}
	return c.writeData(byte(speed))
}

// GetDevSpeed reads back the chip's negotiated speed.
func (c *ChipCtx) GetDevSpeed() (Speed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpGetDevRate); err != nil {
		return SpeedUnknown, err
	}
	b, err := c.readByte()
	if err != nil {
		return SpeedUnknown, err
	}
	return Speed(b), nil
}

// SetRetry configures the chip's own NAK-retry behavior. The mapping to
// wire bytes is exact: level is preceded by the sentinel 0x25.
func (c *ChipCtx) SetRetry(level RetryLevel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpSetRetry); err != nil {
		return err
	}
	if err := c.writeData(retrySentinel); err != nil {
		return err
	}
	return c.writeData(retryByte(level))
}

// TestConnect reports the chip's connect-state sense. The chip answers
// with its interrupt-status codes; raw values other than connect and
// usb-ready are canonicalized to Disconnected.
func (c *ChipCtx) TestConnect() (ConnectState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpTestConnect); err != nil {
		return StateDisconnected, err
	}
	b, err := c.readByte()
	if err != nil {
		return StateDisconnected, err
	}
	switch StatusByte(b) {
	case IntConnect:
		return StateConnected, nil
	case IntUsbReady:
		return StateUsbReady, nil
	default:
		return StateDisconnected, nil
	}
}

// GetStatus reads the chip's current status byte without waiting.
func (c *ChipCtx) GetStatus() (StatusByte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getStatusLocked()
}

func (c *ChipCtx) getStatusLocked() (StatusByte, error) {
	if err := c.writeCmd(OpGetStatus); err != nil {
		return 0, err
	}
	b, err := c.readByte()
	if err != nil {
		return 0, err
	}
	s := StatusByte(b)
	c.recordStatus(s)
	return s, nil
}

func isCompletionStatus(s StatusByte) bool {
	switch s {
	case IntSuccess, IntConnect, IntDisconnect, IntUsbReady:
		return true
	}
	return s.IsPIDStatus()
}

// WaitInt implements the adaptive back-off completion wait: first 100
// polls at 500µs, next 900 at 1ms, then 2ms steady state, bounded by
// budget. It is cancellation-safe: a Timeout leaves chip state untouched
// because the chip itself completes or abandons the transaction on its
// own clock, independent of how long the host polls.
func (c *ChipCtx) WaitInt(budget time.Duration) (StatusByte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waitIntLocked(budget)
}

func (c *ChipCtx) waitIntLocked(budget time.Duration) (StatusByte, error) {
	start := time.Now()

	s, err := c.getStatusLocked()
	if err == nil && isCompletionStatus(s) {
		return s, nil
	}

	polls := 0
	for {
		if time.Since(start) > budget {
			return 0, pkg.ErrTimeout
		}
		polls++
		var wait time.Duration
		switch {
		case polls <= 100:
			wait = 500 * time.Microsecond
		case polls <= 1000:
			wait = time.Millisecond
		default:
			wait = 2 * time.Millisecond
		}
		time.Sleep(wait)

		s, err := c.getStatusLocked()
		if err == nil && isCompletionStatus(s) {
			return s, nil
		}
	}
}

// tokenByte packs endpoint, toggle, and PID into the ISSUE_TKN_X payload.
func tokenByte(ep uint8, toggle bool, pid PID) byte {
	b := ep & 0x0F
	if toggle {
		b |= 0x10
	}
	b |= byte(pid) << 5
	return b
}

// SendToken issues a token for ep with the given data toggle and PID,
// then waits for completion. For non-IN PIDs a 500µs busy-wait is
// inserted before the first status read to absorb the chip's internal
// turnaround.
func (c *ChipCtx) SendToken(ep uint8, toggle bool, pid PID, budget time.Duration) (StatusByte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpIssueTknX); err != nil {
		return 0, err
	}
	if err := c.writeData(tokenByte(ep, toggle, pid)); err != nil {
		return 0, err
	}
	if pid != PIDIn {
		time.Sleep(500 * time.Microsecond)
	}
	return c.waitIntLocked(budget)
}

const maxBlockSize = 64

// WriteBlock writes up to 64 bytes as a single block.
func (c *ChipCtx) WriteBlock(data []byte) error {
	if len(data) > maxBlockSize {
		return pkg.ErrInvalidParameter
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(c.blockWriteOpcode()); err != nil {
		return err
	}
	if err := c.writeData(byte(len(data))); err != nil {
		return err
	}
	for _, b := range data {
		if err := c.writeData(b); err != nil {
			return errors.Join(pkg.ErrIO, err)
		}
	}
	return nil
}

// ReadBlock reads a chip-reported length followed by that many bytes,
// copying min(length, len(buf)) into buf. A short packet (length <
// len(buf)) is a normal termination, not an error.
func (c *ChipCtx) ReadBlock(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeCmd(OpRdData); err != nil {
		return 0, err
	}
	lenByte, err := c.readByte()
	if err != nil {
		return 0, err
	}
	n := int(lenByte)
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		b, err := c.readByte()
		if err != nil {
			return i, err
		}
		buf[i] = b
	}
	for i := n; i < int(lenByte); i++ {
		if _, err := c.readByte(); err != nil {
			break
		}
	}
	return n, nil
}
