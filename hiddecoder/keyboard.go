package hiddecoder

import (
	"github.com/hidproxy/hidproxy/hidparser"
	"github.com/hidproxy/hidproxy/hostxfer"
	"github.com/hidproxy/hidproxy/pkg"
)

// KeyboardState decodes the fixed boot-protocol keyboard report: a
// modifier bitmask at byte 0 and a 6-key array at byte 2, double
// buffered like MouseState.
type KeyboardState struct {
	buf [2][hidparser.KeyboardReportLength]byte
	cur int
}

// NewKeyboardState returns a zeroed keyboard decoder.
func NewKeyboardState() *KeyboardState {
	return &KeyboardState{}
}

// FetchReport issues one interrupt IN on ep with retry disabled,
// surfacing an idle NAK as pkg.ErrWouldBlock.
func (k *KeyboardState) FetchReport(xfer *hostxfer.Xfer, ep *hostxfer.Endpoint) error {
	next := &k.buf[k.cur^1]
	_, err := xfer.InterruptTransfer(ep, next[:], 0)
	if err != nil {
		if err == pkg.ErrTimeout {
			return pkg.ErrWouldBlock
		}
		return err
	}
	k.cur ^= 1
	return nil
}

func (k *KeyboardState) current() *[hidparser.KeyboardReportLength]byte {
	return &k.buf[k.cur]
}

// GetModifier reports whether modifier bit is set. bit must be < 8.
func (k *KeyboardState) GetModifier(bit int) (bool, error) {
	if bit >= 8 || bit < 0 {
		return false, pkg.ErrInvalidParameter
	}
	return k.current()[hidparser.KeyboardModifierByte]&(1<<uint(bit)) != 0, nil
}

// SetModifier sets or clears modifier bit without disturbing any other
// bit of byte 0.
func (k *KeyboardState) SetModifier(bit int, v bool) error {
	if bit >= 8 || bit < 0 {
		return pkg.ErrInvalidParameter
	}
	mask := byte(1) << uint(bit)
	if v {
		k.current()[hidparser.KeyboardModifierByte] |= mask
	} else {
		k.current()[hidparser.KeyboardModifierByte] &^= mask
	}
	return nil
}

// GetKey reports whether code is present in the 6-key array.
func (k *KeyboardState) GetKey(code byte) bool {
	for i := 0; i < hidparser.KeyboardKeyArrayCount; i++ {
		if k.current()[hidparser.KeyboardKeyArrayByte+i] == code {
			return true
		}
	}
	return false
}

// SetKey inserts code into the first empty slot of the 6-key array.
// Duplicates are coalesced (a key already present is a no-op success).
// The 7th press on a full array is ignored and SetKey returns false.
func (k *KeyboardState) SetKey(code byte) bool {
	buf := k.current()
	for i := 0; i < hidparser.KeyboardKeyArrayCount; i++ {
		if buf[hidparser.KeyboardKeyArrayByte+i] == code {
			return true
		}
	}
	for i := 0; i < hidparser.KeyboardKeyArrayCount; i++ {
		if buf[hidparser.KeyboardKeyArrayByte+i] == 0 {
			buf[hidparser.KeyboardKeyArrayByte+i] = code
			return true
		}
	}
	return false
}

// ClearKey removes code from the array, compacting remaining entries
// left so no hole ever appears.
func (k *KeyboardState) ClearKey(code byte) {
	buf := k.current()
	base := hidparser.KeyboardKeyArrayByte
	n := hidparser.KeyboardKeyArrayCount

	idx := -1
	for i := 0; i < n; i++ {
		if buf[base+i] == code {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}
	for i := idx; i < n-1; i++ {
		buf[base+i] = buf[base+i+1]
	}
	buf[base+n-1] = 0
}

// Keys returns a snapshot of the current 6-key array.
func (k *KeyboardState) Keys() [hidparser.KeyboardKeyArrayCount]byte {
	var out [hidparser.KeyboardKeyArrayCount]byte
	copy(out[:], k.current()[hidparser.KeyboardKeyArrayByte:hidparser.KeyboardKeyArrayByte+hidparser.KeyboardKeyArrayCount])
	return out
}

// Raw returns the full current 8-byte report.
func (k *KeyboardState) Raw() [hidparser.KeyboardReportLength]byte {
	return *k.current()
}
