// Package linktest provides an in-memory link.Transport for unit tests:
// a deterministic, queue-driven stand-in for the physical byte pipe.
package linktest

import (
	"sync"
	"time"

	"github.com/hidproxy/hidproxy/pkg"
)

// Transport is a scriptable link.Transport backed by in-memory queues. A
// test preloads the read queues with QueueByte/QueueBytes/QueueWord and
// then drives a Link against it,
// inspecting Written/WrittenWords afterward.
type Transport struct {
	mu sync.Mutex

	words []uint16
	bytes []byte

	Written      []byte
	WrittenWords []uint16

	intAsserted bool
	baud        uint32
}

// New returns an empty scriptable transport.
func New() *Transport {
	return &Transport{}
}

// QueueByte appends a byte to be returned by the next ReadByte call.
func (t *Transport) QueueByte(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bytes = append(t.bytes, b)
}

// QueueBytes appends multiple bytes in order.
func (t *Transport) QueueBytes(bs ...byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bytes = append(t.bytes, bs...)
}

// QueueWord appends a 9-bit word to be returned by the next ReadWord call.
func (t *Transport) QueueWord(w uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.words = append(t.words, w)
}

// SetInt sets the state QueryInt reports.
func (t *Transport) SetInt(asserted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.intAsserted = asserted
}

func (t *Transport) WriteWord(v uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.WrittenWords = append(t.WrittenWords, v)
	return nil
}

func (t *Transport) WriteByte(b byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Written = append(t.Written, b)
	return nil
}

func (t *Transport) ReadWord(_ time.Duration) (uint16, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.words) == 0 {
		return 0, pkg.ErrTimeout
	}
	w := t.words[0]
	t.words = t.words[1:]
	return w, nil
}

func (t *Transport) ReadByte(_ time.Duration) (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.bytes) == 0 {
		return 0, pkg.ErrTimeout
	}
	b := t.bytes[0]
	t.bytes = t.bytes[1:]
	return b, nil
}

func (t *Transport) QueryInt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.intAsserted
}

func (t *Transport) SetBaud(baud uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baud = baud
	return nil
}

// Baud returns the last baud rate configured via SetBaud.
func (t *Transport) Baud() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baud
}
