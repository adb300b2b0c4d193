// Package transport provides the external, platform-facing byte pipe
// that backs link.Transport. Physical UART bit-shifting and per-SoC
// clock/GPIO setup stay outside the protocol core; this package is the
// one concrete binding the reference command uses to talk to a host
// chip over a real serial port.
package transport

import (
	"time"

	"github.com/tarm/serial"

	"github.com/hidproxy/hidproxy/pkg"
)

// Serial adapts a github.com/tarm/serial port to link.Transport. Dialect
// A's 9-bit words have no native representation on a standard 8-N-1 UART;
// this binding encodes each word as two bytes (flag byte, then payload
// byte) rather than relying on hardware 9-bit/parity framing, which is a
// per-SoC concern explicitly out of scope for the protocol core.
type Serial struct {
	port *serial.Port
	name string
	baud int
}

// OpenSerial opens device at baud and wraps it as a link.Transport.
func OpenSerial(device string, baud int) (*Serial, error) {
	cfg := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 0, // per-call timeouts are enforced by the dialect layer via deadlines below
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, pkg.ErrIO
	}
	return &Serial{port: port, name: device, baud: baud}, nil
}

func (s *Serial) WriteWord(v uint16) error {
	if _, err := s.port.Write([]byte{byte(v >> 8), byte(v)}); err != nil {
		return pkg.ErrIO
	}
	return nil
}

func (s *Serial) WriteByte(b byte) error {
	if _, err := s.port.Write([]byte{b}); err != nil {
		return pkg.ErrIO
	}
	return nil
}

// readN blocks (up to timeout, best-effort — the underlying library has
// no per-read deadline API) until n bytes arrive.
func (s *Serial) readN(n int, timeout time.Duration) ([]byte, error) {
	buf := make([]byte, n)
	deadline := time.Now().Add(timeout)
	got := 0
	for got < n {
		m, err := s.port.Read(buf[got:])
		if err != nil {
			return nil, pkg.ErrIO
		}
		got += m
		if got < n && time.Now().After(deadline) {
			return nil, pkg.ErrTimeout
		}
	}
	return buf, nil
}

func (s *Serial) ReadWord(timeout time.Duration) (uint16, error) {
	b, err := s.readN(2, timeout)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (s *Serial) ReadByte(timeout time.Duration) (byte, error) {
	b, err := s.readN(1, timeout)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// QueryInt always reports false: this reference binding has no GPIO
// wired to the chip's optional interrupt pin, so the core always falls
// back to status polling.
func (s *Serial) QueryInt() bool { return false }

func (s *Serial) SetBaud(baud uint32) error {
	if err := s.port.Close(); err != nil {
		return pkg.ErrIO
	}
	port, err := serial.OpenPort(&serial.Config{Name: s.name, Baud: int(baud)})
	if err != nil {
		return pkg.ErrIO
	}
	s.port = port
	s.baud = int(baud)
	return nil
}

// Close releases the underlying port.
func (s *Serial) Close() error {
	return s.port.Close()
}
