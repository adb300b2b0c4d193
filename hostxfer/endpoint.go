package hostxfer

import "github.com/hidproxy/hidproxy/pkg"

// TransferType classifies an endpoint's transfer semantics.
type TransferType int

const (
	TransferControl TransferType = iota
	TransferIsochronous
	TransferBulk
	TransferInterrupt
)

// Endpoint is one entry in a device's endpoint table. MaxPacket is
// guaranteed > 0 once built by enum. Toggle is mutable: it flips on
// every accepted data packet and resets to DATA0 on ClearStall.
type Endpoint struct {
	Address    byte
	Attributes byte
	MaxPacket  uint16
	Interval   byte
	Toggle     bool // false == DATA0, true == DATA1
}

// Number returns the endpoint number without the direction bit.
func (e *Endpoint) Number() byte { return e.Address & 0x0F }

// IsIn reports whether the endpoint is an IN (device-to-host) endpoint.
func (e *Endpoint) IsIn() bool { return e.Address&0x80 != 0 }

// TransferType reports the endpoint's transfer type from its attributes
// byte (bits 0-1 of bmAttributes).
func (e *Endpoint) TransferType() TransferType {
	return TransferType(e.Attributes & 0x03)
}

// Interface groups endpoints under one USB interface.
type Interface struct {
	Number    byte
	Class     byte
	SubClass  byte
	Protocol  byte
	Endpoints []*Endpoint
}

// GetEndpoint performs a linear search for ep_addr across ifaces. The
// direction bit is part of the address, so two endpoints sharing a
// number but differing in direction are distinct entries. ep_addr == 0
// is always rejected: the control endpoint is implicit and not part of
// any interface's table.
func GetEndpoint(ifaces []*Interface, epAddr byte) (*Endpoint, error) {
	if epAddr == 0 {
		return nil, pkg.ErrInvalidParameter
	}
	for _, iface := range ifaces {
		for _, ep := range iface.Endpoints {
			if ep.Address == epAddr {
				return ep, nil
			}
		}
	}
	return nil, pkg.ErrNotFound
}
