// Package enum performs USB device enumeration: reset sequencing, the
// two-pass device-descriptor fetch, fixed address assignment,
// configuration-descriptor walk, and interface/endpoint table
// construction.
//
// Enumeration is atomic: on any failure after the configuration buffer
// is allocated, Open releases its reference to it and returns a nil
// Device so the caller starts clean on the next connect.
package enum
