// Package link implements the byte-level framing between the host stack
// and a serial-attached USB host controller chip.
//
// Two wire dialects exist in the field and expose the same operation set:
//
//   - [DialectA] frames every word as 9 bits, where bit 8 marks the byte
//     as a command (1) or data (0).
//   - [DialectB] frames commands behind a two-byte sync preamble
//     (0x57 0xAB) and writes data as bare bytes.
//
// Both dialects implement [Link]; higher layers (chipctl, hostxfer, ...)
// are written against that interface and never branch on dialect. The
// physical transport — UART bit-shifting, PIO, clock/GPIO bring-up — is
// out of scope for this package and modeled as the [Transport] interface,
// which a platform vendor supplies a concrete implementation of. The
// [linktest] subpackage provides an in-memory Transport for unit tests.
package link
