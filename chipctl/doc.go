// Package chipctl drives the host-controller chip's command set over a
// [link.Link]: existence check, mode/speed/address/retry configuration,
// status polling, token issue, and block I/O.
//
// A [ChipCtx] wraps one Link with a mutex so that only one
// command/response pair is ever in flight; callers serialize through it.
// The opcode table and status-byte semantics are bit-exact and must not
// be altered — a downstream chip decodes them literally.
package chipctl
