// Package prof captures CPU and heap profiles of the running proxy,
// gated behind the "profile" build tag:
//
//	go build -tags profile ./cmd/hidproxy
//
// The hidproxy binary exposes the hooks as -profile-cpu and
// -profile-heap flags; without the tag those flags parse but the
// exported functions here are no-ops, so the default build carries no
// profiling overhead.
//
// CPU capture runs for the life of the process (StartCPU at startup,
// StopCPU on shutdown); the heap snapshot is taken once on shutdown,
// after the poll loop exits.
package prof
