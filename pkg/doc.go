// Package pkg provides shared utilities for the hidproxy host stack.
//
// This package contains common functionality used across the link, chip,
// transfer, and proxy layers, including:
//
//   - Structured logging via Go's standard [log/slog] package, with an
//     optional zerolog-backed handler for log aggregation pipelines
//   - Sentinel error values for USB protocol and link errors
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with per-subsystem context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentProxy, "mouse connected", "vid", vid)
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrStall) {
//	    // Handle endpoint stall
//	}
package pkg
