//go:build !profile

package prof

// ErrActive is never returned by the stubs; declared for API
// compatibility with the "profile" build.
var ErrActive error

// StartCPU is a no-op when built without the "profile" tag.
func StartCPU(_ string) error { return nil }

// StopCPU is a no-op when built without the "profile" tag.
func StopCPU() {}

// Active always reports false when built without the "profile" tag.
func Active() bool { return false }

// WriteHeap is a no-op when built without the "profile" tag.
func WriteHeap(_ string) error { return nil }
