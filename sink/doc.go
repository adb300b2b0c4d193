// Package sink models the downstream composite HID device interface the
// core forwards normalized reports to. It is a singleton service with an
// explicit Init/Cleanup lifecycle; its two endpoints (mouse, keyboard)
// are each guarded by a binary semaphore that SendReport holds for one
// write and releases when the write returns. SetReady, which stands in
// for the endpoint-ready callback, only marks an endpoint ready or not
// ready; it does not release the semaphore.
package sink
