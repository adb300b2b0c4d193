//go:build profile

package prof

import (
	"errors"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// ErrActive is returned by StartCPU when a capture is already running.
var ErrActive = errors.New("cpu profile already active")

var (
	mu      sync.Mutex
	cpuOut  *os.File
	running bool
)

// StartCPU begins writing a CPU profile to path. The capture runs until
// StopCPU; the poll loop's sub-millisecond sleeps make anything shorter
// than a few seconds of capture statistically useless.
func StartCPU(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if running {
		return ErrActive
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}
	cpuOut = f
	running = true
	return nil
}

// StopCPU ends the capture started by StartCPU and closes its output
// file. Safe to call when no capture is running.
func StopCPU() {
	mu.Lock()
	defer mu.Unlock()

	if !running {
		return
	}
	pprof.StopCPUProfile()
	cpuOut.Close()
	cpuOut = nil
	running = false
}

// Active reports whether a CPU capture is currently running.
func Active() bool {
	mu.Lock()
	defer mu.Unlock()
	return running
}

// WriteHeap snapshots the heap profile to path after a GC pass, so the
// snapshot reflects live descriptor/report buffers rather than garbage.
func WriteHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	runtime.GC()
	return pprof.Lookup("heap").WriteTo(f, 0)
}
