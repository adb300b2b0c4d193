// Command hidproxy drives the two-channel HID proxy described by the
// protocol core: it opens a serial link to each of two host-chip-backed
// channels (mouse, keyboard), enumerates whatever HID device is attached,
// and forwards normalized reports to a composite HID gadget exposed as
// two character-device files.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hidproxy/hidproxy/chipctl"
	"github.com/hidproxy/hidproxy/link"
	"github.com/hidproxy/hidproxy/pkg"
	"github.com/hidproxy/hidproxy/pkg/prof"
	"github.com/hidproxy/hidproxy/proxy"
	"github.com/hidproxy/hidproxy/sink"
	"github.com/hidproxy/hidproxy/transport"
)

func main() {
	var (
		mouseDev     = flag.String("mouse-serial", "/dev/ttyUSB0", "serial device for the mouse channel's host chip")
		mouseBaud    = flag.Int("mouse-baud", 115200, "baud rate for the mouse channel")
		mouseDialect = flag.String("mouse-dialect", "a", "chip dialect for the mouse channel: a or b")

		kbdDev     = flag.String("keyboard-serial", "/dev/ttyUSB1", "serial device for the keyboard channel's host chip")
		kbdBaud    = flag.Int("keyboard-baud", 115200, "baud rate for the keyboard channel")
		kbdDialect = flag.String("keyboard-dialect", "b", "chip dialect for the keyboard channel: a or b")

		sinkMouseDev = flag.String("sink-mouse", "/dev/hidg0", "composite HID gadget character device for mouse reports")
		sinkKbdDev   = flag.String("sink-keyboard", "/dev/hidg1", "composite HID gadget character device for keyboard reports")

		logFormat = flag.String("log-format", "text", "log output format: text, json, or zerolog")
		logLevel  = flag.String("log-level", "info", "log level: debug, info, warn, or error")

		profileCPU  = flag.String("profile-cpu", "", "write a CPU profile here for the life of the process (needs a -tags profile build)")
		profileHeap = flag.String("profile-heap", "", "write a heap profile here on shutdown (needs a -tags profile build)")
	)
	flag.Parse()

	configureLogging(*logFormat, *logLevel)

	if *profileCPU != "" {
		if err := prof.StartCPU(*profileCPU); err != nil {
			pkg.LogWarn(pkg.ComponentProxy, "cpu profile not started", "path", *profileCPU, "error", err)
		} else {
			defer prof.StopCPU()
		}
	}
	if *profileHeap != "" {
		defer func() {
			if err := prof.WriteHeap(*profileHeap); err != nil {
				pkg.LogWarn(pkg.ComponentProxy, "heap profile not written", "path", *profileHeap, "error", err)
			}
		}()
	}

	mouseTr, err := transport.OpenSerial(*mouseDev, *mouseBaud)
	if err != nil {
		pkg.LogError(pkg.ComponentProxy, "failed to open mouse serial transport", "device", *mouseDev, "error", err)
		os.Exit(1)
	}
	defer mouseTr.Close()

	kbdTr, err := transport.OpenSerial(*kbdDev, *kbdBaud)
	if err != nil {
		pkg.LogError(pkg.ComponentProxy, "failed to open keyboard serial transport", "device", *kbdDev, "error", err)
		os.Exit(1)
	}
	defer kbdTr.Close()

	mouseLink := dialectFor(*mouseDialect, mouseTr)
	kbdLink := dialectFor(*kbdDialect, kbdTr)

	mouseCh := proxy.NewChannel(proxy.KindMouse, mouseLink, dialectKind(*mouseDialect), chipctl.SpeedFull)
	kbdCh := proxy.NewChannel(proxy.KindKeyboard, kbdLink, dialectKind(*kbdDialect), chipctl.SpeedFull)

	mouseOut, err := os.OpenFile(*sinkMouseDev, os.O_WRONLY, 0)
	if err != nil {
		pkg.LogWarn(pkg.ComponentSink, "mouse gadget device unavailable, reports will be dropped", "device", *sinkMouseDev, "error", err)
	}
	kbdOut, err := os.OpenFile(*sinkKbdDev, os.O_WRONLY, 0)
	if err != nil {
		pkg.LogWarn(pkg.ComponentSink, "keyboard gadget device unavailable, reports will be dropped", "device", *sinkKbdDev, "error", err)
	}

	svc := sink.Init(fileWriter(mouseOut), fileWriter(kbdOut))
	defer svc.Cleanup()

	p := proxy.New(mouseCh, kbdCh, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pkg.LogInfo(pkg.ComponentProxy, "hidproxy started")
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		pkg.LogError(pkg.ComponentProxy, "proxy loop exited with error", "error", err)
		os.Exit(1)
	}
	pkg.LogInfo(pkg.ComponentProxy, "hidproxy stopped")
}

// fileWriter adapts an *os.File (possibly nil, when the gadget device
// could not be opened) to the sink.Init writer signature.
func fileWriter(f *os.File) func([]byte) error {
	if f == nil {
		return nil
	}
	return func(buf []byte) error {
		_, err := f.Write(buf)
		return err
	}
}

func dialectKind(name string) chipctl.Dialect {
	if name == "a" {
		return chipctl.DialectKindA
	}
	return chipctl.DialectKindB
}

func dialectFor(name string, t link.Transport) link.Link {
	if name == "a" {
		return link.NewDialectA(t)
	}
	return link.NewDialectB(t)
}

func configureLogging(format, level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	pkg.SetLogLevel(lvl)

	switch format {
	case "json":
		pkg.SetLogFormat(pkg.LogFormatJSON)
	case "zerolog":
		pkg.SetLogFormat(pkg.LogFormatZerolog)
	default:
		pkg.SetLogFormat(pkg.LogFormatText)
	}
}
