package proxy

import (
	"context"
	"errors"
	"time"

	"github.com/hidproxy/hidproxy/hiddecoder"
	"github.com/hidproxy/hidproxy/pkg"
	"github.com/hidproxy/hidproxy/recoilseq"
	"github.com/hidproxy/hidproxy/sink"
)

// Proxy owns the two fixed channels and the shared recoil-compensation
// and output-sink state, and drives the round-robin poll loop: a single
// task advances both channels with a 1ms sleep between ticks, never
// holding a channel's chip mutex across the sleep.
type Proxy struct {
	Mouse    *Channel
	Keyboard *Channel
	Sink     sink.Sink
	Recoil   *recoilseq.Sequence

	compensationEnabled bool
	prevKeys            [6]byte
}

// New builds a Proxy from already-constructed channels and sink.
func New(mouse, keyboard *Channel, snk sink.Sink) *Proxy {
	return &Proxy{
		Mouse:    mouse,
		Keyboard: keyboard,
		Sink:     snk,
		Recoil:   recoilseq.New(),
	}
}

// Run drives the poll loop until ctx is cancelled.
func (p *Proxy) Run(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p.tickMouse(ctx)
		p.tickKeyboard(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func nowMs() uint32 {
	return uint32(time.Now().UnixMilli())
}

func (p *Proxy) tickMouse(ctx context.Context) {
	ch := p.Mouse
	if ch == nil {
		return
	}
	if !ch.Connected() {
		if err := ch.EnsureConnected(ctx); err != nil {
			if errors.Is(err, pkg.ErrWouldBlock) {
				return
			}
			pkg.LogWarn(pkg.ComponentProxy, "mouse enumeration failed", "error", err)
			return
		}
		pkg.LogInfo(pkg.ComponentProxy, "mouse connected", "device", ch.DeviceDescription())
	}

	if err := ch.Step(); err != nil {
		if errors.Is(err, pkg.ErrWouldBlock) {
			return
		}
		if errors.Is(err, pkg.ErrDisconnected) {
			pkg.LogInfo(pkg.ComponentProxy, "mouse disconnected")
			ch.Disconnect()
			p.Recoil.Clear()
			p.compensationEnabled = false
		} else {
			pkg.LogWarn(pkg.ComponentProxy, "mouse report fetch failed", "error", err)
		}
		return
	}

	m := ch.Mouse()
	if m == nil {
		return
	}

	if p.compensationEnabled {
		if x, y, ok := p.Recoil.Next(nowMs()); ok {
			curX, _ := m.GetOrientation(0)
			curY, _ := m.GetOrientation(1)
			_ = m.SetOrientation(0, curX+x)
			_ = m.SetOrientation(1, curY+y)
		}
	}

	var out [hiddecoder.NormalizedMouseReportLength]byte
	if err := m.Translate(out[:]); err != nil {
		pkg.LogWarn(pkg.ComponentProxy, "mouse translate failed", "error", err)
		return
	}
	if err := p.Sink.SendReport(ctx, sink.InterfaceMouse, out[:]); err != nil {
		if !errors.Is(err, pkg.ErrWouldBlock) && !errors.Is(err, pkg.ErrBusy) {
			pkg.LogWarn(pkg.ComponentProxy, "mouse sink send failed", "error", err)
		}
	}
}

func (p *Proxy) tickKeyboard(ctx context.Context) {
	ch := p.Keyboard
	if ch == nil {
		return
	}
	if !ch.Connected() {
		if err := ch.EnsureConnected(ctx); err != nil {
			if errors.Is(err, pkg.ErrWouldBlock) {
				return
			}
			pkg.LogWarn(pkg.ComponentProxy, "keyboard enumeration failed", "error", err)
			return
		}
		pkg.LogInfo(pkg.ComponentProxy, "keyboard connected", "device", ch.DeviceDescription())
		p.prevKeys = [6]byte{}
	}

	if err := ch.Step(); err != nil {
		if errors.Is(err, pkg.ErrWouldBlock) {
			return
		}
		if errors.Is(err, pkg.ErrDisconnected) {
			pkg.LogInfo(pkg.ComponentProxy, "keyboard disconnected")
			ch.Disconnect()
		} else {
			pkg.LogWarn(pkg.ComponentProxy, "keyboard report fetch failed", "error", err)
		}
		return
	}

	k := ch.Keyboard()
	if k == nil {
		return
	}

	cur := k.Keys()
	dispatchHotkeys(p.Recoil, &p.compensationEnabled, p.prevKeys, cur)
	p.prevKeys = cur

	raw := k.Raw()
	if err := p.Sink.SendReport(ctx, sink.InterfaceKeyboard, raw[:]); err != nil {
		if !errors.Is(err, pkg.ErrWouldBlock) && !errors.Is(err, pkg.ErrBusy) {
			pkg.LogWarn(pkg.ComponentProxy, "keyboard sink send failed", "error", err)
		}
	}
}
