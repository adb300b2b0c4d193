package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/hidproxy/hidproxy/chipctl"
	"github.com/hidproxy/hidproxy/enum"
	"github.com/hidproxy/hidproxy/hiddecoder"
	"github.com/hidproxy/hidproxy/hidparser"
	"github.com/hidproxy/hidproxy/hostxfer"
	"github.com/hidproxy/hidproxy/link"
	"github.com/hidproxy/hidproxy/pkg"
	"github.com/qmuntal/stateless"
)

// Kind distinguishes the two fixed downstream device roles.
type Kind int

const (
	KindMouse Kind = iota
	KindKeyboard
)

// Channel owns one full Link→ChipCtl→HostXfer→Enum→HidParser+HidDecoder
// stack for one downstream device. Reconnection after a disconnect is
// handled by discarding the enumerated state and re-entering the
// "wait for connect" path; the Link and ChipCtx survive a disconnect.
type Channel struct {
	Kind Kind

	Link  link.Link
	Chip  *chipctl.ChipCtx
	Xfer  *hostxfer.Xfer
	Speed chipctl.Speed

	dev       *enum.Device
	hid       *hidparser.Device
	mouse     *hiddecoder.MouseState
	kbd       *hiddecoder.KeyboardState
	lifecycle *stateless.StateMachine
}

// NewChannel builds a Channel bound to l under dialect, servicing kind.
// speed is the fallback signaling rate used when the chip's own speed
// query fails during a (re)connect.
func NewChannel(kind Kind, l link.Link, dialect chipctl.Dialect, speed chipctl.Speed) *Channel {
	chip := chipctl.New(l, dialect)
	return &Channel{
		Kind:      kind,
		Link:      l,
		Chip:      chip,
		Xfer:      hostxfer.New(chip),
		Speed:     speed,
		lifecycle: newConnLifecycle(),
	}
}

// Connected reports whether the channel currently holds an enumerated,
// configured device.
func (c *Channel) Connected() bool { return c.attached() }

// pollConnect reports whether the chip currently senses a downstream
// device, without blocking.
func (c *Channel) pollConnect() (bool, error) {
	state, err := c.Chip.TestConnect()
	if err != nil {
		return false, err
	}
	return state != chipctl.StateDisconnected, nil
}

// EnsureConnected enumerates a freshly attached device and binds its HID
// report descriptor and decoder. It is a no-op if a device is already
// connected, and returns pkg.ErrWouldBlock if nothing is attached yet.
func (c *Channel) EnsureConnected(ctx context.Context) error {
	if c.attached() {
		return nil
	}
	present, err := c.pollConnect()
	if err != nil {
		return err
	}
	if !present {
		return pkg.ErrWouldBlock
	}
	c.fire(ctx, triggerAttachStart)

	// The chip senses the attached device's signaling rate; the configured
	// Speed is only a fallback when the query fails.
	speed := c.Speed
	if s, err := c.Chip.GetDevSpeed(); err == nil && s != chipctl.SpeedUnknown {
		speed = s
	}

	dev, err := enum.Open(ctx, c.Chip, c.Xfer, speed)
	if err != nil {
		c.fire(ctx, triggerAttachFail)
		return err
	}
	if len(dev.Device.Interfaces) == 0 {
		c.fire(ctx, triggerAttachFail)
		return pkg.ErrIO
	}
	hid, err := hidparser.Open(c.Xfer, &dev.Device, dev.Device.Interfaces[0])
	if err != nil {
		c.fire(ctx, triggerAttachFail)
		return err
	}

	reportLen := int(hid.InEndpoint.MaxPacket)
	switch hid.Class {
	case hidparser.ClassMouse:
		c.mouse = hiddecoder.NewMouseState(hid.MouseFields, reportLen)
		c.kbd = nil
	case hidparser.ClassKeyboard:
		c.kbd = hiddecoder.NewKeyboardState()
		c.mouse = nil
	default:
		c.fire(ctx, triggerAttachFail)
		return pkg.ErrNotSupported
	}

	// HID SET_IDLE(0) — report on change only. Failure is tolerated: not
	// every device implements it and the boot-protocol default works
	// without it.
	_, _ = c.Xfer.ControlTransfer(&dev.Device, hostxfer.HIDSetIdleSetup(hid.Interface.Number, 0), nil)

	c.dev = dev
	c.hid = hid
	c.fire(ctx, triggerAttachOK)
	return nil
}

// Disconnect tears down enumerated state, returning the channel to the
// "wait for connect" path. The Link and ChipCtx are reused as-is.
func (c *Channel) Disconnect() {
	c.dev = nil
	c.hid = nil
	c.mouse = nil
	c.kbd = nil
	c.fire(context.Background(), triggerDetach)
}

// Step performs one report fetch for the channel's device, returning
// pkg.ErrWouldBlock on an idle poll (no new report) rather than an error.
func (c *Channel) Step() error {
	if !c.attached() {
		return pkg.ErrWouldBlock
	}
	switch c.Kind {
	case KindMouse:
		if c.mouse == nil {
			return pkg.ErrInvalidState
		}
		return c.mouse.FetchReport(c.Xfer, c.hid.InEndpoint)
	case KindKeyboard:
		if c.kbd == nil {
			return pkg.ErrInvalidState
		}
		return c.kbd.FetchReport(c.Xfer, c.hid.InEndpoint)
	default:
		return pkg.ErrInvalidState
	}
}

// DeviceDescription returns a human-readable "vendor product" string for
// the currently enumerated device, consulting the platform's USB ID
// database when available. Falls back to the bare vid:pid when the
// database has no entry; returns "" if nothing is attached.
func (c *Channel) DeviceDescription() string {
	if c.dev == nil {
		return ""
	}
	vid := c.dev.RawDeviceDescriptor.VendorID
	pid := c.dev.RawDeviceDescriptor.ProductID
	vendor, product := describeDevice(vid, pid)
	switch {
	case vendor != "" && product != "":
		return vendor + " " + product
	case vendor != "":
		return vendor
	default:
		return fmt.Sprintf("%04x:%04x", vid, pid)
	}
}

// Mouse returns the channel's mouse decoder, or nil if this channel is
// not currently bound to a mouse.
func (c *Channel) Mouse() *hiddecoder.MouseState { return c.mouse }

// Keyboard returns the channel's keyboard decoder, or nil if this
// channel is not currently bound to a keyboard.
func (c *Channel) Keyboard() *hiddecoder.KeyboardState { return c.kbd }

// pollInterval is the inter-tick sleep of the owning Proxy's round-robin
// loop.
const pollInterval = time.Millisecond
