package enum

import (
	"context"
	"time"

	"github.com/hidproxy/hidproxy/chipctl"
	"github.com/hidproxy/hidproxy/hostxfer"
	"github.com/hidproxy/hidproxy/pkg"
)

// FixedAddress is the only address this firmware ever assigns: there is
// no dynamic address pool, since each channel owns exactly one device.
const FixedAddress = 1

// InitialEP0MaxPacket is the control endpoint's assumed max packet size
// before the first 8-byte device-descriptor read refines it.
const InitialEP0MaxPacket = 8

// Device is the enumerated downstream device: fixed address, descriptors,
// and interface/endpoint table. It embeds hostxfer.Device so the
// transfer engine can drive it directly.
type Device struct {
	hostxfer.Device

	Speed chipctl.Speed

	RawDeviceDescriptor DeviceDescriptor
	RawConfigDescriptor []byte
	ConfigDescHeader    ConfigurationDescriptor
	ConfigurationValue  byte

	Connected  bool
	Configured bool
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Open runs the full enumeration sequence against a device
// already physically connected on the link, returning the fully
// configured Device. speedHint is the port speed reported before reset,
// used to decide whether to call SetDevSpeed(Low).
func Open(ctx context.Context, chip *chipctl.ChipCtx, xfer *hostxfer.Xfer, speedHint chipctl.Speed) (*Device, error) {
	// Step 1: reset sequence.
	if err := chip.SetUsbMode(chipctl.ModeReset); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, 20*time.Millisecond); err != nil {
		return nil, err
	}
	if err := chip.SetUsbMode(chipctl.ModeSofAuto); err != nil {
		return nil, err
	}
	if err := waitReconnect(ctx, chip, time.Second); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, 40*time.Millisecond); err != nil {
		return nil, err
	}
	if speedHint == chipctl.SpeedLow {
		if err := chip.SetDevSpeed(chipctl.SpeedLow); err != nil {
			return nil, err
		}
	}

	dev := &Device{
		Device: hostxfer.Device{
			Address:      0,
			EP0MaxPacket: InitialEP0MaxPacket,
		},
		Speed: speedHint,
	}

	// Step 2: 8-byte device descriptor read to learn EP0 max packet.
	var probe [8]byte
	n, err := xfer.ControlTransfer(&dev.Device, hostxfer.GetDescriptorSetup(DescTypeDevice, 0, 8), probe[:])
	if err != nil {
		return nil, err
	}
	if n < 8 {
		return nil, pkg.ErrIO
	}
	dev.Device.EP0MaxPacket = uint16(probe[7])

	// Step 3: full 18-byte device descriptor.
	var full [DeviceDescriptorSize]byte
	n, err = xfer.ControlTransfer(&dev.Device, hostxfer.GetDescriptorSetup(DescTypeDevice, 0, DeviceDescriptorSize), full[:])
	if err != nil {
		return nil, err
	}
	if n < DeviceDescriptorSize || !ParseDeviceDescriptor(full[:n], &dev.RawDeviceDescriptor) {
		return nil, pkg.ErrIO
	}

	// Step 4: fixed address assignment.
	if _, err := xfer.ControlTransfer(&dev.Device, hostxfer.SetAddressSetup(FixedAddress), nil); err != nil {
		return nil, err
	}
	if err := chip.SetUsbAddr(FixedAddress); err != nil {
		return nil, err
	}
	dev.Device.Address = FixedAddress

	// Step 5: configuration descriptor, header then full.
	var cfgHeader [ConfigurationDescriptorSize]byte
	n, err = xfer.ControlTransfer(&dev.Device, hostxfer.GetDescriptorSetup(DescTypeConfiguration, 0, ConfigurationDescriptorSize), cfgHeader[:])
	if err != nil {
		return nil, err
	}
	if n < ConfigurationDescriptorSize || !ParseConfigurationDescriptor(cfgHeader[:n], &dev.ConfigDescHeader) {
		return nil, pkg.ErrIO
	}

	total := dev.ConfigDescHeader.TotalLength
	if total < ConfigurationDescriptorSize || total > MaxConfigDescriptorSize {
		return nil, pkg.ErrAllocFailed
	}
	cfgBuf := make([]byte, total)
	n, err = xfer.ControlTransfer(&dev.Device, hostxfer.GetDescriptorSetup(DescTypeConfiguration, 0, total), cfgBuf)
	if err != nil {
		return nil, err
	}
	cfgBuf = cfgBuf[:n]

	// Step 6: walk the configuration tree.
	ifaces, err := parseConfigurationTree(cfgBuf)
	if err != nil {
		return nil, err
	}
	dev.Device.Interfaces = ifaces
	dev.RawConfigDescriptor = cfgBuf
	dev.ConfigurationValue = dev.ConfigDescHeader.ConfigurationValue

	// Step 7: activate the configuration.
	if _, err := xfer.ControlTransfer(&dev.Device, hostxfer.SetConfigurationSetup(dev.ConfigurationValue), nil); err != nil {
		return nil, err
	}

	dev.Connected = true
	dev.Configured = true
	return dev, nil
}

func waitReconnect(ctx context.Context, chip *chipctl.ChipCtx, budget time.Duration) error {
	deadline := time.Now().Add(budget)
	for {
		state, err := chip.TestConnect()
		if err == nil && state != chipctl.StateDisconnected {
			return nil
		}
		if time.Now().After(deadline) {
			return pkg.ErrTimeout
		}
		if err := sleepCtx(ctx, time.Millisecond); err != nil {
			return err
		}
	}
}

// parseConfigurationTree walks a configuration descriptor's interface and
// endpoint entries. Malformed items (bLength == 0, an item extending
// past the buffer, or an endpoint with wMaxPacketSize 0) abort with
// IoError. Unknown descriptor types are skipped.
func parseConfigurationTree(cfg []byte) ([]*hostxfer.Interface, error) {
	var ifaces []*hostxfer.Interface
	var current *hostxfer.Interface

	offset := ConfigurationDescriptorSize
	for offset < len(cfg) {
		length := int(cfg[offset])
		if length == 0 || offset+length > len(cfg) {
			return nil, pkg.ErrIO
		}
		descType := cfg[offset+1]
		item := cfg[offset : offset+length]

		switch descType {
		case DescTypeInterface:
			var raw InterfaceDescriptorRaw
			if !ParseInterfaceDescriptor(item, &raw) {
				return nil, pkg.ErrIO
			}
			current = &hostxfer.Interface{
				Number:   raw.InterfaceNumber,
				Class:    raw.InterfaceClass,
				SubClass: raw.InterfaceSubClass,
				Protocol: raw.InterfaceProtocol,
			}
			ifaces = append(ifaces, current)
		case DescTypeEndpoint:
			if current == nil {
				return nil, pkg.ErrIO
			}
			var raw EndpointDescriptorRaw
			if !ParseEndpointDescriptor(item, &raw) || raw.MaxPacketSize == 0 {
				return nil, pkg.ErrIO
			}
			current.Endpoints = append(current.Endpoints, &hostxfer.Endpoint{
				Address:    raw.EndpointAddress,
				Attributes: raw.Attributes,
				MaxPacket:  raw.MaxPacketSize,
				Interval:   raw.Interval,
				Toggle:     false,
			})
		default:
			// Unknown descriptor type: skip.
		}

		offset += length
	}
	return ifaces, nil
}
