package hidparser

import (
	"github.com/hidproxy/hidproxy/hostxfer"
	"github.com/hidproxy/hidproxy/pkg"
)

// MaxReportDescriptorSize bounds the single-shot HID report descriptor
// fetch; real mouse/keyboard descriptors are well under this.
const MaxReportDescriptorSize = 256

// Device binds one enumerated interface to its parsed HID report
// descriptor, detected device class, and located field set.
type Device struct {
	Interface  *hostxfer.Interface
	InEndpoint *hostxfer.Endpoint

	ReportDescriptor []byte
	Class            DeviceClass
	MouseFields      MouseFields
}

// Open fetches iface's HID report descriptor over xfer and classifies it.
// The class GET_DESCRIPTOR request is tried against the CLASS/INTERFACE
// recipient first; on failure it is retried against STANDARD/INTERFACE,
// matching devices that misreport the request type.
func Open(xfer *hostxfer.Xfer, dev *hostxfer.Device, iface *hostxfer.Interface) (*Device, error) {
	in, err := firstInEndpoint(iface)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, MaxReportDescriptorSize)
	setup := hostxfer.HIDGetDescriptorSetup(iface.Number, uint16(len(buf)), false)
	n, err := xfer.ControlTransfer(dev, setup, buf)
	if err != nil {
		setup = hostxfer.HIDGetDescriptorSetup(iface.Number, uint16(len(buf)), true)
		n, err = xfer.ControlTransfer(dev, setup, buf)
		if err != nil {
			return nil, err
		}
	}
	desc := buf[:n]
	if consumed, walkErr := WalkLength(desc); walkErr == nil && consumed < len(desc) {
		desc = desc[:consumed]
	}

	d := &Device{
		Interface:        iface,
		InEndpoint:       in,
		ReportDescriptor: desc,
		Class:            DetectClass(desc),
	}
	if d.Class == ClassMouse {
		d.MouseFields = LocateMouseFields(desc)
	}
	return d, nil
}

func firstInEndpoint(iface *hostxfer.Interface) (*hostxfer.Endpoint, error) {
	for _, ep := range iface.Endpoints {
		if ep.IsIn() && ep.TransferType() == hostxfer.TransferInterrupt {
			return ep, nil
		}
	}
	return nil, pkg.ErrNotFound
}
