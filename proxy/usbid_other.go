//go:build !linux

package proxy

// describeDevice has no usb.ids database to consult off Linux; callers
// treat empty names as "unknown" and fall back to the bare VID:PID.
func describeDevice(vendorID, productID uint16) (vendor, product string) {
	return "", ""
}
