//go:build linux

package proxy

import "github.com/hidproxy/hidproxy/pkg/linux/usbid"

// usbidDB is the lazily-loaded vendor/product name database consulted
// when logging a freshly enumerated device; Load() is idempotent and
// tolerates a missing usb.ids file by falling back to empty names.
var usbidDB = usbid.New()

func describeDevice(vendorID, productID uint16) (vendor, product string) {
	usbidDB.Load()
	return usbidDB.LookupVendor(vendorID), usbidDB.LookupProduct(vendorID, productID)
}
