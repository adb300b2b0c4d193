// Package hidparser walks a HID report descriptor's item stream,
// classifies the device as mouse/keyboard/unsupported, and locates the
// button/orientation/wheel fields within a mouse's INPUT items.
package hidparser
