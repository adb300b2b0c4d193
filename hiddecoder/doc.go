// Package hiddecoder extracts per-report field values (buttons,
// orientation axes, wheel, keyboard modifiers/keys) from the raw bytes
// fetched over an interrupt IN endpoint, translating them to the fixed
// 6-byte normalized mouse output and tracking the boot-protocol
// keyboard's 6-key rollover array.
package hiddecoder
