package proxy

import (
	"github.com/hidproxy/hidproxy/recoilseq"
)

// Keyboard usage codes (USB HID Usage Tables, Keyboard/Keypad page 0x07)
// for the recoil-compensation hotkeys, plus the '0' clear-preset key.
const (
	keyPageUp   = 0x4B
	keyPageDown = 0x4E
	key1        = 0x1E
	key2        = 0x1F
	key0        = 0x27
	keyEquals   = 0x2E
	keyMinus    = 0x2D
	keyComma    = 0x36
	keyPeriod   = 0x37
)

// dispatchHotkeys inspects the newly-pressed keys (codes present in cur
// but not in prev) and routes recognized ones into seq. Unrecognized
// codes are ignored; this is never a hard error since the keyboard
// channel must keep forwarding reports regardless of hotkey outcome.
func dispatchHotkeys(seq *recoilseq.Sequence, enabled *bool, prev, cur [6]byte) {
	for _, code := range cur {
		if code == 0 || containsKey(prev, code) {
			continue
		}
		applyHotkey(seq, enabled, code)
	}
}

func containsKey(keys [6]byte, code byte) bool {
	for _, k := range keys {
		if k == code {
			return true
		}
	}
	return false
}

func applyHotkey(seq *recoilseq.Sequence, enabled *bool, code byte) {
	switch code {
	case keyPageUp:
		*enabled = true
	case keyPageDown:
		*enabled = false
	case key1:
		_ = seq.SetPreset(recoilseq.PresetOW2Soldier76)
	case key2:
		_ = seq.SetPreset(recoilseq.PresetOW2Cassidy)
	case key0:
		seq.Clear()
	case keyEquals:
		_ = seq.AdjustCoefficient(true)
	case keyMinus:
		_ = seq.AdjustCoefficient(false)
	case keyComma:
		_ = seq.AdjustSensitivity(true)
	case keyPeriod:
		_ = seq.AdjustSensitivity(false)
	}
}
