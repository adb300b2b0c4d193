package recoilseq

import (
	"math"

	"github.com/hidproxy/hidproxy/pkg"
)

// Sequence holds the expanded per-tick recoil-compensation arrays for the
// active preset, scaled by coefficient and sensitivity, plus emission
// cursor state. Use New to get one with sane default parameters.
type Sequence struct {
	coefficient float64
	sensitivity float64

	preset Preset
	loaded bool

	xTicks []int32
	yTicks []int32
	tTicks []int32
	index  int

	lastTickMs   uint32
	haveLastTick bool
}

// New returns a Sequence with the default coefficient and sensitivity, no
// preset loaded.
func New() *Sequence {
	return &Sequence{
		coefficient: DefaultCoefficient,
		sensitivity: DefaultSensitivity,
	}
}

// Coefficient returns the current compensation coefficient.
func (s *Sequence) Coefficient() float64 { return s.coefficient }

// Sensitivity returns the current compensation sensitivity.
func (s *Sequence) Sensitivity() float64 { return s.sensitivity }

// Preset returns the currently loaded preset, or PresetNone.
func (s *Sequence) Preset() Preset { return s.preset }

func roundToInt(v float64) int {
	return int(math.Round(v))
}

// roundStep rounds v to the nearest 0.1 step. This is a float-drift guard
// against repeated ±0.1 adjustments, not a behavior of the original
// firmware (which only clamps, never rounds).
func roundStep(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SetPreset loads idx and expands its per-tick arrays at the current
// coefficient/sensitivity. PresetNone clears any active preset.
func (s *Sequence) SetPreset(idx Preset) error {
	if idx == PresetNone {
		s.clear()
		return nil
	}
	coll, ok := presetTable[idx]
	if !ok {
		return pkg.ErrInvalidParameter
	}
	s.preset = idx
	return s.regenerate(coll)
}

// Clear unloads the active preset, per the supplemented '0' hotkey.
func (s *Sequence) Clear() {
	s.clear()
}

func (s *Sequence) clear() {
	s.preset = PresetNone
	s.loaded = false
	s.xTicks, s.yTicks, s.tTicks = nil, nil, nil
	s.index = 0
	s.haveLastTick = false
}

// AdjustCoefficient steps the coefficient by ±CoefficientStep, clamps it
// to [CoefficientMin, CoefficientMax], and rounds to the nearest 0.1.
// Regenerates the active preset's arrays if one is loaded.
func (s *Sequence) AdjustCoefficient(increase bool) error {
	delta := CoefficientStep
	if !increase {
		delta = -delta
	}
	s.coefficient = roundStep(clamp(s.coefficient+delta, CoefficientMin, CoefficientMax))
	return s.regenerateIfLoaded()
}

// AdjustSensitivity steps the sensitivity by ±SensitivityStep, clamps it
// to [SensitivityMin, SensitivityMax], and rounds to the nearest 0.1.
// Regenerates the active preset's arrays if one is loaded.
func (s *Sequence) AdjustSensitivity(increase bool) error {
	delta := SensitivityStep
	if !increase {
		delta = -delta
	}
	s.sensitivity = roundStep(clamp(s.sensitivity+delta, SensitivityMin, SensitivityMax))
	return s.regenerateIfLoaded()
}

func (s *Sequence) regenerateIfLoaded() error {
	if s.preset == PresetNone {
		return nil
	}
	coll, ok := presetTable[s.preset]
	if !ok {
		return pkg.ErrInvalidParameter
	}
	return s.regenerate(coll)
}

// regenerate expands coll's raw triples into per-tick int32 arrays,
// distributing each group's rounding residual onto its earliest ticks so
// that the emitted sum exactly equals the rounded scaled total.
func (s *Sequence) regenerate(coll collection) error {
	if len(coll.data) == 0 {
		return pkg.ErrInvalidParameter
	}
	if coll.fireroundsSampling <= 0 {
		return pkg.ErrInvalidParameter
	}

	groups := len(coll.data)
	n := coll.fireroundsSampling * groups
	xs := make([]int32, n)
	ys := make([]int32, n)
	ts := make([]int32, n)

	var sumX, sumY, sumT float64     // running sum of stored (integer) ticks
	var sumX0, sumY0, sumT0 float64  // running sum of exact scaled values
	idx := 0

	for i := 0; i < groups; i++ {
		raw := coll.data[i]
		x := raw.x * s.coefficient / s.sensitivity
		y := raw.y * s.coefficient / s.sensitivity
		t := raw.t

		sx := int32(math.Floor(x / float64(coll.fireroundsSampling)))
		sy := int32(math.Floor(y / float64(coll.fireroundsSampling)))
		st := int32(math.Floor(t / float64(coll.fireroundsSampling)))

		sumX += float64(sx) * float64(coll.fireroundsSampling)
		sumY += float64(sy) * float64(coll.fireroundsSampling)
		sumT += float64(st) * float64(coll.fireroundsSampling)
		sumX0 += x
		sumY0 += y
		sumT0 += t

		fixX := roundToInt(sumX0 - sumX)
		fixY := roundToInt(sumY0 - sumY)
		fixT := roundToInt(sumT0 - sumT)

		for j := 0; j < coll.fireroundsSampling; j++ {
			if idx >= n {
				break
			}
			xs[idx], ys[idx], ts[idx] = sx, sy, st

			if fixX > 0 {
				xs[idx]++
				sumX++
				fixX--
			}
			if fixY > 0 {
				ys[idx]++
				sumY++
				fixY--
			}
			if fixT > 0 {
				ts[idx]++
				sumT++
				fixT--
			}
			idx++
		}
	}

	s.xTicks, s.yTicks, s.tTicks = xs, ys, ts
	s.index = 0
	s.loaded = true
	s.haveLastTick = false
	return nil
}

func elapsedSince(start, now uint32) uint32 {
	if now >= start {
		return now - start
	}
	return (0xFFFFFFFF - start) + now + 1
}

// Next returns the next compensation tick's (x, y) deltas if one is due
// at nowMs. It returns ok=false if no preset is loaded, the sequence is
// exhausted, or the current tick's interval has not yet elapsed.
func (s *Sequence) Next(nowMs uint32) (x, y int32, ok bool) {
	if !s.loaded || s.index >= len(s.xTicks) {
		return 0, 0, false
	}
	if !s.haveLastTick {
		s.lastTickMs = nowMs
		s.haveLastTick = true
	}
	elapsed := elapsedSince(s.lastTickMs, nowMs)
	interval := uint32(s.tTicks[s.index])
	if elapsed < interval {
		return 0, 0, false
	}
	s.lastTickMs += interval
	x = s.xTicks[s.index]
	y = -s.yTicks[s.index] // pattern Y is screen-down-positive; invert for motion compensation
	s.index++
	return x, y, true
}

// Restart resets the emission cursor to the start of the active preset's
// arrays, re-anchoring the tick clock to nowMs.
func (s *Sequence) Restart(nowMs uint32) error {
	if !s.loaded {
		return pkg.ErrInvalidState
	}
	s.index = 0
	s.lastTickMs = nowMs
	s.haveLastTick = true
	return nil
}
