package recoilseq

// USBReportInterval is the host polling cadence, in milliseconds, that
// firerounds_sampling is derived against.
const USBReportInterval = 8

// Parameter bounds and step size.
const (
	CoefficientMin  = 0.1
	CoefficientMax  = 10.0
	CoefficientStep = 0.1

	SensitivityMin  = 0.1
	SensitivityMax  = 100.0
	SensitivityStep = 0.1

	DefaultCoefficient = 1.0
	DefaultSensitivity = 2.5
)

// Preset identifies a built-in recoil pattern.
type Preset int

const (
	PresetNone Preset = iota
	PresetOW2Soldier76
	PresetOW2Cassidy
)

// triple is one raw {x, y, t_ms} sample of a preset pattern.
type triple struct {
	x, y, t float64
}

// presetOW2Soldier76 is the Soldier-76 recoil pattern: a long, gently
// decaying vertical climb sampled every 111ms.
var presetOW2Soldier76 = []triple{
	{0, 0, 111},
	{0, -1.45500, 111},
	{0, 0.47045, 111},
	{0, -1.36901, 111},
	{0, 0.44265, 111},
	{0, -0.85873, 111},
	{0, 0.41649, 111},
	{0, -0.80798, 111},
	{0, 0.39187, 111},
	{0, -0.38012, 111},
	{0, 0.36871, 111},
	{0, -0.35765, 111},
	{0, 0.34692, 111},
	{0, -0.33651, 111},
	{0, 0.32642, 111},
	{0, -0.18998, 111},
	{0, 0.18428, 111},
	{0, 0, 111},
	{0, 0.17339, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
	{0, 0, 111},
}

// presetOW2Cassidy is the Cassidy recoil pattern: a sharp vertical kick
// every third shot of a three-round burst.
var presetOW2Cassidy = []triple{
	{0, 0, 50},
	{0, -20.20000, 150},
	{0, 0, 300},
	{0, 0, 50},
	{0, -20.20000, 150},
	{0, 0, 300},
	{0, 0, 50},
	{0, -20.20000, 150},
	{0, 0, 300},
	{0, 0, 50},
	{0, -20.20000, 150},
	{0, 0, 300},
	{0, 0, 50},
	{0, -20.20000, 150},
	{0, 0, 300},
	{0, 0, 50},
	{0, -20.20000, 150},
	{0, 0, 300},
}

type collection struct {
	data               []triple
	fireroundsSampling int
}

var presetTable = map[Preset]collection{
	PresetOW2Soldier76: {
		data:               presetOW2Soldier76,
		fireroundsSampling: roundToInt(111.0 / USBReportInterval),
	},
	PresetOW2Cassidy: {
		data:               presetOW2Cassidy,
		fireroundsSampling: roundToInt(500.0 / USBReportInterval),
	},
}
