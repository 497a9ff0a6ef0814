package entity

// FrameScore is the sensitivity estimate for a single extracted frame.
// Value is the weighted blend in [0,1]; the per-signal risks are kept for
// logging and threshold tuning.
type FrameScore struct {
	Value          float64
	BrightnessRisk float64
	ContrastRisk   float64
	ColorRisk      float64
	SizeRisk       float64
}
