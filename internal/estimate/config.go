package estimate

import (
	"fmt"
	"math"
	"strings"
)

// QualityPreset names a speed/quality tradeoff profile.
type QualityPreset string

const (
	Draft       QualityPreset = "draft"
	Standard    QualityPreset = "standard"
	High        QualityPreset = "high"
	Engineering QualityPreset = "engineering"
)

// QualityPresets lists every known preset, fastest first.
var QualityPresets = []QualityPreset{Draft, Standard, High, Engineering}

// ParseQualityPreset matches s case-insensitively against the known presets.
// Unknown input yields Standard and ok == false.
func ParseQualityPreset(s string) (p QualityPreset, ok bool) {
	switch QualityPreset(strings.ToLower(strings.TrimSpace(s))) {
	case Draft:
		return Draft, true
	case Standard:
		return Standard, true
	case High:
		return High, true
	case Engineering:
		return Engineering, true
	default:
		return Standard, false
	}
}

// PrintConfig holds the user-selected slicer settings for one estimate.
type PrintConfig struct {
	LayerHeight     float64       `json:"layerHeight" toml:"layer_height"`
	InfillPercent   float64       `json:"infillPercent" toml:"infill_percent"`
	QualityPreset   QualityPreset `json:"qualityPreset" toml:"quality_preset"`
	SupportsEnabled bool          `json:"supportsEnabled" toml:"supports_enabled"`
	WallThickness   float64       `json:"wallThickness" toml:"wall_thickness"`
}

// DefaultConfig returns the settings used when a request leaves fields out.
func DefaultConfig() PrintConfig {
	return PrintConfig{
		LayerHeight:     0.2,
		InfillPercent:   20,
		QualityPreset:   Standard,
		SupportsEnabled: false,
		WallThickness:   0.8,
	}
}

// InvalidConfigError reports an out-of-range PrintConfig field.
type InvalidConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid print config: %s=%v %s", e.Field, e.Value, e.Reason)
}

// Validate checks the numeric ranges of c. The quality preset is not
// validated; unknown presets fall back to Standard speeds.
func (c PrintConfig) Validate() error {
	if !finite(c.LayerHeight) || c.LayerHeight <= 0 {
		return &InvalidConfigError{Field: "layerHeight", Value: c.LayerHeight, Reason: "must be greater than 0"}
	}
	if !finite(c.WallThickness) || c.WallThickness <= 0 {
		return &InvalidConfigError{Field: "wallThickness", Value: c.WallThickness, Reason: "must be greater than 0"}
	}
	if !finite(c.InfillPercent) || c.InfillPercent < 0 || c.InfillPercent > 100 {
		return &InvalidConfigError{Field: "infillPercent", Value: c.InfillPercent, Reason: "must be between 0 and 100"}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
