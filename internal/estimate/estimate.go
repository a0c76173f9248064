// Package estimate turns mesh geometry and slicer settings into print time,
// material and power figures.
package estimate

import (
	"math"

	"github.com/Simplici0/meshquote/internal/mesh"
)

const (
	NozzleWidth        = 0.4  // mm
	PLADensity         = 1.24 // g/cm³
	SetupTime          = 5.0  // minutes
	LayerChangeTime    = 1.0
	AccelerationFactor = 1.15

	// Support heuristic: this share of the model volume needs support,
	// printed at supportDensity.
	supportShare   = 0.2
	supportDensity = 0.15

	// travelShare is the travel distance per layer as a share of the perimeter.
	travelShare = 0.3

	kilowattsWhilePrinting = 0.1

	MinPrintMinutes = 10
	MaxPrintMinutes = 1440

	// layerEpsilon keeps ceil from adding a layer for float noise (20/0.2).
	layerEpsilon = 1e-9
)

// Speeds are the print head speeds of a preset in mm/s.
type Speeds struct {
	Perimeter  float64 `json:"perimeter"`
	Infill     float64 `json:"infill"`
	Support    float64 `json:"support"`
	Travel     float64 `json:"travel"`
	FirstLayer float64 `json:"firstLayer"`
}

var (
	draftSpeeds       = Speeds{Perimeter: 60, Infill: 80, Support: 90, Travel: 150, FirstLayer: 30}
	standardSpeeds    = Speeds{Perimeter: 45, Infill: 60, Support: 70, Travel: 120, FirstLayer: 25}
	highSpeeds        = Speeds{Perimeter: 30, Infill: 45, Support: 50, Travel: 100, FirstLayer: 20}
	engineeringSpeeds = Speeds{Perimeter: 20, Infill: 30, Support: 35, Travel: 80, FirstLayer: 15}
)

// SpeedsFor returns the speed profile of p. Unknown presets use Standard.
func SpeedsFor(p QualityPreset) Speeds {
	switch p {
	case Draft:
		return draftSpeeds
	case High:
		return highSpeeds
	case Engineering:
		return engineeringSpeeds
	case Standard:
		return standardSpeeds
	default:
		return standardSpeeds
	}
}

// PrintEstimate is the derived print plan for one mesh and config.
type PrintEstimate struct {
	PrintTimeMinutes             int     `json:"printTimeMinutes"`
	MaterialUsageGrams           float64 `json:"materialUsageGrams"`
	LayerCount                   int     `json:"layerCount"`
	EstimatedPowerConsumptionKWh float64 `json:"estimatedPowerConsumptionKWh"`
}

// Estimate computes the print plan for m under cfg. It is a pure function of
// its arguments and does not modify m.
//
// Material weight always uses PLA density, whatever material is priced later,
// and the infill volume is not clamped at zero for thin-walled models.
func Estimate(m *mesh.Mesh, cfg PrintConfig) (PrintEstimate, error) {
	if err := cfg.Validate(); err != nil {
		return PrintEstimate{}, err
	}

	dims := m.Dimensions()
	layers := math.Max(math.Ceil(dims.Z/cfg.LayerHeight-layerEpsilon), 1)
	layerCount := int(math.Min(layers, math.MaxInt32))

	// Rectangular footprint, not the real outline.
	averagePerimeter := 2 * (dims.X + dims.Y)

	wallLayers := math.Ceil(cfg.WallThickness/NozzleWidth - layerEpsilon)
	shellVolume := m.SurfaceArea * wallLayers * NozzleWidth
	infillVolume := (m.Volume - shellVolume) * (cfg.InfillPercent / 100)
	supportVolume := 0.0
	if cfg.SupportsEnabled {
		supportVolume = m.Volume * supportShare * supportDensity
	}
	totalVolume := shellVolume + infillVolume + supportVolume
	materialWeight := (totalVolume / 1000) * PLADensity

	printTime := printTimeMinutes(layerCount, averagePerimeter, infillVolume, supportVolume, cfg.LayerHeight, SpeedsFor(cfg.QualityPreset))

	// Clamp before converting so huge meshes cannot overflow int.
	minutes := math.Min(math.Round(printTime), MaxPrintMinutes)

	return PrintEstimate{
		PrintTimeMinutes:             int(minutes),
		MaterialUsageGrams:           round(materialWeight, 1),
		LayerCount:                   layerCount,
		EstimatedPowerConsumptionKWh: round((printTime/60)*kilowattsWhilePrinting, 2),
	}, nil
}

// printTimeMinutes returns the unrounded print time, floored at
// MinPrintMinutes but not capped.
func printTimeMinutes(layers int, perimeter, infillVolume, supportVolume, layerHeight float64, s Speeds) float64 {
	extraLayers := float64(layers - 1)
	lineWidth := layerHeight * NozzleWidth

	firstLayerTime := perimeter / s.FirstLayer * 60
	perimeterTime := extraLayers * perimeter / s.Perimeter * 60
	infillTime := (infillVolume / lineWidth) / s.Infill * 60

	supportTime := 0.0
	if supportVolume > 0 {
		supportTime = (supportVolume / lineWidth) / s.Support * 60
	}

	layerChangeTime := extraLayers * LayerChangeTime
	travelDistance := float64(layers) * perimeter * travelShare
	travelTime := travelDistance/s.Travel*60 + layerChangeTime

	raw := (firstLayerTime + perimeterTime + infillTime + supportTime + travelTime) * AccelerationFactor
	return math.Max(raw+SetupTime, MinPrintMinutes)
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
