// Package pricing converts print-time and material figures into a TND price.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/Simplici0/meshquote/internal/estimate"
)

const (
	// Currency is the ISO code of every price produced here.
	Currency = "TND"

	MachineTimeCostPerHour = 7.5
	SetupFee               = 15.0

	// pricePlaces is the minor-unit precision of the currency.
	pricePlaces = 3
)

// Material is a filament type offered for printing.
type Material string

const (
	PLA  Material = "pla"
	ABS  Material = "abs"
	PETG Material = "petg"
	TPU  Material = "tpu"
	PA   Material = "pa"
)

// Materials lists every known material, cheapest first.
var Materials = []Material{PLA, ABS, PETG, TPU, PA}

// CostPerGram returns the filament cost of m. Unknown materials cost as PLA.
func CostPerGram(m Material) float64 {
	switch m {
	case ABS:
		return 0.18
	case PETG:
		return 0.21
	case TPU:
		return 0.27
	case PA:
		return 0.45
	case PLA:
		return 0.15
	default:
		return 0.15
	}
}

// QualityFactor returns the price multiplier of q. Unknown presets use the
// Standard factor.
func QualityFactor(q estimate.QualityPreset) float64 {
	switch q {
	case estimate.Draft:
		return 0.9
	case estimate.High:
		return 1.2
	case estimate.Engineering:
		return 1.5
	case estimate.Standard:
		return 1.0
	default:
		return 1.0
	}
}

// ParseMaterial matches s case-insensitively. Unknown input yields PLA and
// ok == false.
func ParseMaterial(s string) (m Material, ok bool) {
	switch Material(strings.ToLower(strings.TrimSpace(s))) {
	case PLA:
		return PLA, true
	case ABS:
		return ABS, true
	case PETG:
		return PETG, true
	case TPU:
		return TPU, true
	case PA:
		return PA, true
	default:
		return PLA, false
	}
}

// UnknownKeyFallback records a lookup key that was not recognised and the
// default that replaced it. It is not fatal.
type UnknownKeyFallback struct {
	Kind    string
	Key     string
	Default string
}

func (f UnknownKeyFallback) Error() string {
	return fmt.Sprintf("unknown %s %q, using %q", f.Kind, f.Key, f.Default)
}

// Request holds the inputs of a price calculation.
type Request struct {
	PrintTimeMinutes   float64
	MaterialUsageGrams float64
	Material           Material
	Quality            estimate.QualityPreset
}

// NewRequest builds a Request from raw material and quality keys. Keys that
// are not recognised are replaced by PLA / Standard and reported.
func NewRequest(printTimeMinutes, materialUsageGrams float64, material, quality string) (Request, []UnknownKeyFallback) {
	var fallbacks []UnknownKeyFallback

	m, ok := ParseMaterial(material)
	if !ok {
		fallbacks = append(fallbacks, UnknownKeyFallback{Kind: "material", Key: material, Default: string(m)})
	}
	q, ok := estimate.ParseQualityPreset(quality)
	if !ok {
		fallbacks = append(fallbacks, UnknownKeyFallback{Kind: "quality preset", Key: quality, Default: string(q)})
	}

	return Request{
		PrintTimeMinutes:   printTimeMinutes,
		MaterialUsageGrams: materialUsageGrams,
		Material:           m,
		Quality:            q,
	}, fallbacks
}

// Breakdown contains the line items of the price calculation.
type Breakdown struct {
	MaterialCost    float64 `json:"materialCost"`
	MachineTimeCost float64 `json:"machineTimeCost"`
	SetupFee        float64 `json:"setupFee"`
	QualityFactor   float64 `json:"qualityFactor"`
}

// Result groups the rounded price with its unrounded breakdown.
type Result struct {
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Breakdown Breakdown `json:"breakdown"`
}

// Calculate prices req. It keeps no state between calls.
func Calculate(req Request) Result {
	machineTimeCost := (req.PrintTimeMinutes / 60.0) * MachineTimeCostPerHour
	materialCost := req.MaterialUsageGrams * CostPerGram(req.Material)
	factor := QualityFactor(req.Quality)

	return Result{
		Price:    round((materialCost+machineTimeCost+SetupFee)*factor, pricePlaces),
		Currency: Currency,
		Breakdown: Breakdown{
			MaterialCost:    materialCost,
			MachineTimeCost: machineTimeCost,
			SetupFee:        SetupFee,
			QualityFactor:   factor,
		},
	}
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
