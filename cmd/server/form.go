package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Simplici0/meshquote/internal/estimate"
	"github.com/Simplici0/meshquote/internal/pricing"
)

// formError reports a form value that could not be parsed at all. Range
// checks are left to estimate.PrintConfig.Validate.
type formError struct {
	Field string
	Raw   string
	Want  string
}

func (e *formError) Error() string {
	return fmt.Sprintf("%s must be %s, got %q", e.Field, e.Want, e.Raw)
}

// estimateFormValues are the non-file fields of an estimate or quote upload.
type estimateFormValues struct {
	Config   estimate.PrintConfig
	Material string
	Quality  string
	Notes    string
}

// parseEstimateFormValues fills missing fields from defaults. The raw
// material and quality keys are kept so that fallbacks can be reported.
func parseEstimateFormValues(form url.Values, defaults estimate.PrintConfig) (estimateFormValues, error) {
	values := estimateFormValues{
		Config:   defaults,
		Material: strings.TrimSpace(form.Get("material")),
		Quality:  strings.TrimSpace(form.Get("qualityPreset")),
		Notes:    strings.TrimSpace(form.Get("notes")),
	}

	var err error
	if values.Config.LayerHeight, err = parseOptionalFloat(form, "layerHeight", defaults.LayerHeight); err != nil {
		return estimateFormValues{}, err
	}
	if values.Config.InfillPercent, err = parseOptionalFloat(form, "infillPercent", defaults.InfillPercent); err != nil {
		return estimateFormValues{}, err
	}
	if values.Config.WallThickness, err = parseOptionalFloat(form, "wallThickness", defaults.WallThickness); err != nil {
		return estimateFormValues{}, err
	}

	if raw := strings.TrimSpace(form.Get("supportsEnabled")); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return estimateFormValues{}, &formError{Field: "supportsEnabled", Raw: raw, Want: "true or false"}
		}
		values.Config.SupportsEnabled = enabled
	}

	if values.Quality == "" {
		values.Quality = string(defaults.QualityPreset)
	}
	values.Config.QualityPreset, _ = estimate.ParseQualityPreset(values.Quality)

	if values.Material == "" {
		values.Material = string(pricing.PLA)
	}

	return values, nil
}

func parseOptionalFloat(form url.Values, field string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(form.Get(field))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &formError{Field: field, Raw: raw, Want: "a number"}
	}
	return value, nil
}
