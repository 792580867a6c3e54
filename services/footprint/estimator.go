// Package footprint estimates the energy, carbon and water cost of one provider call.
package footprint

import (
	"strings"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services"
)

const (
	// directWaterPerKWh is cooling water consumed on site, liters per kWh
	directWaterPerKWh = 1.2
	// indirectWaterBase and indirectWaterPerIntensity model water used by power generation
	indirectWaterBase         = 0.3
	indirectWaterPerIntensity = 3.0
)

// Footprint is the estimated impact of one result. Nil fields mean unknown.
type Footprint struct {
	EnergyWh    *float64 `json:"energyWh,omitempty"`
	CO2Grams    *float64 `json:"co2Grams,omitempty"`
	WaterLiters *float64 `json:"waterLiters,omitempty"`
	CO2Level    string   `json:"co2Impact,omitempty"`
	WaterLevel  string   `json:"waterImpact,omitempty"`
}

// Known reports whether the energy could be estimated
func (f Footprint) Known() bool {
	return f.EnergyWh != nil
}

// Estimator looks up regions and derives footprints
type Estimator struct {
	regions       map[string]Region
	defaultRegion Region
}

// NewEstimator builds an estimator whose fallback region is defaultRegion ("" means Global Average)
func NewEstimator(defaultRegion string) (*Estimator, error) {
	e := &Estimator{regions: make(map[string]Region, len(regionTable))}
	for _, r := range regionTable {
		e.regions[strings.ToLower(r.Name)] = r
	}

	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	r, ok := e.regions[strings.ToLower(defaultRegion)]
	if !ok {
		return nil, services.NewValidationError("Unknown region").WithDetail("region", defaultRegion)
	}
	e.defaultRegion = r
	return e, nil
}

// Regions returns the region table in display order
func (e *Estimator) Regions() []Region {
	out := make([]Region, len(regionTable))
	copy(out, regionTable)
	return out
}

// DefaultRegion returns the fallback region
func (e *Estimator) DefaultRegion() Region {
	return e.defaultRegion
}

// Region resolves a region by name, case-insensitively. An empty name yields the default.
func (e *Estimator) Region(name string) (Region, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return e.defaultRegion, nil
	}
	r, ok := e.regions[strings.ToLower(name)]
	if !ok {
		err := services.NewDomainError(services.ErrorTypeValidation, services.ErrUnknownRegion.Message, nil)
		return Region{}, err.WithDetail("region", name)
	}
	return r, nil
}

// EnergyWh estimates the energy of a call from its token counts.
// ok is false when the provider has no energy profile.
func EnergyWh(id models.ProviderID, inputTokens, outputTokens int) (wh float64, ok bool) {
	entry := models.DescribeProvider(id)
	if !entry.HasEnergyProfile() {
		return 0, false
	}
	return float64(inputTokens+outputTokens) / 1000 * entry.Energy.WhPerKToken, true
}

// Estimate derives the footprint of a result in a region.
// Failed results and providers without an energy profile yield an empty footprint.
func (e *Estimator) Estimate(result models.ProviderResult, region Region) Footprint {
	if result.Failed() {
		return Footprint{}
	}
	wh, ok := EnergyWh(result.ProviderID, result.InputTokens, result.OutputTokens)
	if !ok {
		return Footprint{}
	}
	return Compute(wh, region.Intensity)
}

// Compute derives carbon and water from an energy figure and a grid intensity
func Compute(energyWh, intensity float64) Footprint {
	kwh := energyWh / 1000
	co2 := kwh * intensity
	water := kwh*directWaterPerKWh + kwh*(indirectWaterBase+indirectWaterPerIntensity*intensity/1000)

	return Footprint{
		EnergyWh:    &energyWh,
		CO2Grams:    &co2,
		WaterLiters: &water,
		CO2Level:    co2Level(co2),
		WaterLevel:  waterLevel(water),
	}
}

func co2Level(grams float64) string {
	switch {
	case grams < 0.1:
		return "Very Low"
	case grams < 0.5:
		return "Low"
	case grams < 1:
		return "Moderate"
	case grams < 5:
		return "High"
	default:
		return "Very High"
	}
}

func waterLevel(liters float64) string {
	switch {
	case liters < 0.001:
		return "Very Low"
	case liters < 0.005:
		return "Low"
	case liters < 0.01:
		return "Moderate"
	case liters < 0.05:
		return "High"
	default:
		return "Very High"
	}
}
