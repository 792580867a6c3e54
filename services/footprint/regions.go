package footprint

// DefaultRegion is used when a request names no region
const DefaultRegion = "Global Average"

// Region is a named grid carbon intensity
type Region struct {
	Name string `json:"name"`
	// Intensity is in gCO2e per kWh
	Intensity float64 `json:"co2Intensity"`
}

// regionTable lists grid intensities by country, in display order
var regionTable = []Region{
	{Name: "Switzerland", Intensity: 24},
	{Name: "United States of America", Intensity: 379},
	{Name: "Japan", Intensity: 474},
	{Name: "Singapore", Intensity: 408},
	{Name: "U.K. of Great Britain and Northern Ireland", Intensity: 231},
	{Name: "Republic of Korea", Intensity: 415},
	{Name: "New Zealand", Intensity: 138},
	{Name: "Norway", Intensity: 26},
	{Name: "Germany", Intensity: 350},
	{Name: "Indonesia", Intensity: 722},
	{Name: "Australia", Intensity: 505},
	{Name: "Sweden", Intensity: 13},
	{Name: "Denmark", Intensity: 135},
	{Name: "Malaysia", Intensity: 585},
	{Name: "Uruguay", Intensity: 25},
	{Name: "Netherlands", Intensity: 328},
	{Name: "France", Intensity: 56},
	{Name: "Spain", Intensity: 172},
	{Name: "Canada", Intensity: 120},
	{Name: "Ireland", Intensity: 296},
	{Name: "Italy", Intensity: 256},
	{Name: "Austria", Intensity: 109},
	{Name: "Turkey", Intensity: 464},
	{Name: "Brazil", Intensity: 74},
	{Name: "Chile", Intensity: 412},
	{Name: "United Arab Emirates", Intensity: 410},
	{Name: "South Africa", Intensity: 928},
	{Name: "Kenya", Intensity: 156},
	{Name: "Mexico", Intensity: 454},
	{Name: "Greece", Intensity: 311},
	{Name: "China", Intensity: 577},
	{Name: "India", Intensity: 708},
	{Name: "Poland", Intensity: 751},
	{Name: "Colombia", Intensity: 176},
	{Name: DefaultRegion, Intensity: 463},
}
