package models

// RoutingPreference is the single preference that drives a route decision
type RoutingPreference string

const (
	PreferNone       RoutingPreference = "none"
	PreferLowLatency RoutingPreference = "low-latency"
	PreferLowCost    RoutingPreference = "low-cost"
	PreferLowEnergy  RoutingPreference = "low-energy"
)

// Preferences are the user-facing flags; several may be set at once
type Preferences struct {
	LowLatency bool `json:"lowLatency"`
	LowCost    bool `json:"lowCost"`
	LowEnergy  bool `json:"lowEnergy"`
}

// Resolve picks one preference with the fixed priority latency > cost > energy > none
func (p Preferences) Resolve() RoutingPreference {
	switch {
	case p.LowLatency:
		return PreferLowLatency
	case p.LowCost:
		return PreferLowCost
	case p.LowEnergy:
		return PreferLowEnergy
	default:
		return PreferNone
	}
}
