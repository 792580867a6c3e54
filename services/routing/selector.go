// Package routing maps a complexity label and a routing preference to one provider.
package routing

import (
	"fmt"

	"github.com/upb/llm-footprint/models"
)

// Route holds the provider chosen for each preference at one complexity level
type Route struct {
	Default    models.ProviderID
	LowLatency models.ProviderID
	LowCost    models.ProviderID
	LowEnergy  models.ProviderID
}

// pick returns the provider for a preference
func (r Route) pick(pref models.RoutingPreference) models.ProviderID {
	switch pref {
	case models.PreferLowLatency:
		return r.LowLatency
	case models.PreferLowCost:
		return r.LowCost
	case models.PreferLowEnergy:
		return r.LowEnergy
	default:
		return r.Default
	}
}

// routeTable is the static decision table. Every complexity level has an entry.
var routeTable = map[models.Complexity]Route{
	models.ComplexityVerySimple: {
		Default:    models.ProviderWebSearch,
		LowLatency: models.ProviderWebSearch,
		LowCost:    models.ProviderWebSearch,
		LowEnergy:  models.ProviderWebSearch,
	},
	models.ComplexitySimple: {
		Default:    models.ProviderLlama2,
		LowLatency: models.ProviderLlama2,
		LowCost:    models.ProviderLlama2,
		LowEnergy:  models.ProviderLlama2,
	},
	models.ComplexityModerate: {
		Default:    models.ProviderLlama3,
		LowLatency: models.ProviderLlama2,
		LowCost:    models.ProviderLlama2,
		LowEnergy:  models.ProviderLlama2,
	},
	models.ComplexityComplex: {
		Default:    models.ProviderDeepSeekR1,
		LowLatency: models.ProviderLlama3,
		LowCost:    models.ProviderLlama3,
		LowEnergy:  models.ProviderLlama3,
	},
	models.ComplexityVeryComplex: {
		Default:    models.ProviderDeepSeekR1,
		LowLatency: models.ProviderDeepSeekR1,
		LowCost:    models.ProviderLlama3,
		LowEnergy:  models.ProviderLlama3,
	},
}

// SelectRoute returns the provider for a validated complexity and a preference.
// Labels are validated by the classifier, so an unknown complexity panics.
func SelectRoute(complexity models.Complexity, pref models.RoutingPreference) models.ProviderID {
	route, ok := routeTable[complexity]
	if !ok {
		panic(fmt.Sprintf("routing: no route for %s", complexity))
	}
	return route.pick(pref)
}

// ResolvePreference applies the fixed priority latency > cost > energy > none
func ResolvePreference(prefs models.Preferences) models.RoutingPreference {
	return prefs.Resolve()
}

var preferenceSentences = map[models.RoutingPreference]string{
	models.PreferLowLatency: "Low latency was prioritized.",
	models.PreferLowCost:    "Low cost was prioritized.",
	models.PreferLowEnergy:  "Low energy usage was prioritized.",
	models.PreferNone:       "No specific preferences were prioritized.",
}

// PreferenceReasoning explains the preference that drove a decision
func PreferenceReasoning(pref models.RoutingPreference) string {
	if s, ok := preferenceSentences[pref]; ok {
		return s
	}
	return preferenceSentences[models.PreferNone]
}

// Reasoning joins the classifier rationale with the preference sentence
func Reasoning(rationale string, pref models.RoutingPreference) string {
	return rationale + " " + PreferenceReasoning(pref)
}
