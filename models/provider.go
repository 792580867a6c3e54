package models

import (
	"fmt"
)

// ProviderID identifies one model or service a prompt can be sent to.
// The set is closed: every value has an entry in the provider registry.
type ProviderID string

const (
	ProviderLlama2     ProviderID = "meta-llama/llama-2-70b-chat"
	ProviderLlama3     ProviderID = "meta-llama/llama-3.1-405b:free"
	ProviderDeepSeekR1 ProviderID = "deepseek/deepseek-r1:free"
	ProviderGemma2     ProviderID = "google/gemma-2-9b-it:free"
	ProviderMistral7B  ProviderID = "mistralai/mistral-7b-instruct:free"

	// ProviderWebSearch is served by the web search simulation, never by a model API
	ProviderWebSearch ProviderID = "google-search"
)

// AllProviderIDs lists every known provider in declaration order
var AllProviderIDs = []ProviderID{
	ProviderLlama2,
	ProviderLlama3,
	ProviderDeepSeekR1,
	ProviderGemma2,
	ProviderMistral7B,
	ProviderWebSearch,
}

// ParseProviderID converts a raw identifier into a ProviderID
func ParseProviderID(raw string) (ProviderID, error) {
	for _, id := range AllProviderIDs {
		if string(id) == raw {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", raw)
}

// IsSimulated reports whether the provider is served without a network call
func (id ProviderID) IsSimulated() bool {
	return id == ProviderWebSearch
}

// EnergyProfile holds the known energy draw of a model.
type EnergyProfile struct {
	// WhPerKToken is the energy in Wh spent per 1000 processed tokens
	WhPerKToken float64 `json:"whPerKToken"`
}

// RegistryEntry is the static configuration of one provider
type RegistryEntry struct {
	ID          ProviderID `json:"id"`
	DisplayName string     `json:"name"`
	Description string     `json:"description"`
	Parameters  string     `json:"parameters,omitempty"`

	// Energy is nil when the provider has no known energy profile.
	// Unknown is not the same as zero.
	Energy *EnergyProfile `json:"energy,omitempty"`
}

// HasEnergyProfile reports whether energy estimates can be computed for the entry
func (e RegistryEntry) HasEnergyProfile() bool {
	return e.Energy != nil
}

// DescribeProvider returns the registry entry for id. The switch covers every
// declared ProviderID; an unknown value is a programming error.
func DescribeProvider(id ProviderID) RegistryEntry {
	switch id {
	case ProviderLlama2:
		return RegistryEntry{
			ID:          id,
			DisplayName: "Llama 2",
			Description: "Balanced performance for simple to moderate queries",
			Parameters:  "70B",
			Energy:      &EnergyProfile{WhPerKToken: 1.12},
		}
	case ProviderLlama3:
		return RegistryEntry{
			ID:          id,
			DisplayName: "Llama 3",
			Description: "Advanced capabilities for moderate complexity queries",
			Parameters:  "405B",
			Energy:      &EnergyProfile{WhPerKToken: 15.33},
		}
	case ProviderDeepSeekR1:
		return RegistryEntry{
			ID:          id,
			DisplayName: "DeepSeek R1",
			Description: "Powerful reasoning for complex queries",
			Parameters:  "671B",
			Energy:      &EnergyProfile{WhPerKToken: 2.72},
		}
	case ProviderGemma2:
		return RegistryEntry{
			ID:          id,
			DisplayName: "Gemma 2 9B",
			Description: "Small open model from Google",
			Parameters:  "9B",
		}
	case ProviderMistral7B:
		return RegistryEntry{
			ID:          id,
			DisplayName: "Mistral 7B Instruct",
			Description: "Small instruction-tuned model",
			Parameters:  "7B",
		}
	case ProviderWebSearch:
		return RegistryEntry{
			ID:          id,
			DisplayName: "Google Search",
			Description: "Fast, efficient web search for simple queries",
		}
	}
	panic(fmt.Sprintf("models: no registry entry for provider %q", string(id)))
}
