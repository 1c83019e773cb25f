package venue

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile configures the simulated behaviour of one venue.
type Profile struct {
	Venue     string  `yaml:"venue"`
	BasePrice float64 `yaml:"base_price"`
	// Quoted price is BasePrice multiplied by a uniform draw from
	// [price_min_mult, price_max_mult).
	PriceMinMult      float64 `yaml:"price_min_mult"`
	PriceMaxMult      float64 `yaml:"price_max_mult"`
	Fee               float64 `yaml:"fee"`
	QuoteLatencyMinMs int     `yaml:"quote_latency_min_ms"`
	QuoteLatencyMaxMs int     `yaml:"quote_latency_max_ms"`
	SwapLatencyMinMs  int     `yaml:"swap_latency_min_ms"`
	SwapLatencyMaxMs  int     `yaml:"swap_latency_max_ms"`
	SwapFailureRate   float64 `yaml:"swap_failure_rate"`
	// Executed price drifts below the quoted price by up to this fraction.
	MaxSlippage float64 `yaml:"max_slippage"`
}

type profileFile struct {
	Venues []Profile `yaml:"venues"`
}

// DefaultProfiles returns the built-in Raydium and Meteora simulation
// parameters.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Venue:             string(Raydium),
			BasePrice:         100.0,
			PriceMinMult:      0.98,
			PriceMaxMult:      1.02,
			Fee:               0.003,
			QuoteLatencyMinMs: 150,
			QuoteLatencyMaxMs: 250,
			SwapLatencyMinMs:  300,
			SwapLatencyMaxMs:  800,
			SwapFailureRate:   0.05,
			MaxSlippage:       0.01,
		},
		{
			Venue:             string(Meteora),
			BasePrice:         100.0,
			PriceMinMult:      0.97,
			PriceMaxMult:      1.02,
			Fee:               0.002,
			QuoteLatencyMinMs: 180,
			QuoteLatencyMaxMs: 300,
			SwapLatencyMinMs:  300,
			SwapLatencyMaxMs:  800,
			SwapFailureRate:   0.05,
			MaxSlippage:       0.01,
		},
	}
}

// LoadProfiles reads venue simulation profiles from a YAML file.
func LoadProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venue profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse venue profiles: %w", err)
	}
	if len(file.Venues) == 0 {
		return nil, fmt.Errorf("venue profiles %s: no venues defined", path)
	}
	return file.Venues, nil
}
