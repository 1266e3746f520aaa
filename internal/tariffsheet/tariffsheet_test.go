package tariffsheet

import (
	"errors"
	"testing"
)

func TestFlatRateFromText_MiddleTier(t *testing.T) {
	sample := `
RESIDENTIAL SERVICE - SCHEDULE E-1
Total Energy Rates ($ per kWh)
Tier 1 (Baseline)         $0.32738 per kWh
Tier 2 (101%-400% of Baseline) $0.39468 per kWh
Tier 3 (High Usage)       $0.49327 per kWh
`
	rate, err := FlatRateFromText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 0.39468 {
		t.Errorf("unexpected flat rate: %v", rate)
	}
}

func TestFlatRateFromText_EvenTierCountUsesLowerMiddle(t *testing.T) {
	sample := `Tier 2: $0.20/kWh
Tier 1: $0.10/kWh
Tier 4: $0.40/kWh
Tier 3: $0.30/kWh`
	rate, err := FlatRateFromText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rate != 0.20 {
		t.Errorf("expected tier 2 rate 0.20, got %v", rate)
	}
}

func TestParseTiers_FirstOccurrenceWins(t *testing.T) {
	sample := `Tier 1 $0.11 per kWh
Tier 1 $0.99 per kWh
Tier 2 $0.22 per kWh`
	tiers := ParseTiers(sample)
	if len(tiers) != 2 {
		t.Fatalf("expected 2 tiers, got %+v", tiers)
	}
	if tiers[0].RatePerKWh != 0.11 {
		t.Errorf("expected first tier 1 occurrence, got %v", tiers[0].RatePerKWh)
	}
}

func TestFlatRateFromText_NoTiers(t *testing.T) {
	_, err := FlatRateFromText("Customer Charge: $10.00 per month")
	if !errors.Is(err, ErrNoTiers) {
		t.Fatalf("expected ErrNoTiers, got %v", err)
	}
}
