// Package tariffsheet extracts tiered energy charges from utility tariff
// sheets so a flat rate can be derived from the published schedule.
package tariffsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"

	pdf "github.com/ledongthuc/pdf"
)

// ErrNoTiers is returned when a sheet has no recognizable tier charges.
var ErrNoTiers = errors.New("no tiered energy charges found")

// Tier is one block of a tiered residential energy charge.
type Tier struct {
	Number     int
	RatePerKWh float64
}

var tierRe = regexp.MustCompile(`(?i)tier\s*(\d+)[^$\n]*\$\s*(\d*\.\d+|\d+)\s*(?:per|/)\s*kwh`)

// FlatRateFromPDF opens a tariff sheet PDF, extracts its text and returns
// the middle tier's energy charge.
func FlatRateFromPDF(path string) (float64, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return 0, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return 0, fmt.Errorf("read pdf text: %w", err)
	}

	return FlatRateFromText(buf.String())
}

// FlatRateFromText returns the middle tier's energy charge in $/kWh. With an
// even number of tiers the lower of the two middle tiers is used.
func FlatRateFromText(text string) (float64, error) {
	tiers := ParseTiers(text)
	if len(tiers) == 0 {
		return 0, ErrNoTiers
	}
	return tiers[(len(tiers)-1)/2].RatePerKWh, nil
}

// ParseTiers returns the tier charges found in text ordered by tier number.
// When a tier appears more than once the first occurrence wins.
func ParseTiers(text string) []Tier {
	seen := make(map[int]bool)
	var tiers []Tier
	for _, m := range tierRe.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		rate, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		seen[n] = true
		tiers = append(tiers, Tier{Number: n, RatePerKWh: rate})
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Number < tiers[j].Number })
	return tiers
}
