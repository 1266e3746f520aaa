package valuation

import (
	"strconv"
	"strings"
)

// TariffVersion is the net energy metering tariff a site is enrolled in.
type TariffVersion int

const (
	TariffUnknown TariffVersion = iota
	// FlatRateNEM is NEM 1.0: exports credited at the flat retail rate.
	FlatRateNEM
	// TimeOfUseNEM is NEM 2.0: exports credited at the TOU retail rate.
	TimeOfUseNEM
)

func (v TariffVersion) String() string {
	switch v {
	case FlatRateNEM:
		return "1.0"
	case TimeOfUseNEM:
		return "2.0"
	case TariffUnknown:
		return "unknown"
	}
	return "TariffVersion(" + strconv.Itoa(int(v)) + ")"
}

// ParseTariffVersion maps the interconnection record's "NEM Tariff" value to
// a version. "1", "1.0" and "2.00" are accepted; other spellings such as
// exponents, signs or hex are unknown.
func ParseTariffVersion(raw string) TariffVersion {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac := s[i+1:]
		if frac == "" || strings.Trim(frac, "0") != "" {
			return TariffUnknown
		}
		s = s[:i]
	}
	switch s {
	case "1":
		return FlatRateNEM
	case "2":
		return TimeOfUseNEM
	default:
		return TariffUnknown
	}
}

// selectNEMScalar picks the annual scalar credited under a tariff version.
func selectNEMScalar(v TariffVersion, s AnnualScalar) (float64, bool) {
	switch v {
	case FlatRateNEM:
		return s.Flat, true
	case TimeOfUseNEM:
		return s.TOU, true
	case TariffUnknown:
		return 0, false
	}
	return 0, false
}
