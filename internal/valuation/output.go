package valuation

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Output column names of the valuation table.
const (
	ColAnnualFlat     = "Normalized Annual Value (Flat Rate)"
	ColAnnualTOU      = "Normalized Annual Value (TOU Rate)"
	ColAnnualLMP      = "Normalized Annual Value (LMP)"
	ColAnnualNEM      = "Normalized Annual Value (NEM)"
	ColAnnualValueNEM = "Annual Value (NEM)"
	ColAnnualValueLMP = "Annual Value (LMP)"
)

// HourlyColumns returns the normalized output columns for one utility.
func HourlyColumns(u Utility) []string {
	p := string(u) + " "
	return []string{
		p + "Normalized Generation",
		p + "Flat Rate ($/kW)",
		p + "TOU Rate ($/kW)",
		p + "LMP ($/kW)",
		p + "Normalized Value (Flat Rate)",
		p + "Normalized Value (TOU Rate)",
		p + "Normalized Value (LMP)",
		p + "% Difference (Flat Rate vs. LMP)",
		p + "% Difference (TOU Rate vs. LMP)",
	}
}

// ValuationColumns is the header of the site valuation table.
var ValuationColumns = []string{
	ColUtility,
	ColServiceCity,
	ColNEMTariff,
	ColSystemSizeAC,
	ColAnnualFlat,
	ColAnnualTOU,
	ColAnnualLMP,
	ColAnnualNEM,
	ColAnnualValueNEM,
	ColAnnualValueLMP,
}

// FormatFloat renders a value with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}

func formatPercent(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return FormatFloat(v)
}

// HourlyRows renders the normalized table as rows of cells, header first.
// Hours a configuration dropped are empty cells in its columns.
func HourlyRows(t *HourlyTable) [][]string {
	header := []string{ColTimestamp}
	lookups := make([]map[string]HourlyRecord, 0, len(t.series))
	for _, s := range t.series {
		header = append(header, HourlyColumns(s.Configuration.Utility)...)
		m := make(map[string]HourlyRecord, len(s.Hours))
		for _, h := range s.Hours {
			m[h.Timestamp] = h
		}
		lookups = append(lookups, m)
	}

	rows := make([][]string, 0, len(t.timestamps)+1)
	rows = append(rows, header)
	for _, ts := range t.timestamps {
		row := make([]string, 0, len(header))
		row = append(row, ts)
		for _, m := range lookups {
			h, ok := m[ts]
			if !ok {
				row = append(row, make([]string, 9)...)
				continue
			}
			row = append(row,
				FormatFloat(h.Generation),
				FormatFloat(h.FlatRate),
				FormatFloat(h.TOURate),
				FormatFloat(h.LMPRate),
				FormatFloat(h.FlatValue),
				FormatFloat(h.TOUValue),
				FormatFloat(h.LMPValue),
				formatPercent(h.FlatVersusLMP()),
				formatPercent(h.TOUVersusLMP()),
			)
		}
		rows = append(rows, row)
	}
	return rows
}

// ValuationRows renders the site valuation table as rows of cells, header
// first.
func ValuationRows(v *Valuation) [][]string {
	rows := make([][]string, 0, len(v.Sites)+1)
	rows = append(rows, ValuationColumns)
	for _, s := range v.Sites {
		rows = append(rows, []string{
			string(s.Site.Utility),
			s.Site.ServiceCity,
			s.Site.NEMTariff,
			FormatFloat(s.Site.SystemSizeAC),
			FormatFloat(s.Scalar.Flat),
			FormatFloat(s.Scalar.TOU),
			FormatFloat(s.Scalar.LMP),
			formatOptional(s.NEMScalar),
			formatOptional(s.AnnualValueNEM),
			FormatFloat(s.AnnualValueLMP),
		})
	}
	return rows
}

// WriteHourlyCSV writes the normalized-value-by-configuration table.
func WriteHourlyCSV(w io.Writer, t *HourlyTable) error {
	return writeCSV(w, HourlyRows(t))
}

// WriteValuationsCSV writes the annual-site-valuation table.
func WriteValuationsCSV(w io.Writer, v *Valuation) error {
	return writeCSV(w, ValuationRows(v))
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
