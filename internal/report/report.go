// Package report renders a run's valuation results as an XLSX workbook and a
// one-page PDF summary.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/bher20/solarvalue/internal/valuation"
)

// Sheet names of the workbook.
const (
	SheetScalars = "scalars"
	SheetSites   = "sites"
	SheetHourly  = "hourly"
)

// Meta identifies the run a report belongs to.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
}

var scalarColumns = []string{
	valuation.ColUtility,
	"Joined Hours",
	"Dropped Hours (TOU)",
	"Dropped Hours (LMP)",
	valuation.ColAnnualFlat,
	valuation.ColAnnualTOU,
	valuation.ColAnnualLMP,
}

// BuildWorkbook renders the scalars, site valuations and hourly table as
// three sheets.
func BuildWorkbook(meta Meta, t *valuation.HourlyTable, v *valuation.Valuation) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetScalars); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetSites); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetHourly); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(SheetScalars, "A1", "Run")
	_ = f.SetCellValue(SheetScalars, "B1", meta.RunID)
	_ = f.SetCellValue(SheetScalars, "A2", "Generated")
	_ = f.SetCellValue(SheetScalars, "B2", meta.GeneratedAt.UTC().Format(time.RFC3339))
	if err := setRow(f, SheetScalars, 4, cells(scalarColumns)); err != nil {
		return nil, err
	}
	reports := make(map[valuation.Utility]valuation.JoinReport)
	for _, r := range t.Reports() {
		reports[r.Utility] = r
	}
	for i, s := range v.Scalars {
		r := reports[s.Utility]
		row := []interface{}{string(s.Utility), s.Hours, r.MissingTOU, r.MissingLMP, s.Flat, s.TOU, s.LMP}
		if err := setRow(f, SheetScalars, i+5, row); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, SheetSites, 1, cells(valuation.ValuationColumns)); err != nil {
		return nil, err
	}
	for i, s := range v.Sites {
		row := []interface{}{
			string(s.Site.Utility),
			s.Site.ServiceCity,
			s.Site.NEMTariff,
			s.Site.SystemSizeAC,
			s.Scalar.Flat,
			s.Scalar.TOU,
			s.Scalar.LMP,
			optional(s.NEMScalar),
			optional(s.AnnualValueNEM),
			s.AnnualValueLMP,
		}
		if err := setRow(f, SheetSites, i+2, row); err != nil {
			return nil, err
		}
	}

	if err := writeHourly(f, t); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHourly(f *excelize.File, t *valuation.HourlyTable) error {
	series := t.Series()
	header := []interface{}{valuation.ColTimestamp}
	lookups := make([]map[string]valuation.HourlyRecord, 0, len(series))
	for _, s := range series {
		header = append(header, cells(valuation.HourlyColumns(s.Configuration.Utility))...)
		m := make(map[string]valuation.HourlyRecord, len(s.Hours))
		for _, h := range s.Hours {
			m[h.Timestamp] = h
		}
		lookups = append(lookups, m)
	}
	if err := setRow(f, SheetHourly, 1, header); err != nil {
		return err
	}

	for i, ts := range t.Timestamps() {
		row := make([]interface{}, 0, len(header))
		row = append(row, ts)
		for _, m := range lookups {
			h, ok := m[ts]
			if !ok {
				row = append(row, make([]interface{}, 9)...)
				continue
			}
			flatDiff, flatOK := h.FlatVersusLMP()
			touDiff, touOK := h.TOUVersusLMP()
			row = append(row,
				h.Generation, h.FlatRate, h.TOURate, h.LMPRate,
				h.FlatValue, h.TOUValue, h.LMPValue,
				maybe(flatDiff, flatOK), maybe(touDiff, touOK),
			)
		}
		if err := setRow(f, SheetHourly, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func cells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func optional(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func maybe(v float64, ok bool) interface{} {
	if !ok {
		return nil
	}
	return v
}

// BuildSummaryPDF renders the annual scalars and per-utility site totals.
func BuildSummaryPDF(meta Meta, t *valuation.HourlyTable, v *valuation.Valuation) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Solar Generation Valuation")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Run: %s", meta.RunID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", meta.GeneratedAt.UTC().Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Sites valued: %d, skipped (no configuration): %d, unhandled NEM tariff: %d",
		len(v.Sites), v.UnmatchedSites, len(v.Warnings)))
	pdf.Ln(8)

	reports := make(map[valuation.Utility]valuation.JoinReport)
	for _, r := range t.Reports() {
		reports[r.Utility] = r
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Normalized annual value ($ per kW)")
	pdf.Ln(7)
	for _, h := range []struct {
		w float64
		s string
	}{{30, "Utility"}, {30, "Hours"}, {30, "Dropped"}, {45, "Flat Rate"}, {45, "TOU Rate"}, {45, "LMP"}} {
		pdf.CellFormat(h.w, 6, h.s, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, s := range v.Scalars {
		pdf.CellFormat(30, 6, string(s.Utility), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", s.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", reports[s.Utility].Dropped()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.4f", s.Flat), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.4f", s.TOU), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.4f", s.LMP), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Portfolio annual value ($)")
	pdf.Ln(7)
	for _, h := range []struct {
		w float64
		s string
	}{{30, "Utility"}, {30, "Sites"}, {45, "Capacity (kW AC)"}, {55, "Annual Value (NEM)"}, {55, "Annual Value (LMP)"}} {
		pdf.CellFormat(h.w, 6, h.s, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, tot := range totals(v) {
		pdf.CellFormat(30, 6, string(tot.utility), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", tot.sites), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.1f", tot.capacity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(55, 6, fmt.Sprintf("%.2f", tot.nem), "1", 0, "R", false, 0, "")
		pdf.CellFormat(55, 6, fmt.Sprintf("%.2f", tot.lmp), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type utilityTotal struct {
	utility  valuation.Utility
	sites    int
	capacity float64
	nem      float64
	lmp      float64
}

// totals sums site values per utility in scalar order. Sites without a NEM
// value contribute nothing to the NEM total.
func totals(v *valuation.Valuation) []utilityTotal {
	idx := make(map[valuation.Utility]int, len(v.Scalars))
	out := make([]utilityTotal, 0, len(v.Scalars))
	for _, s := range v.Scalars {
		idx[s.Utility] = len(out)
		out = append(out, utilityTotal{utility: s.Utility})
	}
	for _, s := range v.Sites {
		i, ok := idx[s.Site.Utility]
		if !ok {
			continue
		}
		out[i].sites++
		out[i].capacity += s.Site.SystemSizeAC
		out[i].lmp += s.AnnualValueLMP
		if s.AnnualValueNEM != nil {
			out[i].nem += *s.AnnualValueNEM
		}
	}
	return out
}
