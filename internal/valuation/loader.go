package valuation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Loader reads and validates the four input tables. It never imputes: a
// missing or malformed value fails the load.
type Loader struct {
	log logrus.FieldLogger
}

// NewLoader returns a Loader that logs through log.
func NewLoader(log logrus.FieldLogger) *Loader {
	return &Loader{log: log}
}

// Load reads all four inputs. Only the generation and TOU columns referenced
// by configs are parsed; other columns in those files are ignored.
func (l *Loader) Load(paths InputPaths, configs ConfigurationSet) (*Inputs, error) {
	sites, err := l.LoadSites(paths.Sites)
	if err != nil {
		return nil, err
	}
	gen, err := l.LoadGeneration(paths.Generation, configs.generationColumns())
	if err != nil {
		return nil, err
	}
	tou, err := l.LoadTOU(paths.TOU, configs.touColumns())
	if err != nil {
		return nil, err
	}
	lmp, err := l.LoadLMP(paths.LMP)
	if err != nil {
		return nil, err
	}
	return &Inputs{Sites: sites, Generation: gen, TOU: tou, LMP: lmp}, nil
}

// LoadSites reads the site registry at path.
func (l *Loader) LoadSites(path string) ([]Site, error) {
	var sites []Site
	err := l.withFile(InputSites, path, func(r io.Reader) error {
		var err error
		sites, err = ReadSites(r)
		return err
	})
	if err != nil {
		return nil, err
	}
	l.log.WithFields(logrus.Fields{"path": path, "sites": len(sites)}).Info("loader: sites loaded")
	return sites, nil
}

// LoadGeneration reads the generation profiles at path.
func (l *Loader) LoadGeneration(path string, profiles []string) (GenerationTable, error) {
	var t GenerationTable
	err := l.withFile(InputGeneration, path, func(r io.Reader) error {
		var err error
		t, err = ReadGeneration(r, profiles)
		return err
	})
	if err != nil {
		return GenerationTable{}, err
	}
	l.log.WithFields(logrus.Fields{"path": path, "hours": t.Len()}).Info("loader: generation loaded")
	return t, nil
}

// LoadTOU reads the TOU rate table at path.
func (l *Loader) LoadTOU(path string, schedules []string) (TOUTable, error) {
	var t TOUTable
	err := l.withFile(InputTOU, path, func(r io.Reader) error {
		var err error
		t, err = ReadTOU(r, schedules)
		return err
	})
	if err != nil {
		return TOUTable{}, err
	}
	l.log.WithFields(logrus.Fields{"path": path, "hours": t.Len()}).Info("loader: tou rates loaded")
	return t, nil
}

// LoadLMP reads the LMP table at path.
func (l *Loader) LoadLMP(path string) (LMPTable, error) {
	var t LMPTable
	err := l.withFile(InputLMP, path, func(r io.Reader) error {
		var err error
		t, err = ReadLMP(r)
		return err
	})
	if err != nil {
		return LMPTable{}, err
	}
	l.log.WithFields(logrus.Fields{"path": path, "rows": t.Len()}).Info("loader: lmps loaded")
	return t, nil
}

func (l *Loader) withFile(input, path string, fn func(io.Reader) error) error {
	if path == "" {
		return &MissingInputError{Input: input, Path: path, Err: errors.New("no path configured")}
	}
	st, err := os.Stat(path)
	if err != nil {
		return &MissingInputError{Input: input, Path: path, Err: err}
	}
	if st.IsDir() {
		return &MissingInputError{Input: input, Path: path, Err: errors.New("is a directory")}
	}
	f, err := os.Open(path)
	if err != nil {
		return &MissingInputError{Input: input, Path: path, Err: err}
	}
	defer f.Close()
	return fn(f)
}

// ReadSites parses a site registry.
func ReadSites(r io.Reader) ([]Site, error) {
	cr, header, err := openCSV(InputSites, r)
	if err != nil {
		return nil, err
	}
	if err := header.require(InputSites, ColUtility, ColNEMTariff, ColSystemSizeAC); err != nil {
		return nil, err
	}
	cityIdx, hasCity := header[ColServiceCity]

	var sites []Site
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(InputSites, err)
		}
		line, _ := cr.FieldPos(0)

		utility := ParseUtility(rec[header[ColUtility]])
		if utility == "" {
			return nil, &SchemaError{Input: InputSites, Column: ColUtility, Line: line, Reason: "empty value"}
		}
		size, err := parseFloat(InputSites, ColSystemSizeAC, line, rec[header[ColSystemSizeAC]])
		if err != nil {
			return nil, err
		}
		tariff := strings.TrimSpace(rec[header[ColNEMTariff]])
		s := Site{
			Line:         line,
			Utility:      utility,
			NEMTariff:    tariff,
			Tariff:       ParseTariffVersion(tariff),
			SystemSizeAC: size,
		}
		if hasCity {
			s.ServiceCity = strings.TrimSpace(rec[cityIdx])
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// ReadGeneration parses a generation table, keeping only the listed profile
// columns that are present in the file.
func ReadGeneration(r io.Reader, profiles []string) (GenerationTable, error) {
	t, err := readSeries(InputGeneration, r, profiles)
	if err != nil {
		return GenerationTable{}, err
	}
	return GenerationTable{t}, nil
}

// ReadTOU parses a TOU table, keeping only the listed rate schedule columns
// that are present in the file.
func ReadTOU(r io.Reader, schedules []string) (TOUTable, error) {
	t, err := readSeries(InputTOU, r, schedules)
	if err != nil {
		return TOUTable{}, err
	}
	return TOUTable{t}, nil
}

func readSeries(input string, r io.Reader, wanted []string) (seriesTable, error) {
	cr, header, err := openCSV(input, r)
	if err != nil {
		return seriesTable{}, err
	}
	if err := header.require(input, ColTimestamp); err != nil {
		return seriesTable{}, err
	}

	// Absent columns are left for the joiner to report against the
	// configuration that needs them.
	type column struct {
		name string
		idx  int
	}
	var cols []column
	picked := make(map[string]bool)
	for _, name := range wanted {
		if picked[name] {
			continue
		}
		picked[name] = true
		if idx, ok := header[name]; ok {
			cols = append(cols, column{name: name, idx: idx})
		}
	}

	t := seriesTable{columns: make(map[string][]float64, len(cols))}
	seen := make(map[string]int)
	tsIdx := header[ColTimestamp]
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return seriesTable{}, csvError(input, err)
		}
		line, _ := cr.FieldPos(0)

		ts := strings.TrimSpace(rec[tsIdx])
		if ts == "" {
			return seriesTable{}, &SchemaError{Input: input, Column: ColTimestamp, Line: line, Reason: "empty value"}
		}
		if prev, dup := seen[ts]; dup {
			return seriesTable{}, &SchemaError{
				Input:  input,
				Column: ColTimestamp,
				Line:   line,
				Reason: fmt.Sprintf("duplicate timestamp %q (first on line %d)", ts, prev),
			}
		}
		seen[ts] = line
		t.timestamps = append(t.timestamps, ts)

		for _, c := range cols {
			v, err := parseFloat(input, c.name, line, rec[c.idx])
			if err != nil {
				return seriesTable{}, err
			}
			t.columns[c.name] = append(t.columns[c.name], v)
		}
	}
	// A header-only file still exposes its columns.
	for _, c := range cols {
		if _, ok := t.columns[c.name]; !ok {
			t.columns[c.name] = nil
		}
	}
	return t, nil
}

// ReadLMP parses an LMP table.
func ReadLMP(r io.Reader) (LMPTable, error) {
	cr, header, err := openCSV(InputLMP, r)
	if err != nil {
		return LMPTable{}, err
	}
	if err := header.require(InputLMP, ColTimestamp, ColNodeID, ColLMPType, ColMW); err != nil {
		return LMPTable{}, err
	}

	var t LMPTable
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return LMPTable{}, csvError(InputLMP, err)
		}
		line, _ := cr.FieldPos(0)

		ts := strings.TrimSpace(rec[header[ColTimestamp]])
		if ts == "" {
			return LMPTable{}, &SchemaError{Input: InputLMP, Column: ColTimestamp, Line: line, Reason: "empty value"}
		}
		mw, err := parseFloat(InputLMP, ColMW, line, rec[header[ColMW]])
		if err != nil {
			return LMPTable{}, err
		}
		t.rows = append(t.rows, LMPRow{
			Line:      line,
			Timestamp: ts,
			NodeID:    strings.TrimSpace(rec[header[ColNodeID]]),
			LMPType:   strings.TrimSpace(rec[header[ColLMPType]]),
			MW:        mw,
		})
	}
	return t, nil
}

type csvHeader map[string]int

func (h csvHeader) require(input string, cols ...string) error {
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			return &SchemaError{Input: input, Column: c, Reason: "required column missing"}
		}
	}
	return nil
}

func openCSV(input string, r io.Reader) (*csv.Reader, csvHeader, error) {
	cr := csv.NewReader(r)
	names, err := cr.Read()
	if err == io.EOF {
		return nil, nil, &SchemaError{Input: input, Reason: "empty file, header row expected"}
	}
	if err != nil {
		return nil, nil, csvError(input, err)
	}
	header := make(csvHeader, len(names))
	for i, n := range names {
		if i == 0 {
			n = strings.TrimPrefix(n, "\ufeff")
		}
		n = strings.TrimSpace(n)
		if _, dup := header[n]; dup {
			return nil, nil, &SchemaError{Input: input, Column: n, Line: 1, Reason: "duplicate column"}
		}
		header[n] = i
	}
	return cr, header, nil
}

func csvError(input string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &SchemaError{Input: input, Line: pe.Line, Reason: pe.Err.Error()}
	}
	return fmt.Errorf("%s input: %w", input, err)
}

func parseFloat(input, col string, line int, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, &SchemaError{Input: input, Column: col, Line: line, Reason: "empty value"}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &SchemaError{Input: input, Column: col, Line: line, Reason: fmt.Sprintf("not a number: %q", s)}
	}
	// ParseFloat accepts NaN and Inf spellings.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &SchemaError{Input: input, Column: col, Line: line, Reason: fmt.Sprintf("not a finite number: %q", s)}
	}
	return v, nil
}
