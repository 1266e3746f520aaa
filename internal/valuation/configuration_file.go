package valuation

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bher20/solarvalue/internal/tariffsheet"
)

// configurationFile is the on-disk YAML shape:
//
//	configurations:
//	  - utility: PGE
//	    flat_rate: 0.39468
//	    tou_rate: PGE_14328
//	    lmp_node: DLAP_PGAE-APND
type configurationFile struct {
	Configurations []configurationEntry `yaml:"configurations"`
}

type configurationEntry struct {
	Utility           string  `yaml:"utility"`
	FlatRate          float64 `yaml:"flat_rate"`
	FlatRatePDF       string  `yaml:"flat_rate_pdf"`
	TOURate           string  `yaml:"tou_rate"`
	LMPNode           string  `yaml:"lmp_node"`
	GenerationProfile string  `yaml:"generation_profile"`
}

// FlatRateSource extracts a flat rate from a tariff sheet on disk.
type FlatRateSource func(path string) (float64, error)

// LoadConfigurations reads a configuration set from a YAML file. An empty
// path yields the defaults. Entries naming flat_rate_pdf take their flat rate
// from the tariff sheet; relative PDF paths resolve against the YAML file.
func LoadConfigurations(path string) (ConfigurationSet, error) {
	return loadConfigurations(path, tariffsheet.FlatRateFromPDF)
}

func loadConfigurations(path string, flatRate FlatRateSource) (ConfigurationSet, error) {
	if path == "" {
		return NewConfigurationSet(DefaultConfigurations())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigurationSet{}, fmt.Errorf("read configurations %s: %w", path, err)
	}
	return parseConfigurations(data, filepath.Dir(path), flatRate)
}

func parseConfigurations(data []byte, baseDir string, flatRate FlatRateSource) (ConfigurationSet, error) {
	var file configurationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return ConfigurationSet{}, fmt.Errorf("parse configurations: %w", err)
	}

	cfgs := make([]Configuration, 0, len(file.Configurations))
	for i, e := range file.Configurations {
		u := ParseUtility(e.Utility)
		if u == "" {
			return ConfigurationSet{}, fmt.Errorf("configuration #%d: utility is required", i+1)
		}
		c := Configuration{
			Utility:           u,
			FlatRate:          e.FlatRate,
			TOURate:           e.TOURate,
			LMPNode:           e.LMPNode,
			GenerationProfile: e.GenerationProfile,
		}
		if c.GenerationProfile == "" {
			c.GenerationProfile = ProfileColumn(u)
		}
		if e.FlatRatePDF != "" {
			pdfPath := e.FlatRatePDF
			if !filepath.IsAbs(pdfPath) {
				pdfPath = filepath.Join(baseDir, pdfPath)
			}
			rate, err := flatRate(pdfPath)
			if err != nil {
				return ConfigurationSet{}, fmt.Errorf("configuration %s: flat rate from %s: %w", u, pdfPath, err)
			}
			c.FlatRate = rate
		}
		cfgs = append(cfgs, c)
	}
	return NewConfigurationSet(cfgs)
}
