package pipeline

import (
	"github.com/bher20/solarvalue/internal/storage"
)

// toStorageRun converts a completed run into its persisted form.
func toStorageRun(opts Options, res *Result) storage.Run {
	run := storage.Run{
		ID:               res.RunID,
		StartedAt:        res.StartedAt.UTC(),
		FinishedAt:       res.FinishedAt.UTC(),
		SitesPath:        opts.Inputs.Sites,
		GenerationPath:   opts.Inputs.Generation,
		TOUPath:          opts.Inputs.TOU,
		LMPPath:          opts.Inputs.LMP,
		Configurations:   opts.Configurations.Len(),
		SiteCount:        len(res.Valuation.Sites),
		UnhandledTariffs: len(res.Valuation.Warnings),
		UnmatchedSites:   res.Valuation.UnmatchedSites,
	}

	dropped := make(map[string]int)
	for _, r := range res.Table.Reports() {
		dropped[string(r.Utility)] = r.Dropped()
		run.DroppedHours += r.Dropped()
	}
	for _, sc := range res.Valuation.Scalars {
		run.Scalars = append(run.Scalars, storage.ConfigurationScalar{
			RunID:        res.RunID,
			Utility:      string(sc.Utility),
			Hours:        sc.Hours,
			DroppedHours: dropped[string(sc.Utility)],
			FlatRate:     sc.Flat,
			TOURate:      sc.TOU,
			LMP:          sc.LMP,
		})
	}
	for _, sv := range res.Valuation.Sites {
		site := storage.SiteValuation{
			RunID:          res.RunID,
			Line:           sv.Site.Line,
			Utility:        string(sv.Site.Utility),
			ServiceCity:    sv.Site.ServiceCity,
			NEMTariff:      sv.Site.NEMTariff,
			SystemSizeAC:   sv.Site.SystemSizeAC,
			AnnualValueLMP: sv.AnnualValueLMP,
		}
		if sv.AnnualValueNEM != nil {
			v := *sv.AnnualValueNEM
			site.AnnualValueNEM = &v
		}
		run.Sites = append(run.Sites, site)
	}
	return run
}
