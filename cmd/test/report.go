package main

import (
	"fmt"
	"sort"

	"econ-observer/src/models"
)

// printBundle dumps a human-readable digest of an analysis run to stdout.
func printBundle(bundle *models.MResultBundle) {
	fmt.Printf("\n=== Run %s (%s) ===\n", bundle.RunID, bundle.Elapsed.Round(1e6))
	fmt.Printf("Panel: %d rows, %d series, %s -> %s (%s)\n",
		bundle.Panel.Rows, len(bundle.Panel.SeriesIDs),
		bundle.Panel.Start.Format("2006-01-02"), bundle.Panel.End.Format("2006-01-02"),
		bundle.Panel.Frequency)

	fmt.Println("\n--- Stationarity ---")
	for _, v := range bundle.Stationarity {
		fmt.Printf("  %-18s %-15s (suggested d=%d, ADF p=%.4f, KPSS p=%.4f)\n",
			v.SeriesID, v.Label, v.SuggestedD, v.ADF.PValue, v.KPSS.PValue)
	}

	for _, m := range bundle.Correlations {
		if m.Method != "pearson" {
			continue
		}
		fmt.Println("\n--- Pearson correlations ---")
		for i, a := range m.SeriesIDs {
			for j, b := range m.SeriesIDs {
				if j <= i {
					continue
				}
				fmt.Printf("  %-18s x %-18s %+.3f\n", a, b, m.Matrix[i][j])
			}
		}
	}

	if len(bundle.Granger) > 0 {
		fmt.Println("\n--- Granger (significant only) ---")
		for _, g := range bundle.Granger {
			if g.Significant {
				fmt.Printf("  %s -> %s at lag %d (F=%.2f, p=%.4f)\n",
					g.Cause, g.Effect, g.MinimalLag, g.FStatistic, g.PValue)
			}
		}
	}

	if bundle.PCA != nil {
		fmt.Println("\n--- PCA ---")
		fmt.Printf("  %d components, explained ratios %v\n", bundle.PCA.Components, bundle.PCA.ExplainedRatios)
	}

	fmt.Println("\n--- Forecasts ---")
	for _, f := range bundle.Forecasts {
		if f.Failed {
			fmt.Printf("  %-18s FAILED: %s\n", f.SeriesID, f.FailReason)
			continue
		}
		line := fmt.Sprintf("  %-18s family=%-5s state=%s aic=%.2f", f.SeriesID, f.Family, f.State, f.Metrics["aic"])
		if f.Backtest != nil {
			line += fmt.Sprintf(" backtest MAPE=%.2f%%", f.Backtest.MAPE)
		}
		fmt.Println(line)
		for _, w := range f.Warnings {
			fmt.Printf("      warning: %s\n", w)
		}
	}

	fmt.Println("\n--- Clusters ---")
	for _, c := range bundle.Clusters {
		fmt.Printf("  mode=%-7s algo=%-12s k=%d (recommended %d), silhouette[k]=%.3f\n",
			c.Mode, c.Algorithm, c.K, c.BestByCurve, c.Silhouette[c.K])
		if c.Mode == "series" {
			ids := make([]string, 0, len(c.Labels))
			for id := range c.Labels {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Printf("      %-18s -> cluster %d\n", id, c.Labels[id])
			}
		}
	}

	fmt.Println("\n--- Findings ---")
	for _, f := range bundle.Findings {
		fmt.Printf("  [%d] (%s) %s\n", f.Rank, severityName(f.Severity), f.Message)
	}
	fmt.Println()
}

// -----------------------------------------------------------------------------

func severityName(s int) string {
	switch s {
	case models.SeverityCritical:
		return "critical"
	case models.SeverityNotable:
		return "notable"
	default:
		return "info"
	}
}
