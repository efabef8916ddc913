package report

import (
	"sort"
	"strings"

	"github.com/bayanwatch/patrol-server/internal/models"
)

// BarangayResolver resolves a bare barangay name to its owning
// municipality, typically backed by the reference catalog.
type BarangayResolver interface {
	MunicipalityOf(barangay string) (string, bool)
}

// ResolverFunc adapts a lookup function to BarangayResolver.
type ResolverFunc func(barangay string) (string, bool)

func (f ResolverFunc) MunicipalityOf(barangay string) (string, bool) { return f(barangay) }

const topN = 5

// Summarize aggregates the store into totals, rates, and top-5
// breakdowns. An empty municipality filter includes everything.
// Malformed (nil) entries are skipped rather than failing the whole
// aggregation, and an empty store yields an all-zero summary.
func (s *Store) Summarize(municipality string, resolver BarangayResolver) models.Summary {
	var sum models.Summary
	concernCounts := make(map[string]int)
	barangayCounts := make(map[string]int)
	withAction := 0
	withRemarks := 0

	for _, entries := range s.Data {
		for _, e := range entries {
			if e == nil {
				continue
			}
			if municipality != "" && !matchesMunicipality(e.Barangay, municipality, resolver) {
				continue
			}
			sum.TotalEntries++
			for w := 1; w <= 4; w++ {
				sum.WeekTotals[w-1] += e.Week(w).Num()
			}
			if name := strings.TrimSpace(e.ConcernType); name != "" {
				concernCounts[name]++
			}
			if name := strings.TrimSpace(e.Barangay); name != "" {
				barangayCounts[name]++
			}
			if strings.TrimSpace(e.ActionTaken) != "" {
				withAction++
			}
			if strings.TrimSpace(e.Remarks) != "" {
				withRemarks++
			}
		}
	}

	sum.UniqueConcerns = len(concernCounts)
	sum.UniqueBarangay = len(barangayCounts)
	if sum.TotalEntries > 0 {
		sum.CompletionRate = float64(withAction) / float64(sum.TotalEntries)
		sum.RemarksRate = float64(withRemarks) / float64(sum.TotalEntries)
	}
	sum.TopConcerns = topCounts(concernCounts)
	sum.TopBarangays = topCounts(barangayCounts)
	return sum
}

// matchesMunicipality resolves a barangay string to its municipality
// using three strategies in order: the ", Municipality" suffix, a
// "(Municipality)" parenthesized suffix, then a catalog lookup by bare
// name. First hit wins.
func matchesMunicipality(barangay, municipality string, resolver BarangayResolver) bool {
	barangay = strings.TrimSpace(barangay)
	if barangay == "" {
		return false
	}

	if parts := strings.Split(barangay, ", "); len(parts) >= 2 {
		return strings.EqualFold(strings.TrimSpace(parts[1]), municipality)
	}

	if open := strings.LastIndex(barangay, "("); open >= 0 {
		if close := strings.Index(barangay[open:], ")"); close > 0 {
			inner := strings.TrimSpace(barangay[open+1 : open+close])
			if inner != "" {
				return strings.EqualFold(inner, municipality)
			}
		}
	}

	if resolver != nil {
		if owner, ok := resolver.MunicipalityOf(barangay); ok {
			return strings.EqualFold(owner, municipality)
		}
	}
	return false
}

func topCounts(counts map[string]int) []models.NameCount {
	ranked := make([]models.NameCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, models.NameCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
