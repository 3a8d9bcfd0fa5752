// Package stats computes placement statistics from processed records.
// Everything here is a pure function of its input.
package stats

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
)

// Salary bracket labels in display order.
const (
	BracketBelow3       = "Below 3 LPA"
	Bracket3To5         = "3-5 LPA"
	Bracket5To8         = "5-8 LPA"
	Bracket8To12        = "8-12 LPA"
	Bracket12To18       = "12-18 LPA"
	Bracket18To25       = "18-25 LPA"
	Bracket25Plus       = "25+ LPA"
	BracketNotDisclosed = "Not Disclosed"
)

// Brackets lists every histogram bucket in order.
var Brackets = []string{
	BracketBelow3, Bracket3To5, Bracket5To8, Bracket8To12,
	Bracket12To18, Bracket18To25, Bracket25Plus, BracketNotDisclosed,
}

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// RecruiterCount is the number of placed students hired by one company.
type RecruiterCount struct {
	Company string `json:"company"`
	Hires   int    `json:"hires"`
	// AverageSalaryLPA is the mean of the parseable salaries of this
	// company's hires, nil when none could be parsed.
	AverageSalaryLPA *float64 `json:"averageSalaryLPA,omitempty"`
	SalaryDisplay    string   `json:"salaryDisplay"`
}

// BracketCount is one salary histogram bucket.
type BracketCount struct {
	Bracket string `json:"bracket"`
	Count   int    `json:"count"`
}

// AggregateStats summarizes a set of processed records.
type AggregateStats struct {
	TotalStudents        int              `json:"totalStudents"`
	TotalPlaced          int              `json:"totalPlaced"`
	PlacementRate        string           `json:"placementRate"`
	UniqueCompaniesCount int              `json:"uniqueCompaniesCount"`
	Recruiters           []RecruiterCount `json:"recruiters"`
	SalaryHistogram      []BracketCount   `json:"salaryHistogram"`
}

// Count returns the histogram count for bracket.
func (s AggregateStats) Count(bracket string) int {
	for _, b := range s.SalaryHistogram {
		if b.Bracket == bracket {
			return b.Count
		}
	}
	return 0
}

// IsPlaced reports whether a record counts as placed: its company is
// non-empty and is neither "not placed" nor "n/a" (case-insensitive).
func IsPlaced(rec roster.ProcessedRecord) bool {
	company := strings.ToLower(strings.TrimSpace(rec.PlacementInfo.Company))
	return company != "" && company != "not placed" && company != "n/a"
}

// ParseSalaryLPA extracts a salary in LPA from free text. With no number it
// returns false; with one it returns that number; with more it returns the
// mean of the first two, reading them as a low-high range.
func ParseSalaryLPA(salary string) (float64, bool) {
	matches := numberPattern.FindAllString(salary, 2)
	switch len(matches) {
	case 0:
		return 0, false
	case 1:
		v, err := strconv.ParseFloat(matches[0], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	default:
		low, err1 := strconv.ParseFloat(matches[0], 64)
		high, err2 := strconv.ParseFloat(matches[1], 64)
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return (low + high) / 2, true
	}
}

// BracketFor returns the histogram bracket for a parsed salary. Each bracket
// includes its upper bound.
func BracketFor(lpa float64, ok bool) string {
	switch {
	case !ok:
		return BracketNotDisclosed
	case lpa < 3:
		return BracketBelow3
	case lpa <= 5:
		return Bracket3To5
	case lpa <= 8:
		return Bracket5To8
	case lpa <= 12:
		return Bracket8To12
	case lpa <= 18:
		return Bracket12To18
	case lpa <= 25:
		return Bracket18To25
	default:
		return Bracket25Plus
	}
}

// FormatRate formats placed/total as a percentage with one decimal,
// "0.0" when total is zero.
func FormatRate(placed, total int) string {
	if total == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(float64(placed)/float64(total)*100, 'f', 1, 64)
}

type companyTally struct {
	hires     int
	salarySum float64
	salaryN   int
}

// ComputeStats derives AggregateStats from records.
func ComputeStats(records []roster.ProcessedRecord) AggregateStats {
	histogram := make(map[string]int, len(Brackets))
	tallies := make(map[string]*companyTally)
	var order []string
	placed := 0

	for _, rec := range records {
		if !IsPlaced(rec) {
			continue
		}
		placed++

		lpa, ok := ParseSalaryLPA(rec.Salary)
		histogram[BracketFor(lpa, ok)]++

		company := strings.TrimSpace(rec.PlacementInfo.Company)
		tally, seen := tallies[company]
		if !seen {
			tally = &companyTally{}
			tallies[company] = tally
			order = append(order, company)
		}
		tally.hires++
		if ok {
			tally.salarySum += lpa
			tally.salaryN++
		}
	}

	recruiters := make([]RecruiterCount, 0, len(order))
	for _, company := range order {
		tally := tallies[company]
		rc := RecruiterCount{Company: company, Hires: tally.hires, SalaryDisplay: BracketNotDisclosed}
		if tally.salaryN > 0 {
			avg := tally.salarySum / float64(tally.salaryN)
			rc.AverageSalaryLPA = &avg
			rc.SalaryDisplay = fmt.Sprintf("%.1f LPA", avg)
		}
		recruiters = append(recruiters, rc)
	}
	sort.SliceStable(recruiters, func(i, j int) bool {
		return recruiters[i].Hires > recruiters[j].Hires
	})

	buckets := make([]BracketCount, len(Brackets))
	for i, b := range Brackets {
		buckets[i] = BracketCount{Bracket: b, Count: histogram[b]}
	}

	return AggregateStats{
		TotalStudents:        len(records),
		TotalPlaced:          placed,
		PlacementRate:        FormatRate(placed, len(records)),
		UniqueCompaniesCount: len(recruiters),
		Recruiters:           recruiters,
		SalaryHistogram:      buckets,
	}
}
