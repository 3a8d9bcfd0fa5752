package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

// Section titles of the statistics exports.
const (
	SectionKeyStats   = "Key Placement Statistics"
	SectionRecruiters = "Recruiter Details"
	SectionSalary     = "Salary Distribution"
)

// Sheet names of the statistics workbook.
const (
	SheetKeyStats   = "Key Statistics"
	SheetRecruiters = "Recruiters"
	SheetSalary     = "Salary Distribution"
)

type table struct {
	title  string
	sheet  string
	header []string
	rows   [][]string
}

func statsTables(s stats.AggregateStats) []table {
	keyStats := table{
		title:  SectionKeyStats,
		sheet:  SheetKeyStats,
		header: []string{"Stat", "Value"},
		rows: [][]string{
			{"Total Students Analyzed", strconv.Itoa(s.TotalStudents)},
			{"Total Students Placed", strconv.Itoa(s.TotalPlaced)},
			{"Placement Rate (%)", s.PlacementRate},
			{"Number of Companies Recruiting", strconv.Itoa(s.UniqueCompaniesCount)},
		},
	}

	recruiters := table{
		title:  SectionRecruiters,
		sheet:  SheetRecruiters,
		header: []string{"Company", "Number of Hires", "Average Salary"},
	}
	for _, r := range s.Recruiters {
		recruiters.rows = append(recruiters.rows, []string{r.Company, strconv.Itoa(r.Hires), r.SalaryDisplay})
	}

	salary := table{
		title:  SectionSalary,
		sheet:  SheetSalary,
		header: []string{"Salary Bracket (LPA)", "Number of Students"},
	}
	for _, b := range s.SalaryHistogram {
		salary.rows = append(salary.rows, []string{b.Bracket, strconv.Itoa(b.Count)})
	}

	return []table{keyStats, recruiters, salary}
}

// WriteStatsCSV writes s as three stacked CSV tables, each preceded by its
// section title and separated by a blank line.
func WriteStatsCSV(w io.Writer, s stats.AggregateStats) error {
	cw := csv.NewWriter(w)
	for i, t := range statsTables(s) {
		if i > 0 {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{t.title}); err != nil {
			return fmt.Errorf("write %s: %w", t.title, err)
		}
		if err := cw.Write(t.header); err != nil {
			return fmt.Errorf("write %s header: %w", t.title, err)
		}
		if err := cw.WriteAll(t.rows); err != nil {
			return fmt.Errorf("write %s rows: %w", t.title, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatsXLSX writes s as a workbook with one sheet per section.
func WriteStatsXLSX(w io.Writer, s stats.AggregateStats) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range statsTables(s) {
		idx, err := f.NewSheet(t.sheet)
		if err != nil {
			return fmt.Errorf("create sheet %s: %w", t.sheet, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		rows := append([][]string{t.header}, t.rows...)
		for r, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			if err := f.SetSheetRow(t.sheet, cell, &values); err != nil {
				return fmt.Errorf("write %s row %d: %w", t.sheet, r+1, err)
			}
		}
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("remove default sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
