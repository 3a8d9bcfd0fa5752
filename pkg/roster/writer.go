package roster

import (
	"encoding/csv"
	"fmt"
	"io"
)

var baseColumns = []string{
	"first_name", "last_name", "email", "location", "industry", "headline", "company",
	"linkedin_url", "resume", "education_school_1", "education_date_1", "notes",
}

var placementColumns = []string{
	"placedRole", "placedCompany", "estimatedSalary", "justification", "confidence",
}

// ProcessedHeader returns the header row used by WriteProcessedCSV.
func ProcessedHeader(records []ProcessedRecord, extra []string) []string {
	header := append([]string{}, baseColumns...)
	for i := 0; i < maxExperiences(records); i++ {
		header = append(header,
			fmt.Sprintf("experience_title_%d", i),
			fmt.Sprintf("experience_company_%d", i),
			fmt.Sprintf("experience_description_%d", i),
			fmt.Sprintf("experience_from_%d", i),
			fmt.Sprintf("experience_to_%d", i),
		)
	}
	header = append(header, extra...)
	return append(header, placementColumns...)
}

// WriteProcessedCSV serializes processed records back into rows, re-flattening
// experience entries into indexed columns. extra lists pass-through column
// names in upload order.
func WriteProcessedCSV(w io.Writer, records []ProcessedRecord, extra []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ProcessedHeader(records, extra)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	experienceCols := maxExperiences(records)
	for i, rec := range records {
		row := []string{
			rec.FirstName, rec.LastName, rec.Email, rec.Location, rec.Industry, rec.Headline,
			rec.Record.Company, rec.LinkedInURL, rec.Resume, rec.Education, rec.GraduationDate, rec.Notes,
		}
		for j := 0; j < experienceCols; j++ {
			var exp Experience
			if j < len(rec.Experiences) {
				exp = rec.Experiences[j]
			}
			row = append(row, exp.Title, exp.Company, exp.Description, exp.From, exp.To)
		}
		for _, name := range extra {
			row = append(row, extraValue(rec.Extra, name))
		}
		info := rec.PlacementInfo
		row = append(row, info.Role, info.Company, info.Salary, info.Justification, info.Confidence)

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func maxExperiences(records []ProcessedRecord) int {
	n := 0
	for _, rec := range records {
		if len(rec.Experiences) > n {
			n = len(rec.Experiences)
		}
	}
	return n
}

func extraValue(cols []Column, name string) string {
	for _, c := range cols {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
