package roster

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var experienceColumn = regexp.MustCompile(`^experience_(title|company|description|from|to)_(\d+)$`)

// FromRow builds a Record from a header row and one data row. Header names
// are matched case-insensitively after trimming; indexed experience columns
// (experience_title_0, experience_company_0, ...) are folded into ordered
// Experience entries. Missing trailing cells are treated as empty.
func FromRow(header, row []string) Record {
	var rec Record
	experiences := make(map[int]*Experience)

	for i, rawName := range header {
		value := ""
		if i < len(row) {
			value = strings.TrimSpace(row[i])
		}
		name := strings.ToLower(strings.TrimSpace(rawName))

		if m := experienceColumn.FindStringSubmatch(name); m != nil {
			idx, _ := strconv.Atoi(m[2])
			exp, ok := experiences[idx]
			if !ok {
				exp = &Experience{}
				experiences[idx] = exp
			}
			switch m[1] {
			case "title":
				exp.Title = value
			case "company":
				exp.Company = value
			case "description":
				exp.Description = value
			case "from":
				exp.From = value
			case "to":
				exp.To = value
			}
			continue
		}

		switch name {
		case "first_name":
			rec.FirstName = value
		case "last_name":
			rec.LastName = value
		case "email":
			rec.Email = value
		case "location":
			rec.Location = value
		case "industry":
			rec.Industry = value
		case "headline":
			rec.Headline = value
		case "company":
			rec.Company = value
		case "linkedin_url":
			rec.LinkedInURL = value
		case "resume":
			rec.Resume = value
		case "education_school_1":
			rec.Education = value
		case "education_date_1":
			rec.GraduationDate = value
		case "notes":
			rec.Notes = value
		case "":
		default:
			rec.Extra = append(rec.Extra, Column{Name: strings.TrimSpace(rawName), Value: value})
		}
	}

	indexes := make([]int, 0, len(experiences))
	for idx, exp := range experiences {
		if *exp == (Experience{}) {
			continue
		}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		rec.Experiences = append(rec.Experiences, *experiences[idx])
	}

	return rec
}

// Roster is a parsed upload: usable records in file order plus the number of
// rows dropped for lacking a name.
type Roster struct {
	Records      []Record
	Skipped      int
	ExtraColumns []string
}

// Len returns the number of usable records.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// FromRows normalizes tabular data whose first row is the header. Blank rows
// are ignored and rows without a first or last name are counted as skipped.
func FromRows(rows [][]string) (*Roster, error) {
	if len(rows) == 0 {
		return nil, ErrInputInvalid
	}
	header := rows[0]
	out := &Roster{ExtraColumns: extraColumns(header)}

	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec := FromRow(header, row)
		if !rec.HasName() {
			out.Skipped++
			continue
		}
		out.Records = append(out.Records, rec)
	}

	if len(out.Records) == 0 {
		return nil, ErrInputInvalid
	}
	return out, nil
}

func extraColumns(header []string) []string {
	var extra []string
	for _, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" || experienceColumn.MatchString(name) || knownColumn(name) {
			continue
		}
		extra = append(extra, strings.TrimSpace(h))
	}
	return extra
}

func knownColumn(name string) bool {
	switch name {
	case "first_name", "last_name", "email", "location", "industry", "headline",
		"company", "linkedin_url", "resume", "education_school_1", "education_date_1", "notes":
		return true
	}
	return false
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
