package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\xef\xbb\xbffirst_name,last_name,headline,education_school_1,education_date_1,experience_title_1,experience_company_1,experience_title_0,experience_company_0,cohort\n" +
	"Asha,Rao,SDE,IIT Madras,2023,Engineer,Acme,Intern,Initech,A\n" +
	",Missing,,,,,,,,B\n" +
	"\n" +
	"Ravi,Kumar,Analyst,NIT,2022,,,,,C\n"

func TestReadCSV(t *testing.T) {
	r, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Equal(t, 2, r.Len())
	assert.Equal(t, 1, r.Skipped)
	assert.Equal(t, []string{"cohort"}, r.ExtraColumns)

	asha := r.Records[0]
	assert.Equal(t, "Asha Rao", asha.Name())
	assert.Equal(t, "IIT Madras", asha.Education)
	assert.Equal(t, "2023", asha.GraduationDate)
	require.Len(t, asha.Experiences, 2)
	assert.Equal(t, "Intern", asha.Experiences[0].Title, "experiences are ordered by index")
	assert.Equal(t, "Acme", asha.Experiences[1].Company)
	assert.Equal(t, []Column{{Name: "cohort", Value: "A"}}, asha.Extra)

	assert.Empty(t, r.Records[1].Experiences)
}

func TestReadCSV_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty file", input: ""},
		{name: "header only", input: "first_name,last_name\n"},
		{name: "no named rows", input: "first_name,last_name\n,Solo\nOnly,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.True(t, errors.Is(err, ErrInputInvalid), "got %v", err)
		})
	}
}

func TestFromRow_CaseInsensitiveHeaders(t *testing.T) {
	rec := FromRow([]string{" First_Name ", "LAST_NAME", "Experience_Title_2"}, []string{"Neha", "Shah"})
	assert.Equal(t, "Neha", rec.FirstName)
	assert.Equal(t, "Shah", rec.LastName)
	assert.Empty(t, rec.Experiences, "short rows leave trailing columns empty")
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"first_name", "last_name", "headline"},
		{"Asha", "Rao", "SDE"},
		{"Ravi", "Kumar", "Analyst"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	r, err := Read(&buf, FormatFromName("students.XLSX"))
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, "Analyst", r.Records[1].Headline)
}

func TestWriteProcessedCSV(t *testing.T) {
	r, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	processed := MergeBatch(r.Records, []PlacementInfo{
		{Role: "SDE", Company: "Acme", Salary: "8-10 LPA", Confidence: "High"},
		NotPlacedInfo(),
	})

	var buf bytes.Buffer
	require.NoError(t, WriteProcessedCSV(&buf, processed, r.ExtraColumns))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Contains(t, header, "experience_title_1")
	assert.Equal(t, "confidence", header[len(header)-1])

	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %q missing", name)
		return -1
	}
	assert.Equal(t, "Acme", rows[1][col("placedCompany")])
	assert.Equal(t, "Initech", rows[1][col("experience_company_0")])
	assert.Equal(t, "A", rows[1][col("cohort")])
	assert.Equal(t, NotPlaced, rows[2][col("placedRole")])
	assert.Equal(t, "", rows[2][col("experience_title_0")])
}

func TestErrorBatch(t *testing.T) {
	recs := []Record{{FirstName: "a", LastName: "b"}, {FirstName: "c", LastName: "d"}}
	out := ErrorBatch(recs, ReasonFormat)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.True(t, p.IsError())
		assert.Equal(t, NotAvailable, p.PlacementInfo.Company)
		assert.Equal(t, ReasonFormat, p.Justification)
	}
}
