package roster

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Format identifies a roster file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromName guesses the format from a file name, defaulting to CSV.
func FormatFromName(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Read parses a roster in the given format.
func Read(r io.Reader, format Format) (*Roster, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(r)
	default:
		return ReadCSV(r)
	}
}

// Load opens path and parses it according to its extension.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return Read(f, FormatFromName(path))
}

// ReadCSV parses a CSV roster with a header row.
func ReadCSV(r io.Reader) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	// Excel exports often start with a UTF-8 byte order mark.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv parsing error: %v", ErrInputInvalid, err)
	}
	return FromRows(rows)
}

// ReadXLSX parses the first sheet of an XLSX workbook.
func ReadXLSX(r io.Reader) (*Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx parsing error: %v", ErrInputInvalid, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInputInvalid)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrInputInvalid, sheets[0], err)
	}
	return FromRows(rows)
}
