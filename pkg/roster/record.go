// Package roster models student rosters: the input records, the placement
// details inferred for them, and the CSV/XLSX boundary they travel through.
package roster

import (
	"errors"
	"strings"
)

// ErrInputInvalid is returned when an uploaded roster is empty or cannot be parsed.
var ErrInputInvalid = errors.New("input invalid")

// Sentinel placement values.
const (
	NotPlaced       = "Not Placed"
	NotAvailable    = "N/A"
	ErrorValue      = "Error"
	ReasonFormat    = "AI Format Error"
	ReasonResponse  = "AI Response Error"
	ReasonExhausted = "Credentials Exhausted"
)

// Experience is one entry of a student's work history.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// Column is a header/value pair the normalizer did not recognize. Extra
// columns are carried only so exports can reproduce the uploaded file.
type Column struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one student row. Identity is its position in the roster.
type Record struct {
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	Email          string       `json:"email,omitempty"`
	Location       string       `json:"location,omitempty"`
	Industry       string       `json:"industry,omitempty"`
	Headline       string       `json:"headline,omitempty"`
	Company        string       `json:"company,omitempty"`
	LinkedInURL    string       `json:"linkedin_url,omitempty"`
	Resume         string       `json:"resume,omitempty"`
	Education      string       `json:"education_school_1,omitempty"`
	GraduationDate string       `json:"education_date_1,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	Experiences    []Experience `json:"experiences,omitempty"`
	Extra          []Column     `json:"extra,omitempty"`
}

// Name returns the student's full name.
func (r Record) Name() string {
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// HasName reports whether both name fields are present.
func (r Record) HasName() bool {
	return strings.TrimSpace(r.FirstName) != "" && strings.TrimSpace(r.LastName) != ""
}

// PlacementInfo holds the placement inferred for one record.
type PlacementInfo struct {
	Role          string `json:"placedRole"`
	Company       string `json:"placedCompany"`
	Salary        string `json:"estimatedSalary"`
	Justification string `json:"justification,omitempty"`
	Confidence    string `json:"confidence,omitempty"`
}

// IsError reports whether p is an error sentinel.
func (p PlacementInfo) IsError() bool {
	return p.Role == ErrorValue
}

// NotPlacedInfo returns the sentinel for a student with no qualifying role.
func NotPlacedInfo() PlacementInfo {
	return PlacementInfo{Role: NotPlaced, Company: NotPlaced, Salary: NotAvailable}
}

// ErrorInfo returns the error sentinel carrying reason as its justification.
// The company is N/A so that failed records never count as placed.
func ErrorInfo(reason string) PlacementInfo {
	return PlacementInfo{
		Role:          ErrorValue,
		Company:       NotAvailable,
		Salary:        ErrorValue,
		Justification: reason,
	}
}

// ProcessedRecord is a Record together with its PlacementInfo.
type ProcessedRecord struct {
	Record
	PlacementInfo
}

// Merge attaches placement details to record.
func Merge(record Record, info PlacementInfo) ProcessedRecord {
	return ProcessedRecord{Record: record, PlacementInfo: info}
}

// MergeBatch pairs records with infos position by position. The slices must
// have equal length.
func MergeBatch(records []Record, infos []PlacementInfo) []ProcessedRecord {
	out := make([]ProcessedRecord, len(records))
	for i := range records {
		out[i] = Merge(records[i], infos[i])
	}
	return out
}

// ErrorBatch builds error sentinels for every record in records.
func ErrorBatch(records []Record, reason string) []ProcessedRecord {
	out := make([]ProcessedRecord, len(records))
	for i := range records {
		out[i] = Merge(records[i], ErrorInfo(reason))
	}
	return out
}
