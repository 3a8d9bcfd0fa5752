package inference

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

func TestBuildPlacementPrompt_Profiles(t *testing.T) {
	long := strings.Repeat("é", 200)
	var exps []roster.Experience
	for i := 0; i < 7; i++ {
		exps = append(exps, roster.Experience{Title: "Role", Company: "Co", Description: long})
	}
	records := []roster.Record{
		{FirstName: "Asha", LastName: "Rao", Headline: "Analyst", Experiences: exps},
		{FirstName: "Vikram", LastName: "Iyer", Experiences: []roster.Experience{{Title: ""}, {Title: "SDE"}}},
	}

	prompt, err := BuildPlacementPrompt(records)
	if err != nil {
		t.Fatalf("BuildPlacementPrompt() error = %v", err)
	}

	idx := strings.LastIndex(prompt, StudentDataMarker)
	if idx < 0 {
		t.Fatal("prompt has no student data marker")
	}
	var profiles []promptProfile
	if err := json.Unmarshal([]byte(strings.TrimSpace(prompt[idx+len(StudentDataMarker):])), &profiles); err != nil {
		t.Fatalf("student data is not a JSON array: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(profiles))
	}

	first := profiles[0]
	if first.Name != "Asha Rao" || first.Headline != "Analyst" {
		t.Errorf("first = %+v", first)
	}
	if first.Education != "N/A" || first.GraduationDate != "N/A" {
		t.Errorf("missing fields should be N/A: %+v", first)
	}
	if len(first.Experiences) != 5 {
		t.Errorf("experiences = %d, want 5", len(first.Experiences))
	}
	if n := len([]rune(first.Experiences[0].Description)); n != 150 {
		t.Errorf("description runes = %d, want 150", n)
	}
	if first.Experiences[0].From != "N/A" {
		t.Errorf("From = %q, want N/A", first.Experiences[0].From)
	}

	second := profiles[1]
	if len(second.Experiences) != 1 || second.Experiences[0].Title != "SDE" {
		t.Errorf("untitled experiences should be skipped: %+v", second.Experiences)
	}
}

func TestBuildPlacementPrompt_Empty(t *testing.T) {
	prompt, err := BuildPlacementPrompt(nil)
	if err != nil {
		t.Fatalf("BuildPlacementPrompt() error = %v", err)
	}
	if !strings.HasSuffix(prompt, StudentDataMarker+"\n[]") {
		t.Errorf("prompt should end with an empty array, got %q", prompt[len(prompt)-30:])
	}
}

func TestBuildReportPrompt_Sections(t *testing.T) {
	s := stats.ComputeStats(nil)
	prompt := BuildReportPrompt(s)

	for _, want := range []string{
		"# Placement Report: Executive Summary",
		"## Key Placement Statistics",
		"## Recruiter Participation",
		"## Salary Insights",
		"## Concluding Remarks",
		"Placement Rate: 0.0%",
		"| Not Disclosed | 0 |",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("report prompt missing %q", want)
		}
	}
}
