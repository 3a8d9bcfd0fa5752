package inference

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/roster"
	"github.com/sagarbabu-mood/AI-Placement-Analyzer/pkg/stats"
)

// StudentDataMarker precedes the JSON array of student profiles in a
// placement prompt.
const StudentDataMarker = "Student Data:"

const (
	maxPromptExperiences = 5
	maxDescriptionRunes  = 150
)

type promptExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
	From        string `json:"from"`
	To          string `json:"to"`
}

type promptProfile struct {
	Name           string             `json:"name"`
	Headline       string             `json:"headline"`
	Education      string             `json:"education"`
	GraduationDate string             `json:"graduation_date"`
	Experiences    []promptExperience `json:"experiences"`
}

const placementInstructions = `Analyze the following array of student profiles. For each student, identify their first full-time post-graduation job.

IMPORTANT RULES:
1. IGNORE internships, freelance work, contract roles, or trainee positions. Focus ONLY on the first permanent, full-time role after their graduation date.
2. If no suitable full-time role is found, set placedRole and placedCompany to 'Not Placed' and estimatedSalary to 'N/A'.
3. Provide a realistic salary estimate in Lakhs Per Annum (LPA) for the identified role.
4. Briefly justify each answer and rate your confidence as High, Medium or Low.
5. Return the output as a JSON array that strictly matches the provided schema. The array must have the same number of objects as the input array of students, in the same order.

`

func orNA(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return roster.NotAvailable
	}
	return s
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func profileOf(rec roster.Record) promptProfile {
	p := promptProfile{
		Name:           rec.Name(),
		Headline:       orNA(rec.Headline),
		Education:      orNA(rec.Education),
		GraduationDate: orNA(rec.GraduationDate),
		Experiences:    []promptExperience{},
	}
	for _, exp := range rec.Experiences {
		if len(p.Experiences) == maxPromptExperiences {
			break
		}
		if strings.TrimSpace(exp.Title) == "" {
			continue
		}
		p.Experiences = append(p.Experiences, promptExperience{
			Title:       exp.Title,
			Company:     orNA(exp.Company),
			Description: orNA(truncateRunes(exp.Description, maxDescriptionRunes)),
			From:        orNA(exp.From),
			To:          orNA(exp.To),
		})
	}
	return p
}

// BuildPlacementPrompt renders the batch prompt for records. The prompt ends
// with StudentDataMarker followed by a JSON array with one profile per
// record, in order.
func BuildPlacementPrompt(records []roster.Record) (string, error) {
	profiles := make([]promptProfile, len(records))
	for i, rec := range records {
		profiles[i] = profileOf(rec)
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal student profiles: %w", err)
	}
	return placementInstructions + StudentDataMarker + "\n" + string(data), nil
}

// placementSchema constrains batch output to an array of placement objects.
var placementSchema = &Schema{
	Type: "ARRAY",
	Items: &Schema{
		Type: "OBJECT",
		Properties: map[string]*Schema{
			"placedRole": {
				Type:        "STRING",
				Description: "The specific job title. Should be 'Not Placed' if no suitable role is found.",
			},
			"placedCompany": {
				Type:        "STRING",
				Description: "The name of the company. Should be 'Not Placed' if no role is found.",
			},
			"estimatedSalary": {
				Type:        "STRING",
				Description: "A realistic salary range in LPA (e.g., '8-10 LPA'). Should be 'N/A' if not placed.",
			},
			"justification": {
				Type:        "STRING",
				Description: "One sentence explaining the choice.",
			},
			"confidence": {
				Type:        "STRING",
				Description: "High, Medium or Low.",
			},
		},
		Required: []string{"placedRole", "placedCompany", "estimatedSalary"},
	},
}

// BuildReportPrompt renders the narrative report prompt around s.
func BuildReportPrompt(s stats.AggregateStats) string {
	var b strings.Builder

	b.WriteString("You are a professional placement report analyst. Based on the provided statistics, generate a comprehensive and well-structured college placement report in Markdown format.\n\n")
	b.WriteString("The report should be formal, insightful, and suitable for stakeholders like college management and potential students.\n\n")
	b.WriteString("Follow this structure precisely:\n\n")

	b.WriteString("# Placement Report: Executive Summary\n")
	b.WriteString("(Provide a brief, insightful paragraph summarizing the key takeaways from the placement season.)\n\n")

	b.WriteString("## Key Placement Statistics\n")
	b.WriteString("(Present the following stats clearly. You can use a list or a table.)\n")
	fmt.Fprintf(&b, "- Total Students Analyzed: %d\n", s.TotalStudents)
	fmt.Fprintf(&b, "- Total Students Placed: %d\n", s.TotalPlaced)
	fmt.Fprintf(&b, "- Placement Rate: %s%%\n", s.PlacementRate)
	fmt.Fprintf(&b, "- Number of Companies Recruiting: %d\n\n", s.UniqueCompaniesCount)

	b.WriteString("## Recruiter Participation\n")
	b.WriteString("(Provide a brief introductory sentence, then present the full list of companies and the number of students they hired in a markdown table. Ensure the table is sorted with the company that hired the most at the top.)\n\n")
	b.WriteString("**All Recruiting Companies:**\n")
	b.WriteString("| Company | Number of Hires | Average Salary |\n|---|---|---|\n")
	for _, r := range s.Recruiters {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", r.Company, r.Hires, r.SalaryDisplay)
	}
	b.WriteString("\n")

	b.WriteString("## Salary Insights\n")
	b.WriteString("(Provide a brief introductory sentence, then present the salary distribution in a markdown table.)\n\n")
	b.WriteString("**Salary Distribution:**\n")
	b.WriteString("| Salary Bracket (LPA) | Number of Students |\n|---|---|\n")
	for _, bc := range s.SalaryHistogram {
		fmt.Fprintf(&b, "| %s | %d |\n", bc.Bracket, bc.Count)
	}
	b.WriteString("\n")

	b.WriteString("## Concluding Remarks\n")
	b.WriteString("(Write a concluding paragraph summarizing the overall success of the placements and any potential areas for future focus.)\n")

	return b.String()
}
