package compose

import "strings"

// FormSnapshot carries the current values of the outreach form fields.
// All values are trimmed before composition; the internship period is the
// joined multi-select state.
type FormSnapshot struct {
	ContactName  string   `json:"contact_name"`
	JobTitle     string   `json:"job_title"`
	CompanyName  string   `json:"company_name"`
	JobLink      string   `json:"job_link"`
	StudentName  string   `json:"student_name"`
	ProjectTitle string   `json:"project_title"`
	Periods      []string `json:"internship_periods"`
	StudentPitch string   `json:"student_pitch"`
}

// trimmed returns a copy with every field whitespace-trimmed and empty
// period labels dropped.
func (f FormSnapshot) trimmed() FormSnapshot {
	out := FormSnapshot{
		ContactName:  strings.TrimSpace(f.ContactName),
		JobTitle:     strings.TrimSpace(f.JobTitle),
		CompanyName:  strings.TrimSpace(f.CompanyName),
		JobLink:      strings.TrimSpace(f.JobLink),
		StudentName:  strings.TrimSpace(f.StudentName),
		ProjectTitle: strings.TrimSpace(f.ProjectTitle),
		StudentPitch: strings.TrimSpace(f.StudentPitch),
	}
	for _, p := range f.Periods {
		if p = strings.TrimSpace(p); p != "" {
			out.Periods = append(out.Periods, p)
		}
	}
	return out
}

// PeriodLabel joins the selected internship periods for display.
func (f FormSnapshot) PeriodLabel() string {
	return strings.Join(f.trimmed().Periods, ", ")
}
