package compose

import (
	"strings"
	"testing"

	"github.com/kalambet/outreach/internal/chunk"
)

var testClosing = Closing{
	CourseTitle:  "Higher Nitec in AI Applications – Course Overview",
	CourseURL:    "https://example.edu/courses/ai-applications",
	BookingLabel: "Office Hours",
	BookingURL:   "https://example.edu/book",
	SignOff:      "Looking forward to hearing from you 🙂",
}

func newTestComposer() *Composer {
	return New(testClosing)
}

func TestCompose_GreetingAndOpener(t *testing.T) {
	c := newTestComposer()
	form := FormSnapshot{
		ContactName: "Mary",
		CompanyName: "Acme",
		JobTitle:    "ML Intern",
	}

	got := c.Compose(form, nil)
	wantPrefix := "Hi Mary,\n\nI'm reaching out to explore potential internship opportunities at Acme, for the ML Intern role.\n\n"
	if !strings.HasPrefix(got, wantPrefix) {
		t.Errorf("message does not start with expected prefix.\ngot:  %q\nwant: %q", got[:min(len(got), len(wantPrefix)+20)], wantPrefix)
	}
	if !strings.HasSuffix(got, testClosing.SignOff) {
		t.Errorf("message does not end with the closing sign-off")
	}
}

func TestCompose_OpenerCombinations(t *testing.T) {
	c := newTestComposer()

	tests := []struct {
		name    string
		company string
		role    string
		want    string
	}{
		{"both", "Acme", "ML Intern", "I'm reaching out to explore potential internship opportunities at Acme, for the ML Intern role.\n\n"},
		{"company only", "Acme", "", "I'm reaching out to explore potential internship opportunities at Acme.\n\n"},
		{"role only", "", "ML Intern", "I'm reaching out to explore potential internship opportunities for the ML Intern role.\n\n"},
		{"neither", "", "", "I'm reaching out.\n\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Compose(FormSnapshot{CompanyName: tc.company, JobTitle: tc.role}, nil)
			if !strings.HasPrefix(got, tc.want) {
				t.Errorf("opener = %q..., want prefix %q", got[:min(len(got), len(tc.want)+10)], tc.want)
			}
		})
	}
}

func TestCompose_Deterministic(t *testing.T) {
	c := newTestComposer()
	form := FormSnapshot{
		ContactName:  "Mary",
		CompanyName:  "Acme",
		JobTitle:     "ML Intern",
		StudentName:  "Tan Wei",
		ProjectTitle: "Defect Detection",
		StudentPitch: "They are great",
		JobLink:      "https://jobs.acme.test/ml-intern",
		Periods:      []string{"Mar–May", "Sep–Nov"},
	}
	chunks := []chunk.Chunk{
		{ID: 1, Text: "Our students complete a capstone project.", Category: "Programme"},
		{ID: 2, Text: "Mentorship is provided throughout.", Category: "Programme"},
	}

	first := c.Compose(form, chunks)
	second := c.Compose(form, chunks)
	if first != second {
		t.Error("Compose is not deterministic for identical inputs")
	}
}

func TestCompose_SectionOrder(t *testing.T) {
	c := newTestComposer()
	form := FormSnapshot{
		ContactName:  "Mary",
		CompanyName:  "Acme",
		StudentName:  "Tan Wei",
		JobLink:      "https://jobs.acme.test/1",
		Periods:      []string{"Mar–May"},
		StudentPitch: "Great attitude.",
	}
	chunks := []chunk.Chunk{{ID: 1, Text: "CHUNK-ONE", Category: "Default"}}

	got := c.Compose(form, chunks)

	markers := []string{
		"Hi Mary,",
		"I'm reaching out",
		"I have a student, Tan Wei.",
		"Here is the job listing posted by your team:",
		"The proposed internship period is: Mar–May",
		"CHUNK-ONE",
		"You can learn more about the course here:",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(got, m)
		if idx < 0 {
			t.Fatalf("marker %q missing from message:\n%s", m, got)
		}
		if idx < last {
			t.Errorf("marker %q appears out of order", m)
		}
		last = idx
	}
}

func TestCompose_PitchPunctuation(t *testing.T) {
	c := newTestComposer()

	tests := []struct {
		pitch string
		want  string
	}{
		{"They are great", "They are great."},
		{"They are great!", "They are great!"},
		{"They are great?", "They are great?"},
		{"They are great.", "They are great."},
	}
	for _, tc := range tests {
		got := c.Compose(FormSnapshot{StudentName: "A", StudentPitch: tc.pitch}, nil)
		if !strings.Contains(got, tc.want+"\n\n") {
			t.Errorf("pitch %q: message lacks %q:\n%s", tc.pitch, tc.want, got)
		}
		if strings.Contains(got, tc.want+".") {
			t.Errorf("pitch %q: double punctuation in message", tc.pitch)
		}
	}
}

func TestCompose_PitchVariants(t *testing.T) {
	c := newTestComposer()

	got := c.Compose(FormSnapshot{ProjectTitle: "Smart Sorting"}, nil)
	if !strings.Contains(got, "I have a student, who recently worked on a project titled \"Smart Sorting\". ") {
		t.Errorf("project-only pitch missing:\n%s", got)
	}

	got = c.Compose(FormSnapshot{}, nil)
	if strings.Contains(got, "I have a student") {
		t.Error("pitch section present with no student fields set")
	}
}

func TestCompose_ChunkOrderAndSpacing(t *testing.T) {
	c := newTestComposer()
	chunks := []chunk.Chunk{
		{ID: 2, Text: "SECOND", Category: "Default"},
		{ID: 1, Text: "FIRST", Category: "Default"},
	}

	got := c.Compose(FormSnapshot{}, chunks)
	if !strings.Contains(got, "SECOND\n\nFIRST\n\n") {
		t.Errorf("chunks not appended in given order with blank lines:\n%s", got)
	}
}

func TestCompose_TrimsOutput(t *testing.T) {
	c := newTestComposer()
	got := c.Compose(FormSnapshot{ContactName: "  Mary  "}, nil)
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Error("output has leading or trailing whitespace")
	}
	if !strings.HasPrefix(got, "Hi Mary,") {
		t.Errorf("contact name not trimmed: %q", got[:20])
	}
}

func TestPeriodLabel(t *testing.T) {
	f := FormSnapshot{Periods: []string{" Mar–May ", "", "Sep–Nov"}}
	if got := f.PeriodLabel(); got != "Mar–May, Sep–Nov" {
		t.Errorf("PeriodLabel() = %q", got)
	}
}
