// Package compose assembles outreach messages from form fields and the
// selected chunk sequence. Composition is a pure function of its inputs:
// the same snapshot, chunks, and closing block always produce the same
// plain-text message.
package compose

import (
	"fmt"
	"strings"

	"github.com/kalambet/outreach/internal/chunk"
)

// Closing is the fixed block appended to the end of every message: the
// programme description, a booking link, and a sign-off.
type Closing struct {
	CourseTitle  string
	CourseURL    string
	BookingLabel string
	BookingURL   string
	SignOff      string
}

// Block renders the closing boilerplate.
func (c Closing) Block() string {
	var sb strings.Builder
	sb.WriteString("You can learn more about the course here:\n")
	fmt.Fprintf(&sb, "👉 %s: %s\n", c.CourseTitle, c.CourseURL)
	sb.WriteString("If you're open to a quick chat, I have attached my calendar for booking at your convenience:\n")
	fmt.Fprintf(&sb, "%s: %s\n", c.BookingLabel, c.BookingURL)
	sb.WriteString(c.SignOff)
	return sb.String()
}

// Composer produces plain-text outreach messages. The zero value is not
// useful; construct with New so the closing block is populated.
type Composer struct {
	closing Closing
}

// New creates a Composer with the given closing block.
func New(closing Closing) *Composer {
	return &Composer{closing: closing}
}

// Compose maps the form snapshot and the filtered, ordered chunk sequence to
// the assembled message. Sections appear in fixed order: greeting, opening
// sentence, student pitch, job link, internship period, chunks, closing
// block. Each section is either absent or content followed by a blank line.
func (c *Composer) Compose(form FormSnapshot, chunks []chunk.Chunk) string {
	f := form.trimmed()

	var sb strings.Builder

	if f.ContactName != "" {
		fmt.Fprintf(&sb, "Hi %s,\n\n", f.ContactName)
	}

	sb.WriteString(openingSentence(f))

	if pitch := pitchSection(f); pitch != "" {
		sb.WriteString(pitch)
	}

	if f.JobLink != "" {
		fmt.Fprintf(&sb, "Here is the job listing posted by your team: %s\n\n", f.JobLink)
	}

	if period := f.PeriodLabel(); period != "" {
		fmt.Fprintf(&sb, "The proposed internship period is: %s\n\n", period)
	}

	for _, ch := range chunks {
		sb.WriteString(ch.Text)
		sb.WriteString("\n\n")
	}

	sb.WriteString(c.closing.Block())

	return strings.TrimSpace(sb.String())
}

// openingSentence builds the always-present opener. The company and role
// clauses attach only when those fields are set.
func openingSentence(f FormSnapshot) string {
	var sb strings.Builder
	sb.WriteString("I'm reaching out")

	if f.CompanyName != "" || f.JobTitle != "" {
		sb.WriteString(" to explore potential internship opportunities")
		switch {
		case f.CompanyName != "" && f.JobTitle != "":
			fmt.Fprintf(&sb, " at %s, for the %s role", f.CompanyName, f.JobTitle)
		case f.CompanyName != "":
			fmt.Fprintf(&sb, " at %s", f.CompanyName)
		case f.JobTitle != "":
			fmt.Fprintf(&sb, " for the %s role", f.JobTitle)
		}
	}

	sb.WriteString(".\n\n")
	return sb.String()
}

// pitchSection introduces the student, optionally naming a project and
// appending the free-text pitch. Empty when no student field is set.
func pitchSection(f FormSnapshot) string {
	if f.StudentName == "" && f.ProjectTitle == "" && f.StudentPitch == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("I have a student")
	if f.StudentName != "" {
		fmt.Fprintf(&sb, ", %s", f.StudentName)
	}
	if f.ProjectTitle != "" {
		fmt.Fprintf(&sb, ", who recently worked on a project titled \"%s\"", f.ProjectTitle)
	}
	sb.WriteString(". ")

	if f.StudentPitch != "" {
		sb.WriteString(f.StudentPitch)
		if !hasTerminalPunctuation(f.StudentPitch) {
			sb.WriteString(".")
		}
	}

	sb.WriteString("\n\n")
	return sb.String()
}

func hasTerminalPunctuation(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}
