package transform

import "fmt"

const rewriteSystemPrompt = "You are a professional assistant. Rewrite the given message in a clear, professional, and persuasive tone."

const boilerplateUserPrompt = `Your goal is to write a short, professional boilerplate pitch explaining why our students are a good fit for a given internship job description.

Here's what you must do:
1. Keep the tone professional, positive, and concise.
2. Highlight that our students are hands-on, adaptable, and skilled in practical AI, data, and tech tools.
3. Reference relevant competencies (e.g. data cleaning, Python, dashboarding, annotation, stakeholder communication) only if the job requires them.
4. Acknowledge where students are not a perfect match (e.g. not medical students), but show how they can still contribute with guidance.

Given the following job description, return a 1-paragraph boilerplate (3-5 sentences) that can be used in outreach emails or messages to internship hosts. No headings, no fluff — just the message.

Job Description:
%s`

func boilerplateSystemPrompt(programme string) string {
	return fmt.Sprintf("You are an internship placement officer for %s.", programme)
}

// fallbackBoilerplate synthesizes the deterministic pitch used when the
// generation service is unavailable. The job description appears verbatim.
func fallbackBoilerplate(jobDescription string) string {
	return fmt.Sprintf(`Our students are well-equipped to contribute meaningfully to roles such as %q thanks to rigorous training in relevant modules. They've developed both technical skills and a hands-on, collaborative mindset that aligns with your organisational needs.`, jobDescription)
}
