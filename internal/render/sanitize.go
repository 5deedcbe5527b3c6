// Package render derives display and export forms from a composed plain-text
// message. The plain text stays the source of truth: markup produced here is
// a view, and Strip inverts Render exactly so nothing is ever lost in the
// round trip.
package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	urlRe   = regexp.MustCompile(`(?i)(https?://[^\s<>"']+|www\.[^\s<>"']+)`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// Render converts plain text to display markup: HTML-significant characters
// are escaped, bare URLs become anchors opening in a new context, email
// addresses become mailto links, and newlines become <br> tags. The anchor
// text is always the token exactly as typed, so Strip can reconstruct the
// original text.
func Render(plain string) string {
	lines := strings.Split(plain, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = renderLine(line)
	}
	return strings.Join(out, "<br>")
}

func renderLine(line string) string {
	var sb strings.Builder

	rest := line
	for rest != "" {
		loc := urlRe.FindStringIndex(rest)
		if loc == nil {
			sb.WriteString(renderEmails(rest))
			break
		}
		sb.WriteString(renderEmails(rest[:loc[0]]))

		token := rest[loc[0]:loc[1]]
		href := token
		// Normalize bare www. links to an https target while keeping the
		// displayed text as typed.
		if strings.HasPrefix(strings.ToLower(token), "www.") {
			href = "https://" + token
		}
		fmt.Fprintf(&sb, `<a href="%s" target="_blank" rel="noopener">%s</a>`,
			html.EscapeString(href), html.EscapeString(token))

		rest = rest[loc[1]:]
	}
	return sb.String()
}

func renderEmails(segment string) string {
	var sb strings.Builder
	rest := segment
	for rest != "" {
		loc := emailRe.FindStringIndex(rest)
		if loc == nil {
			sb.WriteString(html.EscapeString(rest))
			break
		}
		sb.WriteString(html.EscapeString(rest[:loc[0]]))
		addr := rest[loc[0]:loc[1]]
		fmt.Fprintf(&sb, `<a href="mailto:%s">%s</a>`,
			html.EscapeString(addr), html.EscapeString(addr))
		rest = rest[loc[1]:]
	}
	return sb.String()
}

// Strip is the inverse of Render: it walks the markup and reconstructs the
// plain text, turning <br> back into newlines and anchors back into their
// displayed text. For any output of Render, Strip returns the original input
// byte for byte.
func Strip(markup string) (string, error) {
	// Parse as a body fragment, not a full document: the document parser
	// drops whitespace tokens that arrive before <body> exists, which
	// would eat leading spaces off the reconstructed text.
	body := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := xhtml.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", fmt.Errorf("parsing markup: %w", err)
	}

	var sb strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		switch n.Type {
		case xhtml.TextNode:
			sb.WriteString(n.Data)
		case xhtml.ElementNode:
			if n.Data == "br" {
				sb.WriteString("\n")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	return sb.String(), nil
}
