package render

import (
	"fmt"
	"strings"
)

// Markdown converts the plain-text message to Markdown: bare URLs become
// [url](url) links, everything else passes through untouched.
func Markdown(plain string) string {
	return urlRe.ReplaceAllStringFunc(plain, func(token string) string {
		target := token
		if strings.HasPrefix(strings.ToLower(token), "www.") {
			target = "https://" + token
		}
		return fmt.Sprintf("[%s](%s)", token, target)
	})
}

// HTMLDocument wraps the sanitized markup in a minimal standalone document,
// suitable for the HTML file export.
func HTMLDocument(plain string) string {
	var sb strings.Builder
	sb.WriteString("<!doctype html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Outreach message</title>\n</head>\n<body>\n<p>")
	sb.WriteString(Render(plain))
	sb.WriteString("</p>\n</body>\n</html>\n")
	return sb.String()
}

// ClipboardPayload carries both clipboard representations of a message.
// Platforms without multi-format clipboard support use Text alone.
type ClipboardPayload struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Clipboard builds the clipboard payload for a composed message.
func Clipboard(plain string) ClipboardPayload {
	return ClipboardPayload{
		HTML: Render(plain),
		Text: plain,
	}
}
