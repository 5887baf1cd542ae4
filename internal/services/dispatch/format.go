package dispatch

import (
	"fmt"
	"strings"

	"github.com/ternarybob/serendib/internal/models"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`,
	"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// ContactMarkdown renders a contact inquiry as the email body
func ContactMarkdown(req models.ContactRequest) string {
	var b strings.Builder

	b.WriteString("## Inquiry\n\n")
	fmt.Fprintf(&b, "- **Name:** %s\n", escapeMarkdown(req.Name))
	fmt.Fprintf(&b, "- **Email:** %s\n", escapeMarkdown(req.Email))
	if req.Phone != "" {
		fmt.Fprintf(&b, "- **Phone:** %s\n", escapeMarkdown(req.Phone))
	}
	if req.Subject != "" {
		fmt.Fprintf(&b, "- **Subject:** %s\n", escapeMarkdown(req.Subject))
	}
	if req.TourID != "" {
		fmt.Fprintf(&b, "- **Tour:** %s\n", escapeMarkdown(req.TourID))
	}
	b.WriteString("\n## Message\n\n")
	b.WriteString(escapeMarkdown(strings.TrimSpace(req.Message)))
	b.WriteString("\n")

	return b.String()
}

// slugName turns a traveller name into a filename fragment
func slugName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "traveller"
	}
	return out
}
