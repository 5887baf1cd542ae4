package pdf

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/serendib/internal/models"
	"github.com/ternarybob/serendib/internal/planner"
)

// ItineraryMarkdown renders a trip plan as the markdown document used for
// both the PDF attachment and the email body
func ItineraryMarkdown(siteName string, req models.TripPlanRequest, stats planner.Stats, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Trip plan for %s\n\n", escape(req.Name))
	fmt.Fprintf(&b, "Prepared by %s on %s.\n\n", escape(siteName), generatedAt.Format("2 January 2006"))

	b.WriteString("## Traveller\n\n")
	fmt.Fprintf(&b, "- **Name:** %s\n", escape(req.Name))
	fmt.Fprintf(&b, "- **Email:** %s\n", escape(req.Email))
	fmt.Fprintf(&b, "- **Phone:** %s\n\n", escape(req.Phone))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Destinations:** %d\n", stats.DestinationCount)
	fmt.Fprintf(&b, "- **Route segments:** %d\n", stats.RouteSegments)
	fmt.Fprintf(&b, "- **Estimated days:** %d\n\n", stats.EstimatedDays)

	b.WriteString("## Route\n\n")
	b.WriteString("| Stop | Destination | Province | Coordinates |\n")
	b.WriteString("|------|-------------|----------|-------------|\n")
	for i, p := range req.Places {
		fmt.Fprintf(&b, "| %d | %s | %s | %.4f, %.4f |\n", i+1, cell(p.Name), cell(p.Province), p.Lat, p.Lng)
	}
	b.WriteString("\n")

	if notes := strings.TrimSpace(req.Notes); notes != "" {
		b.WriteString("## Notes\n\n")
		b.WriteString(escape(notes))
		b.WriteString("\n")
	}

	return b.String()
}

// RenderItinerary produces the PDF attachment for a trip plan
func (s *Service) RenderItinerary(siteName string, req models.TripPlanRequest, stats planner.Stats, generatedAt time.Time) ([]byte, error) {
	markdown := ItineraryMarkdown(siteName, req, stats, generatedAt)
	return s.ConvertMarkdownToPDF(markdown, fmt.Sprintf("%s trip plan: %s", siteName, req.Name))
}

// escape neutralises markdown control characters in traveller input
func escape(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`,
		"[", `\[`, "]", `\]`, "<", "&lt;", ">", "&gt;", "|", `\|`,
	)
	return replacer.Replace(s)
}

func cell(s string) string {
	return strings.ReplaceAll(escape(s), "\n", " ")
}
