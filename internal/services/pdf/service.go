package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageWidth  = 180.0 // A4 width minus 15mm margins
	pageBottom = 297.0 - 15.0
	fontFamily = "Arial"
	baseSize   = 10.0
)

// Service renders markdown documents to PDF
type Service struct {
	logger   arbor.ILogger
	markdown goldmark.Markdown
}

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger:   logger,
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
	}
}

// ConvertMarkdownToPDF converts markdown content to a PDF byte slice.
// title is stored as the document title.
func (s *Service) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("Serendib", true)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont(fontFamily, "", baseSize)

	source := []byte(markdown)
	doc := s.markdown.Parser().Parse(text.NewReader(source))

	r := &renderer{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		s.logger.Error().Err(err).Str("title", title).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().
		Str("title", title).
		Int("pdf_size", buf.Len()).
		Msg("PDF generated")

	return buf.Bytes(), nil
}

// renderer walks the goldmark AST and draws it with fpdf
type renderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	tr        func(string) string
	bold      bool
	italic    bool
	listLevel int
}

func (r *renderer) setFont(size float64) {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(fontFamily, style, size)
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(4)
			r.pdf.SetFont(fontFamily, "B", headingSize(node.Level))
		} else {
			r.pdf.Ln(7)
			r.setFont(baseSize)
		}

	case *ast.Paragraph:
		if !entering {
			r.pdf.Ln(6)
		}

	case *ast.Text:
		if entering {
			r.pdf.Write(5, r.tr(string(node.Segment.Value(r.source))))
			if node.SoftLineBreak() || node.HardLineBreak() {
				r.pdf.Write(5, " ")
			}
		}

	case *ast.String:
		if entering {
			r.pdf.Write(5, r.tr(string(node.Value)))
		}

	case *ast.Emphasis:
		if node.Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.setFont(baseSize)

	case *ast.CodeSpan:
		if entering {
			r.pdf.SetFont("Courier", "", baseSize)
			r.pdf.Write(5, r.tr(string(node.Text(r.source))))
			r.setFont(baseSize)
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(3)
			}
		}

	case *ast.ListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(15 + float64(r.listLevel)*5)
			r.pdf.Write(5, "- ")
		}

	case *ast.ThematicBreak:
		if entering {
			r.pdf.Ln(2)
			r.pdf.Line(15, r.pdf.GetY(), 195, r.pdf.GetY())
			r.pdf.Ln(2)
		}

	case *extast.Table:
		if entering {
			r.renderTable(r.tableRows(node))
		}
		return ast.WalkSkipChildren, nil
	}

	return ast.WalkContinue, nil
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 16
	case 2:
		return 13
	case 3:
		return 11
	default:
		return baseSize
	}
}

func (r *renderer) tableRows(table *extast.Table) [][]string {
	var rows [][]string
	for child := table.FirstChild(); child != nil; child = child.NextSibling() {
		var row []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row = append(row, r.tr(strings.TrimSpace(string(cell.Text(r.source)))))
		}
		rows = append(rows, row)
	}
	return rows
}

// renderTable draws rows with the first row as a shaded header. Column widths
// follow the widest cell, scaled to fit the page.
func (r *renderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	numCols := len(rows[0])
	const fontSize, lineHeight = 9.0, 5.0

	r.pdf.SetFont(fontFamily, "B", fontSize)
	widths := make([]float64, numCols)
	for _, row := range rows {
		for j := 0; j < numCols && j < len(row); j++ {
			widths[j] = max(widths[j], r.pdf.GetStringWidth(row[j])+4, 12)
		}
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}
	scale := pageWidth / total
	for j := range widths {
		widths[j] *= scale
	}

	r.pdf.Ln(2)
	for i, row := range rows {
		style, fill := "", false
		if i == 0 {
			style, fill = "B", true
			r.pdf.SetFillColor(230, 230, 230)
		}
		r.pdf.SetFont(fontFamily, style, fontSize)

		lines := 1
		for j := 0; j < numCols && j < len(row); j++ {
			lines = max(lines, len(r.pdf.SplitText(row[j], widths[j]-2)))
		}
		height := float64(lines)*lineHeight + 1
		if r.pdf.GetY()+height > pageBottom {
			r.pdf.AddPage()
		}

		x, y := r.pdf.GetX(), r.pdf.GetY()
		for j := 0; j < numCols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			borderStyle := "D"
			if fill {
				borderStyle = "FD"
			}
			r.pdf.Rect(x, y, widths[j], height, borderStyle)
			r.pdf.SetXY(x+1, y+0.5)
			r.pdf.MultiCell(widths[j]-2, lineHeight, cell, "", "L", false)
			x += widths[j]
		}
		r.pdf.SetXY(15, y+height)
	}

	r.pdf.Ln(4)
	r.setFont(baseSize)
}
