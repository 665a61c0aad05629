package datasource

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"rsc.io/pdf"
)

// Glyphs closer than this fraction of the font size are part of the same word
const wordGapRatio = 0.2

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the document is a PDF, by content or by file name
func IsPDF(name string, data []byte) bool {
	if bytes.HasPrefix(data, pdfMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// DecodeDocument returns the text of a document, extracting it from the
// PDF content streams when the document is a PDF
func DecodeDocument(name string, data []byte) (string, error) {
	if IsPDF(name, data) {
		return ExtractPDFText(data)
	}
	return string(data), nil
}

// ExtractPDFText returns the text of every page, one line of text per
// visual line. Glyph runs are ordered top to bottom then left to right.
func ExtractPDFText(data []byte) (text string, err error) {
	defer func() {
		// rsc.io/pdf panics on some malformed content streams
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		b.WriteString(layoutText(page.Content().Text))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func layoutText(glyphs []pdf.Text) string {
	if len(glyphs) == 0 {
		return ""
	}
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines [][]pdf.Text
	for _, g := range sorted {
		if n := len(lines); n > 0 && sameLine(lines[n-1][0], g) {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []pdf.Text{g})
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })

		var b strings.Builder
		for i, g := range line {
			if i > 0 {
				prev := line[i-1]
				if g.X-(prev.X+prev.W) > wordGapRatio*math.Max(g.FontSize, 1) {
					b.WriteByte(' ')
				}
			}
			b.WriteString(g.S)
		}
		out = append(out, b.String())
	}
	return strings.Join(out, "\n")
}

func sameLine(a, b pdf.Text) bool {
	tolerance := math.Max(math.Min(a.FontSize, b.FontSize)/2, 1)
	return math.Abs(a.Y-b.Y) < tolerance
}
