package apex

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Column types used by the timing grid header
const (
	ColumnStatus   = "sta"
	ColumnRank     = "rk"
	ColumnKart     = "no"
	ColumnDriver   = "dr"
	ColumnLastLap  = "llp"
	ColumnBestLap  = "blp"
	ColumnGap      = "gap"
	ColumnInterval = "int"
	ColumnLaps     = "tlp"
	ColumnOnTrack  = "otr"
	ColumnPits     = "pit"
)

// Column is one column of the timing grid
type Column struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Row is one kart of the timing grid. Cells are keyed by column type, or by
// column id when the header gave no type.
type Row struct {
	ID       string            `json:"id"`
	Position int               `json:"position"`
	Cells    map[string]string `json:"cells"`
	Classes  map[string]string `json:"classes,omitempty"`
}

// KartNumber returns the kart number of the row, or 0
func (r Row) KartNumber() int {
	n, err := strconv.Atoi(strings.TrimSpace(r.Cells[ColumnKart]))
	if err != nil {
		return 0
	}
	return n
}

// Team returns the team or driver name of the row
func (r Row) Team() string {
	return r.Cells[ColumnDriver]
}

func (r Row) clone() Row {
	c := Row{ID: r.ID, Position: r.Position, Cells: make(map[string]string, len(r.Cells))}
	for k, v := range r.Cells {
		c.Cells[k] = v
	}
	if len(r.Classes) > 0 {
		c.Classes = make(map[string]string, len(r.Classes))
		for k, v := range r.Classes {
			c.Classes[k] = v
		}
	}
	return c
}

// ParseGrid parses the HTML table fragment sent by the grid command. The
// header row carries a data-type per column; data rows carry a data-id such
// as "r12" and their cells a data-id such as "r12c4".
func ParseGrid(fragment string) ([]Column, []Row, error) {
	if !strings.Contains(strings.ToLower(fragment), "<table") {
		fragment = "<table>" + fragment + "</table>"
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse grid: %w", err)
	}

	var columns []Column
	var rows []Row
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if isHeaderRow(n) {
				columns = headerColumns(n)
			} else if row, ok := dataRow(n, columns); ok {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if len(columns) == 0 && len(rows) == 0 {
		return nil, nil, fmt.Errorf("grid holds no row")
	}
	for i := range rows {
		if rows[i].Position == 0 {
			rows[i].Position = i + 1
		}
	}
	return columns, rows, nil
}

func isHeaderRow(n *html.Node) bool {
	if strings.Contains(" "+attr(n, "class")+" ", " head ") {
		return true
	}
	return attr(n, "data-pos") == "0"
}

func headerColumns(tr *html.Node) []Column {
	var columns []Column
	i := 0
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type != html.ElementNode || (td.Data != "td" && td.Data != "th") {
			continue
		}
		i++
		id := attr(td, "data-id")
		if id == "" {
			id = "c" + strconv.Itoa(i)
		}
		columns = append(columns, Column{
			ID:    id,
			Type:  attr(td, "data-type"),
			Label: textContent(td),
		})
	}
	return columns
}

func dataRow(tr *html.Node, columns []Column) (Row, bool) {
	id := attr(tr, "data-id")
	if id == "" {
		return Row{}, false
	}
	row := Row{ID: id, Cells: make(map[string]string)}
	if pos, err := strconv.Atoi(attr(tr, "data-pos")); err == nil {
		row.Position = pos
	}

	i := 0
	for td := tr.FirstChild; td != nil; td = td.NextSibling {
		if td.Type != html.ElementNode || td.Data != "td" {
			continue
		}
		i++
		colID := strings.TrimPrefix(attr(td, "data-id"), id)
		if colID == "" {
			colID = "c" + strconv.Itoa(i)
		}
		key := columnKey(columns, colID)
		row.Cells[key] = textContent(td)
		if class := attr(td, "class"); class != "" {
			if row.Classes == nil {
				row.Classes = make(map[string]string)
			}
			row.Classes[key] = class
		}
	}
	return row, true
}

func columnKey(columns []Column, colID string) string {
	for _, c := range columns {
		if c.ID == colID && c.Type != "" {
			return c.Type
		}
	}
	return colID
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// StripHTML returns the text of an HTML fragment with whitespace collapsed
func StripHTML(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if string(name) == "br" {
				b.WriteByte(' ')
			}
		}
	}
}
