package parser

import (
	"regexp"
	"strconv"
)

var sectionHeaderPattern = regexp.MustCompile(`(?i)(?:\bkart\s*|\bn°\s*|#)(\d{1,3})\b`)

// Section is the slice of a per-team document that belongs to one kart
type Section struct {
	KartNumber int
	Text       string
}

// SplitSections cuts text at every team header ("Kart 7", "N° 7", "#7").
// Each section runs to the next header. A kart whose header appears again
// (page breaks repeat it) has the later text appended to its first section.
func SplitSections(text string) []Section {
	text = Flatten(text)
	headers := sectionHeaderPattern.FindAllStringSubmatchIndex(text, -1)

	index := make(map[int]int)
	var sections []Section
	for i, h := range headers {
		kart, _ := strconv.Atoi(text[h[2]:h[3]])
		if !validKart(kart) {
			continue
		}

		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		body := text[h[1]:end]

		if at, ok := index[kart]; ok {
			sections[at].Text += " " + body
			continue
		}
		index[kart] = len(sections)
		sections = append(sections, Section{KartNumber: kart, Text: body})
	}
	return sections
}
