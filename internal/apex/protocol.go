package apex

import (
	"regexp"
	"strings"
)

// Commands understood by State.Apply
const (
	CmdInit    = "init"
	CmdTitle1  = "title1"
	CmdTitle2  = "title2"
	CmdComment = "com"
	CmdDyn1    = "dyn1"
	CmdGrid    = "grid"
	CmdLight   = "light"
	CmdCell    = "cell"
	CmdRow     = "row"
)

// SubPosition is the row sub-command moving a kart to a new position
const SubPosition = "#"

// dyn1 sub-commands
const (
	SubCountdown = "countdown"
	SubText      = "text"
)

var (
	cellCommandPattern = regexp.MustCompile(`^(r\d+)(c\d+)$`)
	rowCommandPattern  = regexp.MustCompile(`^r\d+$`)
)

// Line is one "cmd|subcmd|value" line of a feed message
type Line struct {
	Command string
	Sub     string
	Value   string
}

// Kind returns the command, with every cell update folded into CmdCell and
// every row update into CmdRow
func (l Line) Kind() string {
	switch {
	case cellCommandPattern.MatchString(l.Command):
		return CmdCell
	case rowCommandPattern.MatchString(l.Command):
		return CmdRow
	}
	return l.Command
}

// Cell splits a cell update command into its row and column ids
func (l Line) Cell() (row, col string, ok bool) {
	m := cellCommandPattern.FindStringSubmatch(l.Command)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseLine splits a single line. Missing fields are left empty; the value
// keeps any further '|' characters.
func ParseLine(raw string) (Line, bool) {
	raw = strings.TrimRight(raw, "\r")
	if strings.TrimSpace(raw) == "" {
		return Line{}, false
	}
	parts := strings.SplitN(raw, "|", 3)
	line := Line{Command: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		line.Sub = parts[1]
	}
	if len(parts) > 2 {
		line.Value = parts[2]
	}
	if line.Command == "" {
		return Line{}, false
	}
	return line, true
}

// ParseMessage splits a feed message into its lines, skipping blank ones
func ParseMessage(msg string) []Line {
	raw := strings.Split(msg, "\n")
	lines := make([]Line, 0, len(raw))
	for _, r := range raw {
		if line, ok := ParseLine(r); ok {
			lines = append(lines, line)
		}
	}
	return lines
}
