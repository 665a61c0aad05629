package apex

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time copy of the live state
type Snapshot struct {
	// Epoch identifies the State instance that produced Sequence. Sequences
	// are only comparable within one epoch.
	Epoch       string    `json:"epoch,omitempty"`
	Sequence    uint64    `json:"sequence"`
	Title1      string    `json:"title1"`
	Title2      string    `json:"title2"`
	Comment     string    `json:"comment,omitempty"`
	Light       string    `json:"light,omitempty"`
	ClockText   string    `json:"clock_text,omitempty"`
	CountdownMs int64     `json:"countdown_ms"`
	Columns     []Column  `json:"columns"`
	Rows        []Row     `json:"rows"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Row returns the row of a kart
func (s *Snapshot) Row(kart int) (Row, bool) {
	for _, r := range s.Rows {
		if r.KartNumber() == kart {
			return r, true
		}
	}
	return Row{}, false
}

func (s *Snapshot) clone() Snapshot {
	c := *s
	c.Columns = append([]Column(nil), s.Columns...)
	c.Rows = make([]Row, len(s.Rows))
	for i, r := range s.Rows {
		c.Rows[i] = r.clone()
	}
	return c
}

// ApplyResult reports what a message did to the state
type ApplyResult struct {
	Changed  bool
	Applied  []string
	Unknown  []string
	Sequence uint64
}

// State is the live state of one timing feed. It is safe for concurrent use.
type State struct {
	mu      sync.RWMutex
	snap    Snapshot
	retired map[string]struct{}
	now     func() time.Time
}

// NewState creates an empty live state with a fresh epoch
func NewState() *State {
	return &State{
		snap:    Snapshot{Epoch: uuid.NewString()},
		retired: make(map[string]struct{}),
		now:     time.Now,
	}
}

// ApplyMessage parses and applies one feed message
func (s *State) ApplyMessage(msg string) ApplyResult {
	return s.Apply(ParseMessage(msg))
}

// Apply applies the lines of one message. The sequence advances once per
// message that changed anything.
func (s *State) Apply(lines []Line) ApplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result ApplyResult
	for _, line := range lines {
		kind := line.Kind()
		if s.applyLine(kind, line) {
			result.Applied = append(result.Applied, kind)
		} else {
			result.Unknown = append(result.Unknown, line.Command)
		}
	}

	if len(result.Applied) > 0 {
		s.snap.Sequence++
		s.snap.UpdatedAt = s.now().UTC()
		result.Changed = true
	}
	result.Sequence = s.snap.Sequence
	return result
}

func (s *State) applyLine(kind string, line Line) bool {
	switch kind {
	case CmdInit:
		s.snap.Columns = nil
		s.snap.Rows = nil
		s.snap.Comment = ""
		return true
	case CmdTitle1:
		s.snap.Title1 = strings.TrimSpace(line.Value)
		return true
	case CmdTitle2:
		s.snap.Title2 = strings.TrimSpace(line.Value)
		return true
	case CmdComment:
		s.snap.Comment = StripHTML(line.Value)
		return true
	case CmdLight:
		s.snap.Light = line.Sub
		if s.snap.Light == "" {
			s.snap.Light = line.Value
		}
		return true
	case CmdDyn1:
		return s.applyDyn1(line)
	case CmdGrid:
		columns, rows, err := ParseGrid(line.Value)
		if err != nil {
			return false
		}
		s.snap.Columns = columns
		s.snap.Rows = rows
		s.sortRows()
		return true
	case CmdCell:
		return s.applyCell(line)
	case CmdRow:
		return s.applyRow(line)
	}
	return false
}

func (s *State) applyDyn1(line Line) bool {
	switch line.Sub {
	case SubCountdown:
		ms, err := strconv.ParseInt(strings.TrimSpace(line.Value), 10, 64)
		if err != nil {
			return false
		}
		s.snap.CountdownMs = ms
		return true
	case SubText:
		s.snap.ClockText = strings.TrimSpace(line.Value)
		return true
	}
	return false
}

func (s *State) applyCell(line Line) bool {
	rowID, colID, ok := line.Cell()
	if !ok {
		return false
	}
	row := s.row(rowID)
	if row == nil {
		return false
	}
	key := columnKey(s.snap.Columns, colID)
	row.Cells[key] = StripHTML(line.Value)
	if line.Sub != "" {
		if row.Classes == nil {
			row.Classes = make(map[string]string)
		}
		row.Classes[key] = line.Sub
	}
	return true
}

func (s *State) applyRow(line Line) bool {
	if line.Sub != SubPosition {
		return false
	}
	row := s.row(line.Command)
	if row == nil {
		return false
	}
	pos, err := strconv.Atoi(strings.TrimSpace(line.Value))
	if err != nil || pos <= 0 {
		return false
	}
	row.Position = pos
	s.sortRows()
	return true
}

func (s *State) row(id string) *Row {
	for i := range s.snap.Rows {
		if s.snap.Rows[i].ID == id {
			return &s.snap.Rows[i]
		}
	}
	return nil
}

func (s *State) sortRows() {
	sort.SliceStable(s.snap.Rows, func(i, j int) bool {
		return s.snap.Rows[i].Position < s.snap.Rows[j].Position
	})
}

// Snapshot returns a deep copy of the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Sequence returns the sequence of the last change
func (s *State) Sequence() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Sequence
}

// Epoch returns the epoch of the current state
func (s *State) Epoch() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Epoch
}

// Restore replaces the state with snap when snap is newer than the current
// state. A snap from a new epoch always replaces the state and retires the
// previous epoch; a snap from a retired epoch is never applied. A snap
// without an epoch is compared by sequence only. It reports whether snap
// was applied.
func (s *State) Restore(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired == nil {
		s.retired = make(map[string]struct{})
	}

	switch {
	case snap.Epoch == "" || snap.Epoch == s.snap.Epoch:
		if snap.Sequence <= s.snap.Sequence {
			return false
		}
	default:
		if _, ok := s.retired[snap.Epoch]; ok {
			return false
		}
		if s.snap.Epoch != "" {
			s.retired[s.snap.Epoch] = struct{}{}
		}
	}

	epoch := s.snap.Epoch
	s.snap = snap.clone()
	if snap.Epoch == "" {
		s.snap.Epoch = epoch
	}
	return true
}
