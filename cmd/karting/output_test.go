package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yesmonga/karting-sub000/internal/apex"
	"github.com/yesmonga/karting-sub000/internal/models"
)

func TestJoinInts(t *testing.T) {
	assert.Equal(t, "", joinInts(nil))
	assert.Equal(t, "23, 47", joinInts([]int{23, 47}))
}

func TestPrintTeams(t *testing.T) {
	var buf bytes.Buffer
	printTeams(&buf, []*models.TeamRecord{{
		Position:   1,
		KartNumber: 19,
		TeamName:   "TEAM ALPHA",
		TotalLaps:  70,
		BestLapMs:  65380,
		Stints:     make([]models.StintRecord, 3),
		PitStops:   []int{23, 47},
	}})

	out := buf.String()
	assert.Contains(t, out, "TEAM ALPHA")
	assert.Contains(t, out, "1:05.380")
	assert.Contains(t, out, "23, 47")
}

func TestPrintLiveGrid(t *testing.T) {
	var buf bytes.Buffer
	printLiveGrid(&buf, apex.Snapshot{
		Sequence: 4,
		Title1:   "24 Heures",
		Columns:  []apex.Column{{ID: "c3", Type: "no", Label: "Kart"}, {ID: "c4", Label: "Team"}},
		Rows: []apex.Row{
			{ID: "r1", Position: 1, Cells: map[string]string{"no": "19", "c4": "TEAM ALPHA"}},
		},
	})

	out := buf.String()
	assert.Contains(t, strings.ToLower(out), "seq 4")
	assert.Contains(t, out, "TEAM ALPHA")
}
