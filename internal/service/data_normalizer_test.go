package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yesmonga/karting-sub000/internal/logger"
	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
)

func TestNormalizeTeamName(t *testing.T) {
	n := NewDataNormalizer(logger.NewNopLogger())

	tests := []struct {
		name string
		in   string
		kart int
		want string
	}{
		{name: "extra spaces", in: "  TEAM   ALPHA ", kart: 19, want: "TEAM ALPHA"},
		{name: "trailing separator", in: "LES RAPIDES -", kart: 7, want: "LES RAPIDES"},
		{name: "mojibake", in: "CafÃ© Racing", kart: 3, want: "Café Racing"},
		{name: "empty", in: "  ", kart: 5, want: parser.PlaceholderName(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeTeamName(tt.in, tt.kart))
		})
	}
}

func TestNormalizeTeamsCopies(t *testing.T) {
	n := NewDataNormalizer(logger.NewNopLogger())
	in := []*models.TeamRecord{{KartNumber: 19, TeamName: " TEAM  ALPHA"}}

	out := n.NormalizeTeams(in)
	assert.Equal(t, "TEAM ALPHA", out[0].TeamName)
	assert.Equal(t, " TEAM  ALPHA", in[0].TeamName)
}

func TestNormalizeTrackName(t *testing.T) {
	n := NewDataNormalizer(logger.NewNopLogger())

	tests := []struct {
		in   string
		want string
	}{
		{in: "loheac", want: "Lohéac"},
		{in: "Lohéac", want: "Lohéac"},
		{in: "Karting  Alain Prost", want: "Le Mans Karting International"},
		{in: "la ferté-gaucher", want: "La Ferté-Gaucher"},
		{in: "vendée kart", want: "Vendée Kart"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.NormalizeTrackName(tt.in))
		})
	}
}

func TestNormalizeDriverCode(t *testing.T) {
	n := NewDataNormalizer(logger.NewNopLogger())

	assert.Equal(t, "DUP", n.NormalizeDriverCode("", "Jean Dupont"))
	assert.Equal(t, "LEF", n.NormalizeDriverCode("", "Éric Lefèvre"))
	assert.Equal(t, "AB12", n.NormalizeDriverCode("ab-12x", "Jean Dupont"))
	assert.Equal(t, "", n.NormalizeDriverCode("", ""))
	assert.Equal(t, "ØST", n.NormalizeDriverCode("", "Lars Østergaard"))
	assert.Equal(t, "ŁUKA", n.NormalizeDriverCode("łukasz", "Łukasz Nowak"))
}

func TestNormalizeColor(t *testing.T) {
	n := NewDataNormalizer(logger.NewNopLogger())

	assert.Equal(t, "#aabbcc", n.NormalizeColor("#ABC"))
	assert.Equal(t, "#ff0000", n.NormalizeColor(" FF0000 "))
	assert.Equal(t, "", n.NormalizeColor("red"))
}

func TestNormalizeDriver(t *testing.T) {
	n := NewDataNormalizer(logger.NewNopLogger())
	d := &models.Driver{Name: " Jean   Dupont ", Color: "0F0", WeightKg: decimal.NewFromInt(-70)}

	n.NormalizeDriver(d)
	assert.Equal(t, "Jean Dupont", d.Name)
	assert.Equal(t, "DUP", d.Code)
	assert.Equal(t, "#00ff00", d.Color)
	assert.True(t, decimal.NewFromInt(70).Equal(d.WeightKg))
}

func TestRepairMojibake(t *testing.T) {
	assert.Equal(t, "Arrivée", RepairMojibake("ArrivÃ©e"))
	assert.Equal(t, "Arrivée", RepairMojibake("Arrivée"))
	assert.Equal(t, "plain", RepairMojibake("plain"))
}
