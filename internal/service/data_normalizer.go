package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"

	"github.com/yesmonga/karting-sub000/internal/models"
	"github.com/yesmonga/karting-sub000/internal/parser"
)

var hexColorPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// DataNormalizer normalizes names read from result documents and forms
type DataNormalizer struct {
	trackNameMap map[string]string // Maps document track names to canonical names
	title        cases.Caser
	logger       *logrus.Logger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(logger *logrus.Logger) *DataNormalizer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &DataNormalizer{
		trackNameMap: buildTrackNameMap(),
		title:        cases.Title(language.French),
		logger:       logger,
	}
}

// NormalizeTeams returns copies of the team records with their names
// normalized. The input records are left untouched.
func (n *DataNormalizer) NormalizeTeams(teams []*models.TeamRecord) []*models.TeamRecord {
	out := make([]*models.TeamRecord, len(teams))
	for i, t := range teams {
		c := *t
		c.TeamName = n.NormalizeTeamName(t.TeamName, t.KartNumber)
		if c.TeamName != t.TeamName {
			n.logger.WithFields(logrus.Fields{
				"kart": t.KartNumber,
				"from": t.TeamName,
				"to":   c.TeamName,
			}).Debug("Team name normalized")
		}
		out[i] = &c
	}
	return out
}

// NormalizeTeamName repairs encoding artefacts and whitespace in a team
// name. An empty name becomes the placeholder name of the kart.
func (n *DataNormalizer) NormalizeTeamName(name string, kart int) string {
	name = collapseSpaces(RepairMojibake(name))
	name = strings.Trim(name, " -–/")
	if name == "" {
		return parser.PlaceholderName(kart)
	}
	return name
}

// NormalizeRaceName repairs encoding artefacts and whitespace in a race name
func (n *DataNormalizer) NormalizeRaceName(name string) string {
	return collapseSpaces(RepairMojibake(name))
}

// NormalizeTrackName converts track name variations to canonical format
func (n *DataNormalizer) NormalizeTrackName(track string) string {
	track = collapseSpaces(RepairMojibake(track))
	if track == "" {
		return ""
	}

	if canonical, ok := n.trackNameMap[strings.ToUpper(track)]; ok {
		return canonical
	}
	if canonical, ok := n.trackNameMap[strings.ToUpper(stripAccents(track))]; ok {
		return canonical
	}

	return n.title.String(strings.ToLower(track))
}

// NormalizeDriverCode returns an upper-case code of at most four letters or
// digits, derived from the driver name when code is empty
func (n *DataNormalizer) NormalizeDriverCode(code, name string) string {
	source, limit := code, 4
	if strings.TrimSpace(source) == "" {
		fields := strings.Fields(name)
		if len(fields) == 0 {
			return ""
		}
		source, limit = fields[len(fields)-1], 3
	}

	var b strings.Builder
	written := 0
	for _, r := range strings.ToUpper(stripAccents(source)) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(r)
		written++
		if written == limit {
			break
		}
	}
	return b.String()
}

// NormalizeColor returns a lower-case "#rrggbb" color, or "" when color is
// not a hex color
func (n *DataNormalizer) NormalizeColor(color string) string {
	m := hexColorPattern.FindStringSubmatch(strings.TrimSpace(color))
	if m == nil {
		return ""
	}
	hex := strings.ToLower(m[1])
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	return "#" + hex
}

// NormalizeDriver normalizes the editable fields of a driver in place
func (n *DataNormalizer) NormalizeDriver(d *models.Driver) {
	d.Name = collapseSpaces(RepairMojibake(d.Name))
	d.Code = n.NormalizeDriverCode(d.Code, d.Name)
	d.Color = n.NormalizeColor(d.Color)
	if d.WeightKg.IsNegative() {
		d.WeightKg = d.WeightKg.Neg()
	}
}

// RepairMojibake undoes UTF-8 text decoded once as Latin-1, such as
// "ArrivÃ©e" for "Arrivée". Text that does not round-trip is returned as is.
func RepairMojibake(s string) string {
	if !strings.ContainsAny(s, "ÃÂ") {
		return s
	}
	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil || !utf8.ValidString(raw) {
		return s
	}
	return raw
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var accentReplacer = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a", "é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i", "ô", "o", "ö", "o", "ù", "u", "û", "u", "ü", "u", "ç", "c",
	"À", "A", "Â", "A", "Ä", "A", "É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Î", "I", "Ï", "I", "Ô", "O", "Ö", "O", "Ù", "U", "Û", "U", "Ü", "U", "Ç", "C",
)

func stripAccents(s string) string {
	return accentReplacer.Replace(s)
}

// buildTrackNameMap returns mapping of track name variations to canonical names
func buildTrackNameMap() map[string]string {
	return map[string]string{
		"LOHEAC":               "Lohéac",
		"CIRCUIT DE LOHEAC":    "Lohéac",
		"LE MANS":              "Le Mans Karting International",
		"LE MANS KARTING":      "Le Mans Karting International",
		"ALAIN PROST":          "Le Mans Karting International",
		"KARTING ALAIN PROST":  "Le Mans Karting International",
		"ANGERVILLE":           "Angerville",
		"SALBRIS":              "Salbris",
		"ISSOIRE":              "Issoire",
		"MIRAMAS":              "Miramas",
		"VALENCE":              "Valence",
		"LAVAL":                "Laval",
		"MARINES":              "Marines",
		"RKC":                  "RKC Marines",
		"RKC MARINES":          "RKC Marines",
		"ESSAY":                "Essay",
		"MORNAC":               "Mornac",
		"SAINT AMAND":          "Saint-Amand",
		"SAINT-AMAND":          "Saint-Amand",
		"SAINT-AMAND-MONTROND": "Saint-Amand",
		"OUISTREHAM":           "Ouistreham",
		"LA FERTE GAUCHER":     "La Ferté-Gaucher",
		"LA FERTE-GAUCHER":     "La Ferté-Gaucher",
		"PALAVAS":              "Palavas",
		"VARENNES SUR ALLIER":  "Varennes-sur-Allier",
		"VARENNES-SUR-ALLIER":  "Varennes-sur-Allier",
		"TRAPPES":              "Trappes",
		"BRIGNOLES":            "Brignoles",
		"AGEN":                 "Agen",

		"CIRCUIT INTERNATIONAL D'ESSAY": "Essay",
	}
}
