package apex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrid = `<tbody>
<tr class="head" data-id="r0" data-pos="0">
  <td data-id="c1" data-type="sta"></td>
  <td data-id="c2" data-type="rk">Clt</td>
  <td data-id="c3" data-type="no">Kart</td>
  <td data-id="c4" data-type="dr">Equipe</td>
  <td data-id="c5" data-type="llp">Dernier T.</td>
  <td data-id="c6" data-type="blp">Meilleur T.</td>
  <td data-id="c7" data-type="tlp">Tours</td>
  <td data-id="c8" data-type="pit">Stands</td>
</tr>
<tr data-id="r19" data-pos="2">
  <td data-id="r19c1" class="sr"></td>
  <td data-id="r19c2">2</td>
  <td data-id="r19c3"><div class="no1">19</div></td>
  <td data-id="r19c4">SPEEDY <b>KART</b></td>
  <td data-id="r19c5" class="tn">1:06.309</td>
  <td data-id="r19c6">1:05.380</td>
  <td data-id="r19c7">412</td>
  <td data-id="r19c8">7</td>
</tr>
<tr data-id="r7" data-pos="1">
  <td data-id="r7c1"></td>
  <td data-id="r7c2">1</td>
  <td data-id="r7c3">7</td>
  <td data-id="r7c4">LES FOUS DU VOLANT</td>
  <td data-id="r7c5">1:05.900</td>
  <td data-id="r7c6">1:05.100</td>
  <td data-id="r7c7">413</td>
  <td data-id="r7c8">6</td>
</tr>
</tbody>`

func TestParseGrid(t *testing.T) {
	columns, rows, err := ParseGrid(sampleGrid)
	require.NoError(t, err)

	require.Len(t, columns, 8)
	assert.Equal(t, Column{ID: "c3", Type: ColumnKart, Label: "Kart"}, columns[2])

	require.Len(t, rows, 2)
	assert.Equal(t, "r19", rows[0].ID)
	assert.Equal(t, 2, rows[0].Position)
	assert.Equal(t, 19, rows[0].KartNumber())
	assert.Equal(t, "SPEEDY KART", rows[0].Team())
	assert.Equal(t, "1:06.309", rows[0].Cells[ColumnLastLap])
	assert.Equal(t, "tn", rows[0].Classes[ColumnLastLap])
	assert.Equal(t, "7", rows[1].Cells[ColumnPits])
}

func TestParseGridWithoutHeader(t *testing.T) {
	_, rows, err := ParseGrid(`<tr data-id="r3"><td>5</td><td>TEAM</td></tr>`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Position)
	assert.Equal(t, "5", rows[0].Cells["c1"])
	assert.Equal(t, "TEAM", rows[0].Cells["c2"])
}

func TestParseGridEmpty(t *testing.T) {
	_, _, err := ParseGrid("<p>no table here</p>")
	assert.Error(t, err)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<span class="c">Drapeau <b>jaune</b></span>`, "Drapeau jaune"},
		{"Kart 19<br>pénalité", "Kart 19 pénalité"},
		{"R&eacute;sultat &amp; classement", "Résultat & classement"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripHTML(tt.in))
	}
}
