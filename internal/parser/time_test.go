package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeToMs(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "minutes and seconds", token: "1:06.309", want: 66309},
		{name: "seconds only", token: "66.309", want: 66309},
		{name: "empty", token: "", want: 0},
		{name: "comma decimal separator", token: "1:06,309", want: 66309},
		{name: "markup around token", token: "<b>1:06.309</b>", want: 66309},
		{name: "colour indicator prefix", token: "g1:06.309", want: 66309},
		{name: "sector", token: "22.1", want: 22100},
		{name: "hours minutes seconds", token: "01:23:45", want: 5025000},
		{name: "letters only", token: "abc", want: 0},
		{name: "seconds overflow", token: "1:60.000", want: 0},
		{name: "missing minutes", token: ":06.309", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTimeToMs(tt.token))
		})
	}
}

func TestParseTimeReturnsTypedError(t *testing.T) {
	_, err := ParseTime("--")
	require.Error(t, err)

	var tokenErr *MalformedTokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, "--", tokenErr.Token)
}

func TestParseClockToMs(t *testing.T) {
	assert.Equal(t, 1513000, ParseClockToMs("00:25:13"))
	assert.Equal(t, 0, ParseClockToMs("1:06.309"))
	assert.Equal(t, 0, ParseClockToMs(""))
}

func TestFormatMs(t *testing.T) {
	assert.Equal(t, "1:06.309", FormatMs(66309))
	assert.Equal(t, "0:59.001", FormatMs(59001))
	assert.Equal(t, "-", FormatMs(0))
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "a b c", Flatten("  a\n\tb \r\n c  "))
}
