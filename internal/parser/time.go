package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	markupPattern     = regexp.MustCompile(`<[^>]*>`)
	timeNoisePattern  = regexp.MustCompile(`[^0-9:.,]`)
	lapTokenPattern   = regexp.MustCompile(`\b(?:\d{1,2}:\d{2}|\d{1,3})[.,]\d{3}\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ParseTimeToMs converts a time token such as "1:06.309" or "66.309" to
// milliseconds. It returns 0 when the token cannot be read.
func ParseTimeToMs(token string) int {
	ms, err := ParseTime(token)
	if err != nil {
		return 0
	}
	return ms
}

// ParseTime converts a time token to milliseconds. Tokens containing a colon
// are read as minutes:seconds (hours:minutes:seconds with three fields), others
// as seconds. Markup and colour-indicator prefixes are stripped first.
func ParseTime(token string) (int, error) {
	cleaned := markupPattern.ReplaceAllString(token, "")
	cleaned = timeNoisePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return 0, &MalformedTokenError{Token: token}
	}

	if !strings.Contains(cleaned, ":") {
		seconds, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, &MalformedTokenError{Token: token}
		}
		return int(math.Round(seconds * 1000)), nil
	}

	parts := strings.Split(cleaned, ":")
	var hours, minutes int
	var err error
	switch len(parts) {
	case 2:
		minutes, err = strconv.Atoi(parts[0])
	case 3:
		hours, err = strconv.Atoi(parts[0])
		if err == nil {
			minutes, err = strconv.Atoi(parts[1])
		}
	default:
		return 0, &MalformedTokenError{Token: token}
	}
	if err != nil {
		return 0, &MalformedTokenError{Token: token}
	}

	seconds, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || seconds >= 60 {
		return 0, &MalformedTokenError{Token: token}
	}

	total := float64(hours*3600+minutes*60) + seconds
	return int(math.Round(total * 1000)), nil
}

// ParseClockToMs converts an "HH:MM:SS" track time to milliseconds
func ParseClockToMs(clock string) int {
	if strings.Count(clock, ":") != 2 {
		return 0
	}
	return ParseTimeToMs(clock)
}

// FormatMs renders milliseconds as m:ss.mmm
func FormatMs(ms int) string {
	if ms <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// Flatten collapses every whitespace run, line breaks included, to one space
func Flatten(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// lapTokens returns every lap-time token of text, in milliseconds
func lapTokens(text string) []int {
	tokens := lapTokenPattern.FindAllString(text, -1)
	out := make([]int, 0, len(tokens))
	for _, token := range tokens {
		out = append(out, ParseTimeToMs(token))
	}
	return out
}

// firstLapInWindow returns the first lap-time token of text inside [min, max]
func firstLapInWindow(text string, min, max int) int {
	for _, ms := range lapTokens(text) {
		if ms >= min && ms <= max {
			return ms
		}
	}
	return 0
}
