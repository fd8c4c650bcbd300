package main

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrMarkerNotFound is returned when the marker stamp is absent from the text.
var ErrMarkerNotFound = errors.New("marker stamp not found")

// stampRegex matches whole digit runs. Only runs of exactly 13 digits are
// stamps.
var stampRegex = regexp.MustCompile(`\d{13,}`)

// Match is a single stamp located in a text.
type Match struct {
	Line  int // 1-based
	Col   int // 1-based, in bytes
	Start int
	End   int
	Raw   string
	Stamp Stamp
}

// FindStamps returns every 13-digit stamp in text, in order of appearance.
func FindStamps(text string) []Match {
	locs := stampRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(locs))
	line, lineStart, pos := 1, 0, 0
	for _, loc := range locs {
		// Advance the line counter up to this match.
		for {
			i := strings.IndexByte(text[pos:loc[0]], '\n')
			if i < 0 {
				break
			}
			line++
			pos += i + 1
			lineStart = pos
		}
		raw := text[loc[0]:loc[1]]
		st, err := ParseStamp(raw)
		if err != nil {
			continue
		}
		matches = append(matches, Match{
			Line:  line,
			Col:   loc[0] - lineStart + 1,
			Start: loc[0],
			End:   loc[1],
			Raw:   raw,
			Stamp: st,
		})
	}
	return matches
}

// markerRegex builds the pattern for a labeled stamp such as
// "TrialStart, 1489489353123" or "TrialStart 1489489353123". The stamp
// must be on the same line as the marker.
func markerRegex(marker string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(marker) + `[,:=]?[ \t]*(\d{13})(?:\D|$)`)
}

// FindMarker returns the first stamp labeled with marker.
func FindMarker(text, marker string) (Match, error) {
	if marker == "" {
		return Match{}, errors.Wrap(ErrMarkerNotFound, "no marker configured")
	}
	loc := markerRegex(marker).FindStringSubmatchIndex(text)
	if loc == nil {
		return Match{}, errors.Wrapf(ErrMarkerNotFound, "looking for %q", marker)
	}
	raw := text[loc[2]:loc[3]]
	st, err := ParseStamp(raw)
	if err != nil {
		return Match{}, err
	}
	line, col := position(text, loc[2])
	return Match{Line: line, Col: col, Start: loc[2], End: loc[3], Raw: raw, Stamp: st}, nil
}

// position converts a byte offset into a 1-based line and column.
func position(text string, offset int) (line, col int) {
	before := text[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - (strings.LastIndexByte(before, '\n') + 1) + 1
	return line, col
}
