package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// defaultTemplate substitutes the rendered date alone.
const defaultTemplate = "{{date}}"

// ResolveVars computes the template variables for one stamp. elapsed is
// only set when an anchor is known.
func ResolveVars(m Match, format string, loc *time.Location, anchor *Stamp, precision int) map[string]string {
	vars := map[string]string{
		"raw":  m.Raw,
		"date": resolveDate(format, m.Stamp.Time(loc)),
	}
	if anchor != nil {
		vars["elapsed"] = formatSeconds(m.Stamp.Since(*anchor), precision)
	}
	return vars
}

// expandRefs replaces {{name}} placeholders with resolved values. Unknown
// placeholders are left as they are.
func expandRefs(s string, vars map[string]string) string {
	for name, val := range vars {
		s = strings.ReplaceAll(s, "{{"+name+"}}", val)
	}
	return s
}

// formatSeconds renders a millisecond span as decimal seconds, e.g. "12.345000".
// From three decimals up the digits are exact; fewer decimals round.
func formatSeconds(ms int64, precision int) string {
	if precision < 0 {
		precision = defaultPrecision
	}
	if precision < 3 {
		return strconv.FormatFloat(float64(ms)/1000, 'f', precision, 64)
	}
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	return fmt.Sprintf("%s%d.%03d%s", sign, ms/1000, ms%1000, strings.Repeat("0", precision-3))
}
