package main

import (
	"time"

	"github.com/ncruces/go-strftime"
)

// defaultFormat renders "2017-03-14 10:22:33.123000".
const defaultFormat = "%Y-%m-%d %H:%M:%S.%f"

// resolveDate renders t with a strftime format. Go's time.Format is not
// used on user formats because it would treat literal digits and words
// such as "Mon" or "2006" as layout tokens.
func resolveDate(format string, t time.Time) string {
	if format == "" {
		format = defaultFormat
	}
	return strftime.Format(format, t)
}

// goLayout reports the Go reference layout equivalent to format, for
// debug output. Formats with no Go equivalent return "".
func goLayout(format string) string {
	layout, err := strftime.Layout(format)
	if err != nil {
		return ""
	}
	return layout
}
