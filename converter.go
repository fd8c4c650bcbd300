package main

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

// Converter rewrites millisecond stamps in a text as readable dates.
type Converter struct {
	settings Settings
	loc      *time.Location
	style    func(string) string
}

// Option configures a Converter.
type Option func(*Converter)

// WithLocation renders dates in loc instead of the local zone.
func WithLocation(loc *time.Location) Option {
	return func(c *Converter) { c.loc = loc }
}

// WithStyle wraps every substituted value with style.
func WithStyle(style func(string) string) Option {
	return func(c *Converter) { c.style = style }
}

// NewConverter creates a Converter with the given settings.
func NewConverter(s Settings, opts ...Option) *Converter {
	c := &Converter{
		settings: s.withDefaults(),
		loc:      time.Local,
		style:    func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reload swaps the settings. The location and style are kept.
func (c *Converter) Reload(s Settings) {
	c.settings = s.withDefaults()
}

// Entry is one stamp as reported by List.
type Entry struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Raw     string `json:"raw"`
	Date    string `json:"date"`
	Elapsed string `json:"elapsed,omitempty"`
}

// Anchor resolves the reference stamp for elapsed times: the --since value
// if set, otherwise the marker stamp in text. It returns nil without error
// when neither is available and relative output was not requested.
func (c *Converter) Anchor(text string) (*Stamp, error) {
	if c.settings.Since != "" {
		t, err := dateparse.ParseIn(c.settings.Since, c.loc)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing --since %q", c.settings.Since)
		}
		st := StampOf(t)
		dbg("anchor from --since: %s", t)
		return &st, nil
	}

	m, err := FindMarker(text, c.settings.Marker)
	if err != nil {
		if c.settings.Relative {
			return nil, err
		}
		dbg("no anchor: %v", err)
		return nil, nil
	}
	dbg("anchor from marker %q at %d:%d", c.settings.Marker, m.Line, m.Col)
	return &m.Stamp, nil
}

// Convert replaces every stamp in text in a single pass.
func (c *Converter) Convert(text string) (string, error) {
	anchor, err := c.Anchor(text)
	if err != nil {
		return "", err
	}

	dbg("converting with format %q (layout %q), template %q, relative=%t",
		c.settings.Format, goLayout(c.settings.Format), c.settings.Template, c.settings.Relative)

	count := 0
	out := stampRegex.ReplaceAllStringFunc(text, func(raw string) string {
		st, err := ParseStamp(raw)
		if err != nil {
			return raw
		}
		count++
		return c.style(c.resolveReplacement(Match{Raw: raw, Stamp: st}, anchor))
	})
	dbg("replaced %d stamps", count)
	return out, nil
}

// List reports every stamp in text individually.
func (c *Converter) List(text string) ([]Entry, error) {
	anchor, err := c.Anchor(text)
	if err != nil {
		return nil, err
	}

	matches := FindStamps(text)
	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, c.entry(m, anchor))
	}
	return entries, nil
}

// MarkerDate reports the marker stamp. A missing marker is an error.
func (c *Converter) MarkerDate(text string) (Entry, error) {
	m, err := FindMarker(text, c.settings.Marker)
	if err != nil {
		return Entry{}, err
	}
	return c.entry(m, nil), nil
}

func (c *Converter) entry(m Match, anchor *Stamp) Entry {
	vars := ResolveVars(m, c.settings.Format, c.loc, anchor, c.settings.Precision)
	return Entry{
		Line:    m.Line,
		Col:     m.Col,
		Raw:     m.Raw,
		Date:    vars["date"],
		Elapsed: vars["elapsed"],
	}
}

// resolveReplacement computes the text substituted for one stamp.
func (c *Converter) resolveReplacement(m Match, anchor *Stamp) string {
	if c.settings.Relative && anchor != nil {
		return formatSeconds(m.Stamp.Since(*anchor), c.settings.Precision)
	}
	vars := ResolveVars(m, c.settings.Format, c.loc, anchor, c.settings.Precision)
	return expandRefs(c.settings.Template, vars)
}
