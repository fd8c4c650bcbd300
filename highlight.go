package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// highlighter returns a style for substituted dates written to w. The
// renderer detects w's color support, so redirected output stays plain.
func highlighter(w io.Writer) func(string) string {
	r := lipgloss.NewRenderer(w)
	style := r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	return func(s string) string {
		return style.Render(s)
	}
}
