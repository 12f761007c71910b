package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the usdrename banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Teal to blue, one shade per line
	lines := []struct {
		text  string
		color string
	}{
		{"                 _                                    ", "#2dd4bf"},
		{"  _   _ ___  __| |_ __ ___ _ __   __ _ _ __ ___   ___ ", "#22d3ee"},
		{" | | | / __|/ _` | '__/ _ \\ '_ \\ / _` | '_ ` _ \\ / _ \\", "#38bdf8"},
		{" | |_| \\__ \\ (_| | | |  __/ | | | (_| | | | | | |  __/", "#60a5fa"},
		{"  \\__,_|___/\\__,_|_|  \\___|_| |_|\\__,_|_| |_| |_|\\___|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
