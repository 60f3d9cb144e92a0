package output

import (
	"bytes"
	"fmt"
	"strings"
)

// ConsoleFormatter prints only the headline findings.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console-lite" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	title := strings.ToUpper(report.Title)
	fmt.Fprintln(&buf, title)
	fmt.Fprintln(&buf, strings.Repeat("=", len(title)))

	highlights := Highlights(report)
	if len(highlights) == 0 {
		fmt.Fprintln(&buf, "No findings.")
	}
	for _, h := range highlights {
		fmt.Fprintf(&buf, "• %s\n", h)
	}
	for _, n := range report.Notes {
		fmt.Fprintf(&buf, "Note: %s\n", n)
	}
	return buf.Bytes(), nil
}
