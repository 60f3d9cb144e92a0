package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Formatter renders a report. The same report always renders to the same bytes.
type Formatter interface {
	Format(report *Report) ([]byte, error)
	// Name is the canonical format name used by --format
	Name() string
}

// FormatterFunc registers a plain function as a named Formatter
type FormatterFunc struct {
	ID string
	F  func(*Report) ([]byte, error)
}

func (ff FormatterFunc) Format(r *Report) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                     { return ff.ID }

// WriteFormatted runs a formatter and writes the output to a timestamped file in dir.
func WriteFormatted(f Formatter, report *Report, dir, ext string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	stamp := report.GeneratedAt
	filename := filepath.Join(dir, fmt.Sprintf("mortgage_report_%s.%s", stamp.Format("20060102_150405"), ext))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// builtInFormatters is the registry, keyed by Name
var builtInFormatters = []Formatter{
	ConsoleVerboseFormatter{},
	ConsoleFormatter{},
	CSVSummarizer{},
	CSVDetailedExporter{},
	JSONFormatter{},
}

// GetFormatterByName resolves a name or alias, returning nil when nothing matches
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// aliasMap maps accepted spellings to canonical names
var aliasMap = map[string]string{
	"text":         "console",
	"verbose":      "console",
	"lite":         "console-lite",
	"summary":      "console-lite",
	"csv-summary":  "csv",
	"csv-detailed": "detailed-csv",
	"json-pretty":  "json",
}

// NormalizeFormatName trims, lower-cases and resolves aliases
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames lists canonical names in sorted order
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the aliases in sorted order
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FileExtension maps a formatter to the extension used when saving its output
func FileExtension(f Formatter) string {
	switch f.Name() {
	case "json":
		return "json"
	case "csv", "detailed-csv":
		return "csv"
	}
	return "txt"
}
