package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mj1618/inspector-cli/internal/model"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatYAML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be yaml or json", s)
	}
}

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// Stdout is where results are written.
var Stdout io.Writer = os.Stdout

// CaptureResult is the top-level output of the `capture` command.
type CaptureResult struct {
	URL       string       `yaml:"url,omitempty"       json:"url,omitempty"`
	TS        int64        `yaml:"ts"                  json:"ts"`
	Count     int          `yaml:"count"               json:"count"`
	ElapsedMS int64        `yaml:"elapsedMs,omitempty" json:"elapsedMs,omitempty"`
	Windows   []model.Node `yaml:"windows"             json:"windows"`
}

// CaptureFlatResult is the top-level output when --flat is used.
type CaptureFlatResult struct {
	URL       string           `yaml:"url,omitempty"       json:"url,omitempty"`
	TS        int64            `yaml:"ts"                  json:"ts"`
	Count     int              `yaml:"count"               json:"count"`
	ElapsedMS int64            `yaml:"elapsedMs,omitempty" json:"elapsedMs,omitempty"`
	Nodes     []model.FlatNode `yaml:"nodes"               json:"nodes"`
}

// CountResult is the output of `capture --count`.
type CountResult struct {
	TS    int64 `yaml:"ts"    json:"ts"`
	Count int   `yaml:"count" json:"count"`
}

// CheckResult is the output of `capture --check`.
type CheckResult struct {
	TS         int64                      `yaml:"ts"         json:"ts"`
	Count      int                        `yaml:"count"      json:"count"`
	Mismatches []model.ChildCountMismatch `yaml:"mismatches" json:"mismatches"`
}

// SnapshotOutput is printed by `capture --save`.
type SnapshotOutput struct {
	Label string `yaml:"label" json:"label"`
	TS    int64  `yaml:"ts"    json:"ts"`
	Count int    `yaml:"count" json:"count"`
}

// DiffResult is the output of `capture --diff`.
type DiffResult struct {
	Since   int64            `yaml:"since"   json:"since"`
	TS      int64            `yaml:"ts"      json:"ts"`
	Changes []model.UIChange `yaml:"changes" json:"changes"`
}

// FindOutput is the output of the `find` command.
type FindOutput struct {
	Command string       `yaml:"command"           json:"command"`
	Success bool         `yaml:"success"           json:"success"`
	Message string       `yaml:"message,omitempty" json:"message,omitempty"`
	Count   int          `yaml:"count"             json:"count"`
	Nodes   []model.Node `yaml:"nodes"             json:"nodes"`
}

// ResultOutput is the output of action, gesture and launch commands.
type ResultOutput struct {
	Command string `yaml:"command"           json:"command"`
	Success bool   `yaml:"success"           json:"success"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// Print serializes v to Stdout in the current output format.
func Print(v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		if PrettyOutput {
			return PrintPrettyJSON(v)
		}
		return PrintJSON(v)
	case FormatYAML:
		return PrintYAML(v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// PrintJSON serializes v to Stdout as compact single-line JSON.
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintPrettyJSON serializes v to Stdout as indented JSON.
func PrintPrettyJSON(v interface{}) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// PrintYAML serializes v to Stdout as YAML.
func PrintYAML(v interface{}) error {
	enc := yaml.NewEncoder(Stdout)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
