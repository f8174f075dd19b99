package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// render writes data in the selected output format. Tables are built from
// header and rows; json and yaml encode data directly.
func (g *Globals) render(header table.Row, rows []table.Row, data any) error {
	return encode(g.out(), g.Output, header, rows, data)
}

func encode(w io.Writer, format string, header table.Row, rows []table.Row, data any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(header)
		t.AppendRows(rows)
		style := table.StyleLight
		style.Options.DrawBorder = false
		t.SetStyle(style)
		t.Render()
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// structured reports whether json or yaml output was requested.
func (g *Globals) structured() bool {
	return g.Output == outputJSON || g.Output == outputYAML
}

// printf writes a human readable line, suppressed for structured formats.
func (g *Globals) printf(format string, args ...any) {
	if g.structured() {
		return
	}
	fmt.Fprintf(g.out(), format, args...)
}
