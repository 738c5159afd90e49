package output

import (
	"encoding/json"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders known result types as tables and anything else as
// indented JSON.
type TableFormatter struct {
	Colour bool
}

func (f *TableFormatter) Format(v any) (string, error) {
	sections, ok := tabulate(v, newStyler(f.Colour))
	if !ok {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	rendered := make([]string, 0, len(sections))
	for _, s := range sections {
		t := s.writer()
		t.SetStyle(table.StyleRounded)
		rendered = append(rendered, t.Render())
	}
	return strings.Join(rendered, "\n"), nil
}

// MarkdownFormatter renders known result types as markdown tables.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(v any) (string, error) {
	sections, ok := tabulate(v, newStyler(false))
	if !ok {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return "```json\n" + string(data) + "\n```", nil
	}

	rendered := make([]string, 0, len(sections))
	for _, s := range sections {
		var sb strings.Builder
		if s.title != "" {
			sb.WriteString("### " + s.title + "\n\n")
		}
		t := s.writer()
		t.SetTitle("")
		sb.WriteString(t.RenderMarkdown())
		rendered = append(rendered, sb.String())
	}
	return strings.Join(rendered, "\n\n"), nil
}

type section struct {
	title  string
	header table.Row
	rows   []table.Row
	footer table.Row
}

func (s section) writer() table.Writer {
	t := table.NewWriter()
	if s.title != "" {
		t.SetTitle(s.title)
	}
	if len(s.header) > 0 {
		t.AppendHeader(s.header)
	}
	t.AppendRows(s.rows)
	if len(s.footer) > 0 {
		t.AppendFooter(s.footer)
	}
	return t
}
