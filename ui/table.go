package ui

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// KV is one row of a key/value table
type KV struct {
	Key   string
	Value string
}

// RenderKV writes a two column table with a title
func RenderKV(w io.Writer, title string, rows []KV) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	for _, r := range rows {
		t.AppendRow(table.Row{r.Key, r.Value})
	}
	t.Render()
}
