package tui

import (
	"fmt"
	"slices"

	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/handiism/ultrastar-library/internal/store"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
)

// RenderRows renders query rows as a table. Known song columns come first
// in schema order, other columns follow alphabetically. At most limit rows
// are shown when limit > 0.
func RenderRows(rows []model.Row, limit int) string {
	if len(rows) == 0 {
		return "(no rows)"
	}

	columns := orderedColumns(rows)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(lo.Map(columns, func(c string, _ int) any { return c }))

	shown := rows
	if limit > 0 && len(rows) > limit {
		shown = rows[:limit]
	}
	for _, row := range shown {
		t.AppendRow(lo.Map(columns, func(c string, _ int) any { return formatValue(row[c]) }))
	}

	if len(shown) < len(rows) {
		t.AppendFooter(table.Row{fmt.Sprintf("%d of %d rows", len(shown), len(rows))})
	}

	return t.Render()
}

// RenderColumns renders the songs table layout.
func RenderColumns(columns []store.Column) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type"})
	for _, c := range columns {
		t.AppendRow(table.Row{c.Name, c.Type})
	}
	return t.Render()
}

func orderedColumns(rows []model.Row) []string {
	known := append([]string{"id"}, store.Columns...)

	present := map[string]bool{}
	for _, row := range rows {
		for column := range row {
			present[column] = true
		}
	}

	columns := lo.Filter(known, func(c string, _ int) bool { return present[c] })
	extra := lo.Filter(lo.Keys(present), func(c string, _ int) bool { return !slices.Contains(known, c) })
	slices.Sort(extra)

	return append(columns, extra...)
}

func formatValue(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return v
	}
}
