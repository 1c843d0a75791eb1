package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

// renderTaskTable renders the six-column task listing. Progress is the only
// numeric column and is right-aligned.
func renderTaskTable(rows []table.Row) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"ID", "Subject", "Type", "Status", "Progress", "Created"})
	tw.AppendRows(rows)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderCountTable renders the status summary with right-aligned counts.
func renderCountTable(rows []table.Row) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Status", "Count"})
	tw.AppendRows(rows)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
