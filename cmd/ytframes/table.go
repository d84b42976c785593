package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ytframes/internal/session"
)

// gridColumn is one column of a table rendered over items of type T.
type gridColumn[T any] struct {
	title    string
	align    text.Align
	widthMax int
	value    func(T) string
}

var sessionColumns = []gridColumn[*session.Session]{
	{title: "ID", value: func(s *session.Session) string { return shortID(s.ID) }},
	{title: "Status", value: func(s *session.Session) string { return s.Status.Label() }},
	{title: "Title", widthMax: 48, value: func(s *session.Session) string {
		if s.Title == "" {
			return truncate(s.URL, 48)
		}
		return truncate(s.Title, 48)
	}},
	{title: "Sampled", align: text.AlignRight, value: func(s *session.Session) string { return strconv.Itoa(s.SampledCount) }},
	{title: "Kept", align: text.AlignRight, value: func(s *session.Session) string { return strconv.Itoa(s.AcceptedCount()) }},
	{title: "Updated", value: func(s *session.Session) string { return humanize.Time(s.UpdatedAt) }},
}

var candidateColumns = []gridColumn[session.Frame]{
	{title: "Index", align: text.AlignRight, value: func(f session.Frame) string { return strconv.Itoa(f.Index) }},
	{title: "Time", align: text.AlignRight, value: func(f session.Frame) string { return f.Candidate().TimestampLabel() }},
	{title: "Luma", align: text.AlignRight, value: func(f session.Frame) string { return strconv.FormatFloat(f.Brightness, 'f', 1, 64) }},
	{title: "Selected", value: func(f session.Frame) string {
		if f.Selected {
			return "*"
		}
		return ""
	}},
	{title: "Thumbnail", value: func(f session.Frame) string { return f.ThumbPath }},
}

func renderSessionTable(sessions []*session.Session) string {
	return renderGrid(sessionColumns, sessions, nil)
}

// renderCandidateTable lists the kept frames of a session with a footer
// counting the selection.
func renderCandidateTable(rows []session.Frame) string {
	selected := 0
	for _, f := range rows {
		if f.Selected {
			selected++
		}
	}
	footer := table.Row{"", "", "", fmt.Sprintf("%d/%d", selected, len(rows)), ""}
	return renderGrid(candidateColumns, rows, footer)
}

func renderGrid[T any](columns []gridColumn[T], items []T, footer table.Row) string {
	if len(columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := col.align
		if align == text.AlignDefault {
			align = text.AlignLeft
		}
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignHeader:      text.AlignLeft,
			AlignFooter:      align,
			WidthMax:         col.widthMax,
			WidthMaxEnforcer: text.Trim,
		}
	}
	tw.AppendHeader(header)
	for _, item := range items {
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[i] = col.value(item)
		}
		tw.AppendRow(row)
	}
	if footer != nil {
		tw.AppendFooter(footer)
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}
